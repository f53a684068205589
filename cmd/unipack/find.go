package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jamesainslie/unipack/pkg/unipack/finder"
	"github.com/jamesainslie/unipack/pkg/unipack/types"
	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find [path]",
	Short: "Locate .unitypackage files",
	Long: `Search a directory tree for .unitypackage files.

Directories matching find.exclude in the config are skipped.

Examples:
  unipack find                 # Search the current directory
  unipack find ~/Downloads
  unipack find --json ~/Assets`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFind,
}

var findFlags struct {
	json           bool
	exclude        []string
	followSymlinks bool
}

func init() {
	findCmd.Flags().BoolVarP(&findFlags.json, "json", "j", false, "output JSON")
	findCmd.Flags().StringSliceVarP(&findFlags.exclude, "exclude", "e", nil, "additional exclude globs")
	findCmd.Flags().BoolVarP(&findFlags.followSymlinks, "follow-symlinks", "L", false, "descend into symlinked directories")
	rootCmd.AddCommand(findCmd)
}

// runFind walks the tree and prints every package found.
func runFind(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	opts := finder.Options{
		Exclude:        append(append([]string{}, c.Find.Exclude...), findFlags.exclude...),
		Workers:        c.Workers,
		FollowSymlinks: c.Find.FollowSymlinks || findFlags.followSymlinks,
	}
	if getVerbose() {
		opts.OnProgress = func(p finder.Progress) {
			printVerbose("scanned %d dirs, found %d: %s", p.DirsScanned, p.Found, p.CurrentPath)
		}
	}

	res, err := finder.Find(ctx, root, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if findFlags.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	out := cmd.OutOrStdout()
	if len(res.Packages) == 0 {
		printInfo("No packages found under %s.", res.Root)
	} else {
		fmt.Fprintf(out, "\n%-12s  %-16s  %s\n", "SIZE", "MODIFIED", "PATH")
		fmt.Fprintln(out, strings.Repeat("-", 80))
		for _, p := range res.Packages {
			fmt.Fprintf(out, "%-12s  %-16s  %s\n",
				types.FormatSize(p.Size),
				p.ModTime.Format("2006-01-02 15:04"),
				p.Path)
		}
		fmt.Fprintln(out, strings.Repeat("-", 80))
		printInfo("%d packages in %s directories (%s)",
			len(res.Packages), types.FormatCount(res.DirsScanned), res.Elapsed.Round(time.Millisecond))
	}

	for _, e := range res.Errors {
		printVerbose("skipped %s: %s", e.Path, e.Error)
	}
	return nil
}
