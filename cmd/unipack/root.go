package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/jamesainslie/unipack/cmd/unipack/tui"
	"github.com/jamesainslie/unipack/pkg/unipack/finder"
	"github.com/jamesainslie/unipack/pkg/unipack/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "unipack [package]",
		Short: "Browse and extract Unity packages",
		Long: `Unipack reads .unitypackage archives without Unity.

By default, unipack opens an interactive browser where you pick the assets
to extract. Without an argument it looks for a single package below the
current directory.

Examples:
  unipack Foo.unitypackage             # Browse a package
  unipack -o ./out --watch Foo.unitypackage
  unipack list Foo.unitypackage        # Print the asset tree
  unipack extract Foo.unitypackage Assets/Scripts -o ./out
  unipack find ~/Downloads             # Locate packages
  unipack history                      # View past extractions`,
		Args:               cobra.MaximumNArgs(1),
		PersistentPreRunE:  initializeLogging,
		PersistentPostRunE: closeLogging,
		SilenceUsage:       true,
		RunE:               runBrowse,
	}
)

var browseFlags struct {
	output   string
	withMeta bool
	dryRun   bool
	watch    bool
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/unipack/config.yaml)")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "override worker count (0=auto)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass the package index cache")

	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("no_cache", rootCmd.PersistentFlags().Lookup("no-cache"))

	rootCmd.Flags().StringVarP(&browseFlags.output, "output", "o", "", "extraction directory (default from config)")
	rootCmd.Flags().BoolVar(&browseFlags.withMeta, "with-meta", false, "also write .meta files")
	rootCmd.Flags().BoolVarP(&browseFlags.dryRun, "dry-run", "d", false, "plan extractions without writing")
	rootCmd.Flags().BoolVar(&browseFlags.watch, "watch", false, "reload the package when it changes on disk")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// runBrowse opens the interactive browser.
func runBrowse(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var source string
	if len(args) > 0 {
		source = args[0]
	} else {
		source, err = discoverPackage(ctx, ".", c.Find.Exclude)
		if err != nil {
			return err
		}
		printVerbose("Using %s", source)
	}

	if err := initTUILogging(); err != nil {
		return fmt.Errorf("failed to initialize TUI logging: %w", err)
	}

	store := openCache(c)
	if store != nil {
		defer store.Close()
	}

	opts := tui.Options{
		Source:    source,
		OutputDir: c.OutputDir,
		Workers:   c.Workers,
		WithMeta:  c.WithMeta || browseFlags.withMeta,
		DryRun:    browseFlags.dryRun,
		Cache:     store,
		Manifest:  openManifest(c),
		Watch:     browseFlags.watch,
		Debounce:  c.Watch.Debounce,
	}
	if browseFlags.output != "" {
		opts.OutputDir = browseFlags.output
	}

	return tui.Run(ctx, opts)
}

// errNoPackage is returned when discovery finds nothing to open.
var errNoPackage = errors.New("no .unitypackage found")

// discoverPackage returns the only package beneath root.
func discoverPackage(ctx context.Context, root string, exclude []string) (string, error) {
	res, err := finder.Find(ctx, root, finder.Options{Exclude: exclude})
	if err != nil {
		return "", fmt.Errorf("failed to search for packages: %w", err)
	}

	switch len(res.Packages) {
	case 0:
		return "", fmt.Errorf("%w in %s; pass a package path", errNoPackage, res.Root)
	case 1:
		return res.Packages[0].Path, nil
	}

	names := make([]string, 0, len(res.Packages))
	for _, p := range res.Packages {
		names = append(names, "  "+p.Path)
	}
	return "", fmt.Errorf("found %d packages, pass one of:\n%s", len(res.Packages), strings.Join(names, "\n"))
}

// closeLogging flushes the log file after every command.
func closeLogging(_ *cobra.Command, _ []string) error {
	return logging.Close()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...any) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...any) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
