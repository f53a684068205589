package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jamesainslie/unipack/pkg/unipack/output"
	"github.com/jamesainslie/unipack/pkg/unipack/tree"
	"github.com/jamesainslie/unipack/pkg/unipack/unitypkg"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <package>",
	Short: "Print the assets of a package",
	Long: `Print the logical asset tree of a package without extracting it.

Available formats: ` + strings.Join(output.Available(), ", ") + `

Examples:
  unipack list Foo.unitypackage
  unipack list -f json Foo.unitypackage
  unipack list --type scripts --sort size Foo.unitypackage
  unipack list --template '{{range .Files}}{{.GUID}} {{.Path}}{{"\n"}}{{end}}' Foo.unitypackage`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

var (
	listFilter   filterFlags
	listFormat   string
	listTemplate string
)

func init() {
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "", "output format (default from config)")
	listCmd.Flags().StringVar(&listTemplate, "template", "", "Go template applied to the listing")
	listFilter.register(listCmd.Flags(), true)
	rootCmd.AddCommand(listCmd)
}

// runList parses the package and prints it with the selected formatter.
func runList(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := listFilter.build()
	if err != nil {
		return fmt.Errorf("failed to build filter: %w", err)
	}

	formatter, err := selectFormatter(listFormat, c.Format, listTemplate)
	if err != nil {
		return err
	}

	store := openCache(c)
	if store != nil {
		defer store.Close()
	}

	var opts []unitypkg.Option
	if store != nil {
		opts = append(opts, unitypkg.WithCache(store))
	}
	pkg, err := unitypkg.Parse(cmd.Context(), args[0], opts...)
	if err != nil {
		return fmt.Errorf("failed to read package: %w", err)
	}
	printVerbose("Parsed %d assets in %s (cached=%t)", len(pkg.Records), pkg.Duration, pkg.Cached)

	records := f.Apply(pkg.Records)
	listing := output.NewListing(pkg.Source, records)
	listing.Unresolved = pkg.Unresolved
	listing.Stats = output.Stats{
		Entries:  pkg.Entries,
		Ignored:  pkg.Ignored,
		Duration: pkg.Duration,
		Cached:   pkg.Cached,
	}
	if f.Empty() && len(records) == len(pkg.Records) {
		listing.Tree = pkg.Tree
	} else {
		listing.Tree = tree.FromRecords(records)
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, listing); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

// selectFormatter resolves --format and --template. A template always wins.
func selectFormatter(format, fallback, tmpl string) (output.Formatter, error) {
	if tmpl != "" {
		return output.NewTemplateFormatter(tmpl), nil
	}
	if format == "" {
		format = fallback
	}
	if format == "" {
		format = "pretty"
	}
	formatter, err := output.Get(format)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(output.Available(), ", "))
	}
	return formatter, nil
}
