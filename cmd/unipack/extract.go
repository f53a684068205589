package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/jamesainslie/unipack/pkg/unipack/config"
	"github.com/jamesainslie/unipack/pkg/unipack/correlate"
	"github.com/jamesainslie/unipack/pkg/unipack/extract"
	"github.com/jamesainslie/unipack/pkg/unipack/filter"
	"github.com/jamesainslie/unipack/pkg/unipack/manifest"
	"github.com/jamesainslie/unipack/pkg/unipack/selection"
	"github.com/jamesainslie/unipack/pkg/unipack/types"
	"github.com/jamesainslie/unipack/pkg/unipack/unitypkg"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <package> [paths...]",
	Short: "Extract assets without the interactive browser",
	Long: `Extract selected assets from a package into a directory.

Each path selects an asset or a whole directory of the logical tree.
Filters narrow the selection further; with --all they apply to every asset.

Examples:
  unipack extract Foo.unitypackage Assets/Scripts -o ./out
  unipack extract Foo.unitypackage --all --type scripts -o ./out
  unipack extract Foo.unitypackage --all --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

var (
	extractFilter filterFlags
	extractFlags  struct {
		output   string
		all      bool
		withMeta bool
		dryRun   bool
	}
)

// errNoSelection is returned when neither paths nor --all were given.
var errNoSelection = errors.New("no paths given; name paths to extract or pass --all")

func init() {
	extractCmd.Flags().StringVarP(&extractFlags.output, "output", "o", "", "extraction directory (default from config)")
	extractCmd.Flags().BoolVarP(&extractFlags.all, "all", "a", false, "select every asset")
	extractCmd.Flags().BoolVar(&extractFlags.withMeta, "with-meta", false, "also write .meta files")
	extractCmd.Flags().BoolVarP(&extractFlags.dryRun, "dry-run", "d", false, "report what would be written")
	extractFilter.register(extractCmd.Flags(), false)
	rootCmd.AddCommand(extractCmd)
}

// runExtract resolves the selection, writes it and records the outcome.
func runExtract(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}

	source, requested := args[0], args[1:]
	if len(requested) == 0 && !extractFlags.all {
		return errNoSelection
	}

	f, err := extractFilter.build()
	if err != nil {
		return fmt.Errorf("failed to build filter: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	paths := requested
	if extractFlags.all || !f.Empty() {
		store := openCache(c)
		var opts []unitypkg.Option
		if store != nil {
			defer store.Close()
			opts = append(opts, unitypkg.WithCache(store))
		}
		pkg, err := unitypkg.Parse(ctx, source, opts...)
		if err != nil {
			return fmt.Errorf("failed to read package: %w", err)
		}
		paths = resolveSelection(pkg.Records, requested, extractFlags.all, f)
		if len(paths) == 0 {
			return fmt.Errorf("%w: filters matched no assets", unitypkg.ErrEmptySelection)
		}
	}

	req := unitypkg.ExtractRequest{
		Source:    source,
		Paths:     paths,
		OutputDir: c.OutputDir,
		Workers:   c.Workers,
		WithMeta:  c.WithMeta || extractFlags.withMeta,
		DryRun:    extractFlags.dryRun,
		Progress: func(w extract.WrittenFile) {
			printVerbose("wrote %s (%s)", w.Path, types.FormatSize(w.Size))
		},
	}
	if extractFlags.output != "" {
		req.OutputDir = extractFlags.output
	}

	report, extractErr := unitypkg.Extract(ctx, req)
	if report == nil {
		return fmt.Errorf("extraction failed: %w", extractErr)
	}

	recordHistory(c, manifest.Request{Source: source, Selection: paths}, report, extractErr)
	printReport(report)

	var werr *extract.WriteError
	if errors.As(extractErr, &werr) {
		for _, failure := range werr.Failures {
			printError("%s", failure.Error())
		}
		return fmt.Errorf("%d of %d files failed", len(werr.Failures), len(werr.Failures)+len(report.Written))
	}
	return extractErr
}

// resolveSelection narrows records to the requested subtrees (or all of
// them) and then to the filter, returning the surviving paths.
func resolveSelection(records []correlate.Record, requested []string, all bool, f *filter.Filter) []string {
	candidates := records
	if !all {
		byPath := make(map[string]correlate.Record, len(records))
		for _, rec := range records {
			byPath[rec.Path] = rec
		}
		candidates = nil
		for _, item := range extract.Plan(records, selection.FromPaths(requested...)) {
			candidates = append(candidates, byPath[item.Path])
		}
	}
	return f.Paths(candidates)
}

// printReport summarizes what was written.
func printReport(report *extract.Report) {
	verb := "Extracted"
	if report.DryRun {
		verb = "Would extract"
	}
	printInfo("%s %s files (%s) to %s",
		verb,
		types.FormatCount(int64(len(report.Written))),
		types.FormatSize(report.Bytes),
		report.OutputDir)
}

// recordHistory appends the run to the manifest when history is enabled.
func recordHistory(c *config.Config, req manifest.Request, report *extract.Report, extractErr error) {
	m := openManifest(c)
	if m == nil {
		return
	}
	entry, err := m.Record(req, report, extractErr)
	if err != nil {
		printVerbose("failed to record history: %v", err)
		return
	}
	printVerbose("Recorded history entry %s", entry.ID)
}
