package main

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/unipack/pkg/unipack/config"
	"github.com/jamesainslie/unipack/pkg/unipack/manifest"
	"github.com/jamesainslie/unipack/pkg/unipack/types"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View extraction history",
	Long: `View the history of extractions.

Every extraction, including dry runs, is recorded with the files it wrote
and the sha256 digest of each.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a specific extraction",
	Long:  `Display one extraction by its ID. A unique prefix of the ID is enough.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getManifest returns the manifest at the configured path, even when
// recording is disabled.
func getManifest() (*manifest.Manifest, error) {
	c, err := loadConfig()
	if err != nil {
		dir, dirErr := config.ManifestDir()
		if dirErr != nil {
			return nil, fmt.Errorf("failed to get manifest directory: %w", dirErr)
		}
		return manifest.New(dir)
	}
	return manifest.New(c.Manifest.Path)
}

// runHistory lists recent extractions.
func runHistory(cmd *cobra.Command, _ []string) error {
	m, err := getManifest()
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}

	entries, err := m.List(0)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'unipack extract <package>' to extract assets.")
		return nil
	}

	total := len(entries)
	if historyLimit > 0 && total > historyLimit {
		entries = entries[:historyLimit]
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%-44s  %-8s  %-8s  %-12s  %s\n", "ID", "TYPE", "FILES", "SIZE", "SOURCE")
	fmt.Fprintln(out, strings.Repeat("-", 100))

	for _, entry := range entries {
		files := fmt.Sprintf("%d", entry.Summary.TotalFiles)
		if !entry.Succeeded() {
			files += "!"
		}
		fmt.Fprintf(out, "%-44s  %-8s  %-8s  %-12s  %s\n",
			truncateString(entry.ID, 44),
			entry.Operation,
			files,
			types.FormatSize(entry.Summary.TotalBytes),
			truncateString(entry.Source, 40),
		)
	}

	fmt.Fprintln(out, strings.Repeat("-", 100))
	fmt.Fprintf(out, "\nShowing %d of %d entries. Use --limit to see more.\n", len(entries), total)
	fmt.Fprintln(out, "Use 'unipack history show <id>' for details on a specific entry.")

	return nil
}

// runHistoryShow displays one extraction.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	m, err := getManifest()
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}

	entry, err := m.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nExtraction Details")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "ID:         %s\n", entry.ID)
	fmt.Fprintf(out, "Timestamp:  %s\n", entry.Timestamp.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Operation:  %s\n", entry.Operation)
	fmt.Fprintf(out, "Source:     %s\n", entry.Source)
	fmt.Fprintf(out, "Output:     %s\n", entry.OutputDir)
	fmt.Fprintf(out, "Selection:  %s\n", strings.Join(entry.Selection, ", "))
	fmt.Fprintf(out, "Files:      %d\n", entry.Summary.TotalFiles)
	fmt.Fprintf(out, "Total Size: %s\n", types.FormatSize(entry.Summary.TotalBytes))

	if len(entry.Files) > 0 {
		fmt.Fprintln(out, "\nFiles:")
		fmt.Fprintln(out, strings.Repeat("-", 60))
		fmt.Fprintf(out, "%-12s  %-20s  %s\n", "SIZE", "DIGEST", "PATH")
		fmt.Fprintln(out, strings.Repeat("-", 60))

		limit := min(len(entry.Files), 50)
		for _, file := range entry.Files[:limit] {
			short := ""
			if file.Digest != "" {
				short = truncateString(file.Digest.Encoded(), 12)
			}
			fmt.Fprintf(out, "%-12s  %-20s  %s\n", types.FormatSize(file.Size), short, file.Path)
		}
		if len(entry.Files) > limit {
			fmt.Fprintf(out, "\n... and %d more files\n", len(entry.Files)-limit)
		}
	}

	if len(entry.Failures) > 0 {
		fmt.Fprintf(out, "\nFailures (%d):\n", len(entry.Failures))
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, f := range entry.Failures {
			if f.Path == "" {
				fmt.Fprintf(out, "  %s\n", f.Error)
				continue
			}
			fmt.Fprintf(out, "  %s: %s\n", f.Path, f.Error)
		}
	}

	return nil
}

// runHistoryClean removes entries past the retention period.
func runHistoryClean(_ *cobra.Command, _ []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}

	m, err := manifest.New(c.Manifest.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}

	retentionDays := c.Manifest.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)

	removed, err := m.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("Removed %d entries.", removed)
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
