package main

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/unipack/pkg/unipack/cache"
	"github.com/jamesainslie/unipack/pkg/unipack/types"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the package index cache",
	Long: `Commands for managing the package index cache.

The cache stores the asset index of each package read by list or the
browser, keyed by path and invalidated when the file's size or modification
time changes. It lives in the XDG cache directory (typically
~/.cache/unipack/index).`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached packages",
	RunE:  runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached indexes",
	Long:  `Removes every cached index. The next read of each package decodes it in full.`,
	RunE:  runCacheClear,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Long:  `Prints the path to the cache directory.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), c.Cache.Path)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

// openCacheForCommand opens the cache regardless of --no-cache.
func openCacheForCommand() (*cache.Cache, error) {
	c, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := cache.Open(c.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return store, nil
}

// runCacheList prints one line per cached index.
func runCacheList(cmd *cobra.Command, _ []string) error {
	store, err := openCacheForCommand()
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list cache: %w", err)
	}
	if len(summaries) == 0 {
		printInfo("Cache is empty.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%-8s  %-12s  %-16s  %s\n", "ASSETS", "SIZE", "INDEXED", "PATH")
	fmt.Fprintln(out, strings.Repeat("-", 80))

	var assets int
	var bytes int64
	for _, s := range summaries {
		fmt.Fprintf(out, "%-8d  %-12s  %-16s  %s\n",
			s.Assets,
			types.FormatSize(s.Bytes),
			s.CreatedAt.Format("2006-01-02 15:04"),
			s.Path)
		assets += s.Assets
		bytes += s.Bytes
	}
	fmt.Fprintln(out, strings.Repeat("-", 80))
	printInfo("%d packages, %s assets, %s indexed", len(summaries), types.FormatCount(int64(assets)), types.FormatSize(bytes))
	return nil
}

// runCacheClear removes every cached index.
func runCacheClear(_ *cobra.Command, _ []string) error {
	store, err := openCacheForCommand()
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.Clear()
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	if removed == 0 {
		printInfo("Cache is already empty.")
		return nil
	}
	printInfo("Cache cleared (%d packages).", removed)
	return nil
}
