package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dh1101/llm-term/internal/cache"
	"github.com/dh1101/llm-term/internal/logging"
	"github.com/fatih/color"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or edit the prompt cache",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cached prompts and their commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache()
			if err != nil {
				return err
			}
			listCache(os.Stdout, c)
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <prompt>",
		Short: "Remove one prompt from the cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache()
			if err != nil {
				return err
			}
			return removeFromCache(os.Stdout, c, strings.Join(args, " "))
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache()
			if err != nil {
				return err
			}
			return clearCache(os.Stdout, c)
		},
	}

	cacheCmd.AddCommand(listCmd, removeCmd, clearCmd)
	return cacheCmd
}

func openCache() (*cache.Cache, error) {
	paths, err := resolvePaths(logging.New(os.Stderr, debug))
	if err != nil {
		return nil, err
	}
	return cache.Load(paths.Cache)
}

func listCache(w io.Writer, c *cache.Cache) {
	entries := c.Entries()
	if len(entries) == 0 {
		color.New(color.FgYellow).Fprintln(w, "The cache is empty.")
		return
	}

	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	for _, e := range entries {
		bold.Fprintf(w, "%s\n", e.Prompt)
		cyan.Fprintf(w, "  %s\n", e.Command)
	}
	fmt.Fprintf(w, "\n%d cached prompt(s) in %s\n", len(entries), c.Path())
}

func removeFromCache(w io.Writer, c *cache.Cache, prompt string) error {
	if !c.Remove(prompt) {
		color.New(color.FgYellow).Fprintf(w, "No cache entry for %q\n", prompt)
		return nil
	}
	if err := c.Save(); err != nil {
		return fmt.Errorf("failed to save cache: %w", err)
	}
	color.New(color.FgGreen).Fprintf(w, "Removed %q from the cache\n", prompt)
	return nil
}

func clearCache(w io.Writer, c *cache.Cache) error {
	n := c.Len()
	c.Clear()
	if err := c.Save(); err != nil {
		return fmt.Errorf("failed to save cache: %w", err)
	}
	color.New(color.FgGreen).Fprintf(w, "Removed %d cache entries\n", n)
	return nil
}
