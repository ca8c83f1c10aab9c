// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/mpetrov/bookmark-engine/internal/jobs"
	"github.com/mpetrov/bookmark-engine/internal/source"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "List recent bookmarks from the source API",
	Long: `Fetch lists recent bookmarks. Listings are cached locally for a short
window so repeated invocations do not hit the source API.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Int("limit", 10, "number of bookmarks to fetch (max 100)")
	fetchCmd.Flags().String("cursor", "", "pagination cursor from a previous fetch")
	fetchCmd.Flags().Bool("no-cache", false, "bypass the local listing cache")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	cursor, _ := cmd.Flags().GetString("cursor")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	cfg := engineConfig()
	ctx := cmd.Context()

	store, err := jobs.NewStore(cfg.Jobs)
	if err != nil {
		return err
	}
	defer store.Close()

	cacheKey := fmt.Sprintf("bookmarks:%d:%s", limit, cursor)
	if !noCache {
		cached, ok, err := store.CachedBookmarks(ctx, cacheKey)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintln(os.Stderr, "Using cached listing")
			return printBookmarks(cached)
		}
	}

	client := source.NewClient(cfg.Source)
	page, err := client.FetchBookmarks(ctx, limit, cursor)
	if err != nil {
		return err
	}

	if err := store.CacheBookmarks(ctx, cacheKey, page.Bookmarks); err != nil {
		fmt.Fprintf(os.Stderr, "warning: caching listing failed: %v\n", err)
	}

	if err := printBookmarks(page.Bookmarks); err != nil {
		return err
	}
	if page.HasMore {
		fmt.Fprintf(os.Stdout, "\nnext cursor: %s\n", page.NextCursor)
	}
	return nil
}

// bookmarkListing is the compact per-bookmark view fetch prints.
type bookmarkListing struct {
	ID     string   `yaml:"id"`
	Author string   `yaml:"author"`
	Text   string   `yaml:"text"`
	URLs   []string `yaml:"urls,omitempty"`
}

func printBookmarks(bookmarks []types.Bookmark) error {
	listings := make([]bookmarkListing, 0, len(bookmarks))
	for _, bm := range bookmarks {
		listings = append(listings, bookmarkListing{
			ID:     bm.ID,
			Author: "@" + bm.Author.Username,
			Text:   bm.Text,
			URLs:   source.ExtractURLs(bm.Text),
		})
	}

	out, err := yaml.Marshal(listings)
	if err != nil {
		return fmt.Errorf("encoding bookmarks: %w", err)
	}
	os.Stdout.Write(out)
	fmt.Fprintf(os.Stdout, "\n%d bookmark(s)\n", len(listings))
	return nil
}
