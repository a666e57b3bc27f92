package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognia-dev/cognia-launcher/internal/cache"
)

// newCacheCommand creates the "cache" command tree: inspecting and
// pruning the download cache index behind spec.md §4.2's cache
// operations.
func newCacheCommand(db *cache.DB) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune the download cache",
	}

	cmd.AddCommand(
		newCacheListCommand(db),
		newCacheStatsCommand(db),
		newCacheCleanCommand(db),
	)

	return cmd
}

func newCacheListCommand(db *cache.DB) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := db.List()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tTYPE\tSIZE\tHITS")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", e.Key, e.EntryType, cache.FormatSize(uint64(e.Size)), e.HitCount)
			}
			return w.Flush()
		},
	}
}

func newCacheStatsCommand(db *cache.DB) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the cache index",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := db.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "Entries:   %d (%d downloads, %d metadata)\n", s.EntryCount, s.DownloadCount, s.MetadataCount)
			fmt.Fprintf(cmd.OutOrStdout(), "Total size: %s\n", cache.FormatSize(uint64(s.TotalSize)))
			return nil
		},
	}
}

func newCacheCleanCommand(db *cache.DB) *cobra.Command {
	var maxSize int64
	var expiredOnly bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove expired entries and/or evict down to a size budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := db.RemoveExpired(time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries.\n", removed)

			if expiredOnly || maxSize <= 0 {
				return nil
			}

			evicted, err := db.EvictToSize(maxSize)
			if err != nil {
				return err
			}
			var freed int64
			for _, e := range evicted {
				freed += e.Size
				_ = os.Remove(e.FilePath)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Evicted %d entries, freeing %s.\n", len(evicted), cache.FormatSize(uint64(freed)))
			return nil
		},
	}

	cmd.Flags().Int64Var(&maxSize, "max-size", 0, "Evict least-recently-used entries until the index is at or under this size, in bytes")
	cmd.Flags().BoolVar(&expiredOnly, "expired-only", false, "Only remove expired entries, skip size-based eviction")
	return cmd
}
