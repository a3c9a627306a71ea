package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-engine/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-engine/internal/logger"
	"github.com/custodia-labs/sercha-engine/internal/sources/filesystem"
)

// watchDebounce batches filesystem events before triggering a re-pass.
const watchDebounce = 2 * time.Second

var indexWatch bool

var indexCmd = &cobra.Command{
	Use:   "index [collection]",
	Short: "Index a collection",
	Long: `Runs a full indexing pass over the named collection: chunking,
change detection, embedding (with cache reuse) and store updates.
Unchanged content is never re-embedded.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "keep watching the source and re-index on changes")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	name := args[0]
	ctx := cmd.Context()

	col, err := collectionService.Get(ctx, name)
	if err != nil {
		return err
	}
	if col.Kind != "filesystem" {
		return fmt.Errorf("unsupported source kind %q", col.Kind)
	}

	source := filesystem.New(*col)
	defer source.Close()

	report, err := indexService.IndexCollection(ctx, name, source)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	printIndexReport(cmd, report)

	if !indexWatch {
		return nil
	}
	return watchAndReindex(ctx, cmd, name, source)
}

// watchAndReindex re-runs the indexing pass whenever the source reports
// changes, debounced so bursts of events collapse into one pass.
func watchAndReindex(ctx context.Context, cmd *cobra.Command, name string, source *filesystem.Source) error {
	changes, err := source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Printf("Watching for changes (Ctrl-C to stop)...\n")

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				fire = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			report, err := indexService.IndexCollection(ctx, name, source)
			if err != nil {
				logger.Warn("re-index failed: %v", err)
				continue
			}
			printIndexReport(cmd, report)
		}
	}
}

func printIndexReport(cmd *cobra.Command, report *driving.IndexReport) {
	cmd.Printf("Indexed %q: %d documents, %d chunks (%d embedded, %d reused, %d removed)\n",
		report.Collection, report.Documents, report.Chunks,
		report.Embedded, report.Reused, report.Removed)

	if report.DocumentsFailed > 0 {
		cmd.Printf("  %d documents failed and will be retried next pass\n", report.DocumentsFailed)
	}
	for _, w := range report.Warnings {
		cmd.Printf("  warning: %s: %s\n", w.DocumentPath, w.Message)
	}
}
