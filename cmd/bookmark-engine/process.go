// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/mpetrov/bookmark-engine/internal/jobs"
	"github.com/mpetrov/bookmark-engine/internal/notes"
	"github.com/mpetrov/bookmark-engine/internal/pipeline"
	"github.com/mpetrov/bookmark-engine/internal/source"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

var processCmd = &cobra.Command{
	Use:   "process [bookmark-ids...]",
	Short: "Run the enrichment pipeline over bookmarks",
	Long: `Process fetches each bookmark from the source API and runs it through the
enrichment pipeline: classification, repository resolution, sandboxed
execution, and synthesis. Already-processed bookmarks are skipped unless
--force is given.

With --sample, a built-in bookmark exercises the pipeline end to end without
touching the source API.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().Bool("sample", false, "process the built-in sample bookmark")
	processCmd.Flags().Bool("force", false, "reprocess bookmarks even if already processed")
	processCmd.Flags().Bool("save", false, "persist the synthesized note to the notes database")
	processCmd.Flags().String("discovery", "", "discovery strategy (aggressive, conservative)")
	processCmd.Flags().String("execution", "", "execution strategy (quick, thorough)")
	processCmd.Flags().String("style", "", "synthesis style (detailed, summary, actionable)")
	processCmd.Flags().Int("max-repos", 0, "maximum repositories to execute (default 3)")
	processCmd.Flags().Duration("stage-timeout", 0, "per-stage deadline (default 60s)")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	sample, _ := cmd.Flags().GetBool("sample")
	if !sample && len(args) == 0 {
		return fmt.Errorf("provide one or more bookmark ids, or use --sample")
	}

	force, _ := cmd.Flags().GetBool("force")
	save, _ := cmd.Flags().GetBool("save")
	discovery, _ := cmd.Flags().GetString("discovery")
	execution, _ := cmd.Flags().GetString("execution")
	style, _ := cmd.Flags().GetString("style")
	maxRepos, _ := cmd.Flags().GetInt("max-repos")
	stageTimeout, _ := cmd.Flags().GetDuration("stage-timeout")

	log := newLogger()
	cfg := engineConfig()
	opts := pipelineOptionsFromFlags(discovery, execution, style, maxRepos, stageTimeout)
	ctx := cmd.Context()

	orchestrator, cleanup, err := newOrchestrator(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := jobs.NewStore(cfg.Jobs)
	if err != nil {
		return err
	}
	defer store.Close()

	var bookmarks []types.Bookmark
	if sample {
		bookmarks = []types.Bookmark{pipeline.SampleBookmark()}
	} else {
		client := source.NewClient(cfg.Source)
		for _, id := range args {
			bm, err := client.Bookmark(ctx, id)
			if err != nil {
				return err
			}
			bookmarks = append(bookmarks, bm)
		}
	}

	failures := 0
	for _, bm := range bookmarks {
		if !force {
			processed, err := store.WasProcessed(ctx, bm.ID)
			if err != nil {
				return err
			}
			if processed {
				fmt.Fprintf(os.Stdout, "skipped: %s (already processed)\n", bm.ID)
				continue
			}
		}

		report, jobID, err := processOne(ctx, orchestrator, store, bm, opts)
		if err != nil {
			return err
		}
		if !report.Success {
			failures++
		}

		if save && report.Success {
			if err := saveNote(ctx, cfg, store, jobID, bm, report); err != nil {
				log.Warn().Err(err).Str("bookmark", bm.ID).Msg("saving note failed")
			}
		}

		out, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		os.Stdout.Write(out)
	}

	if failures > 0 {
		return fmt.Errorf("%d bookmark(s) failed processing", failures)
	}
	return nil
}

func processOne(ctx context.Context, orchestrator *pipeline.Orchestrator, store *jobs.Store, bm types.Bookmark, opts types.PipelineOptions) (types.PipelineReport, string, error) {
	job, err := store.CreateJob(ctx, bm.ID)
	if err != nil {
		return types.PipelineReport{}, "", err
	}
	if err := store.StartJob(ctx, job.ID); err != nil {
		return types.PipelineReport{}, "", err
	}

	report, err := orchestrator.ProcessBookmark(ctx, bm, opts)
	if err != nil {
		return types.PipelineReport{}, "", err
	}

	if err := store.CompleteJob(ctx, job.ID, report); err != nil {
		return types.PipelineReport{}, "", err
	}
	return report, job.ID, nil
}

// saveNote persists the synthesized note and records the page on the job.
func saveNote(ctx context.Context, cfg types.PipelineConfig, store *jobs.Store, jobID string, bm types.Bookmark, report types.PipelineReport) error {
	if report.Synthesis == nil {
		return fmt.Errorf("no synthesis to save")
	}

	client := notes.NewClient(cfg.Notes)
	page, err := client.Save(ctx, notes.SaveRequest{
		Title:   report.Synthesis.Title,
		URL:     bm.Link,
		Content: report.Synthesis.Content,
		Tags:    report.Synthesis.Tags,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "saved note: %s\n", page.URL)

	return store.AttachNote(ctx, jobID, page.ID, page.URL)
}
