// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mpetrov/bookmark-engine/internal/jobs"
	"github.com/mpetrov/bookmark-engine/internal/notes"
	"github.com/mpetrov/bookmark-engine/internal/pipeline"
	"github.com/mpetrov/bookmark-engine/internal/webhook"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Receive bookmark webhooks and process them",
	Long: `Serve starts an HTTP server that receives bookmark events from the source
service and runs each delivered bookmark through the enrichment pipeline.
Successful runs are persisted to the notes database when one is configured.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "bind address (default all interfaces)")
	serveCmd.Flags().Int("port", 0, "listen port (default 8080)")

	rootCmd.AddCommand(serveCmd)
}

// webhookPipeline runs delivered bookmarks through the orchestrator.
type webhookPipeline struct {
	orchestrator *pipeline.Orchestrator
	store        *jobs.Store
	notes        *notes.Client
	opts         types.PipelineOptions
	saveNotes    bool
	log          zerolog.Logger
}

func (p *webhookPipeline) HandleBookmark(bm types.Bookmark) {
	ctx := context.Background()

	processed, err := p.store.WasProcessed(ctx, bm.ID)
	if err != nil {
		p.log.Error().Err(err).Str("bookmark", bm.ID).Msg("processed check failed")
		return
	}
	if processed {
		p.log.Info().Str("bookmark", bm.ID).Msg("already processed, ignoring delivery")
		return
	}

	report, jobID, err := processOne(ctx, p.orchestrator, p.store, bm, p.opts)
	if err != nil {
		p.log.Error().Err(err).Str("bookmark", bm.ID).Msg("pipeline run failed")
		return
	}
	if !report.Success {
		p.log.Warn().
			Str("bookmark", bm.ID).
			Str("failed_stage", report.FailedStage).
			Msg("pipeline run unsuccessful")
		return
	}

	if p.saveNotes {
		page, err := p.notes.Save(ctx, notes.SaveRequest{
			Title:   report.Synthesis.Title,
			URL:     bm.Link,
			Content: report.Synthesis.Content,
			Tags:    report.Synthesis.Tags,
		})
		if err != nil {
			p.log.Warn().Err(err).Str("bookmark", bm.ID).Msg("saving note failed")
			return
		}
		if err := p.store.AttachNote(ctx, jobID, page.ID, page.URL); err != nil {
			p.log.Warn().Err(err).Str("job", jobID).Msg("recording note on job failed")
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()
	cfg := engineConfig()

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}

	orchestrator, cleanup, err := newOrchestrator(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := jobs.NewStore(cfg.Jobs)
	if err != nil {
		return err
	}
	defer store.Close()

	handler := &webhookPipeline{
		orchestrator: orchestrator,
		store:        store,
		notes:        notes.NewClient(cfg.Notes),
		opts:         cfg.Options,
		saveNotes:    cfg.Notes.Token != "" && cfg.Notes.DatabaseID != "",
		log:          log,
	}

	server := webhook.NewServer(cfg.Source, handler, log)
	return server.ListenAndServe(cfg.Server)
}
