// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mpetrov/bookmark-engine/internal/classify"
	"github.com/mpetrov/bookmark-engine/internal/container"
	"github.com/mpetrov/bookmark-engine/internal/discover"
	"github.com/mpetrov/bookmark-engine/internal/github"
	"github.com/mpetrov/bookmark-engine/internal/llm"
	"github.com/mpetrov/bookmark-engine/internal/logging"
	"github.com/mpetrov/bookmark-engine/internal/pipeline"
	"github.com/mpetrov/bookmark-engine/internal/sandbox"
	"github.com/mpetrov/bookmark-engine/internal/synthesize"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

const defaultUserAgent = "bookmark-engine/0.1"

func newLogger() zerolog.Logger {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	return logging.New(os.Stderr, level)
}

// engineConfig assembles the pipeline configuration from the config file,
// environment, and stored secrets.
func engineConfig() types.PipelineConfig {
	ai := types.AIConfig{
		Model:      viper.GetString("ai.model"),
		APIKey:     secretDefault("gemini-api-key", viper.GetString("ai.api_key")),
		MaxRetries: viper.GetInt("ai.max_retries"),
	}
	httpCfg := types.HTTPConfig{
		Timeout:   viper.GetDuration("http.timeout"),
		UserAgent: defaultUserAgent,
	}

	cfg := types.PipelineConfig{
		Classifier: types.ClassifierConfig{AIConfig: ai},
		Discovery: types.DiscoveryConfig{
			HTTPConfig: httpCfg,
			AIConfig:   ai,
			Token:      secretDefault("github-token", viper.GetString("discovery.token")),
		},
		Sandbox: types.SandboxConfig{
			HTTPConfig:    httpCfg,
			AIConfig:      ai,
			SandboxAPIKey: secretDefault("sandbox-api-key", viper.GetString("sandbox.api_key")),
			Image:         viper.GetString("sandbox.image"),
			WorkDir:       viper.GetString("sandbox.work_dir"),
		},
		Synthesis: types.SynthesisConfig{AIConfig: ai},
		Notes: types.NotesConfig{
			HTTPConfig: httpCfg,
			Token:      secretDefault("notion-token", viper.GetString("notes.token")),
			DatabaseID: secretDefault("notion-database-id", viper.GetString("notes.database_id")),
		},
		Source: types.SourceConfig{
			HTTPConfig:    httpCfg,
			APIKey:        secretDefault("tweetsmash-api-key", viper.GetString("source.api_key")),
			WebhookSecret: secretDefault("webhook-secret", viper.GetString("source.webhook_secret")),
		},
		Jobs: types.JobsConfig{
			Path:         viper.GetString("jobs.path"),
			CacheTTL:     viper.GetDuration("jobs.cache_ttl"),
			ProcessedTTL: viper.GetDuration("jobs.processed_ttl"),
		},
		Server: types.ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Options: types.DefaultPipelineOptions(),
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	return cfg
}

// newOrchestrator wires the four stages from the configuration. The returned
// cleanup closes the model client when one was created.
func newOrchestrator(ctx context.Context, cfg types.PipelineConfig, log zerolog.Logger) (*pipeline.Orchestrator, func(), error) {
	cleanup := func() {}

	var completer llm.Completer
	if cfg.Classifier.APIKey != "" {
		gemini, err := llm.NewGemini(ctx, cfg.Classifier.AIConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("creating model client: %w", err)
		}
		completer = gemini
		cleanup = func() { gemini.Close() }
	} else {
		log.Warn().Msg("no model API key configured, using heuristic fallbacks")
	}

	executor, err := newSandboxExecutor(cfg.Sandbox, log)
	if err != nil {
		log.Warn().Err(err).Msg("no sandbox backend available, execution stage will fail soft")
	}

	orchestrator := pipeline.New(
		classify.New(completer, logging.Named(log, "classify")),
		discover.New(github.NewClient(cfg.Discovery), completer, logging.Named(log, "discover")),
		sandbox.New(executor, completer, logging.Named(log, "sandbox")),
		synthesize.New(completer, logging.Named(log, "synthesize")),
		logging.Named(log, "pipeline"),
	)
	return orchestrator, cleanup, nil
}

// newSandboxExecutor prefers the remote execution service and falls back to
// a local container runtime.
func newSandboxExecutor(cfg types.SandboxConfig, log zerolog.Logger) (sandbox.Executor, error) {
	if cfg.SandboxAPIKey != "" {
		return sandbox.NewRemote(cfg)
	}

	rt, err := container.DetectRuntime()
	if err != nil {
		return nil, err
	}
	log.Debug().Str("runtime", rt.Name()).Msg("using local container sandbox")
	return sandbox.NewLocal(rt, cfg), nil
}

// pipelineOptionsFromFlags reads the per-run knobs shared by process and serve.
func pipelineOptionsFromFlags(discovery, execution, style string, maxRepos int, stageTimeout time.Duration) types.PipelineOptions {
	opts := types.DefaultPipelineOptions()
	if discovery != "" {
		opts.DiscoveryStrategy = types.DiscoveryStrategy(discovery)
	}
	if execution != "" {
		opts.ExecutionStrategy = types.ExecutionStrategy(execution)
	}
	if style != "" {
		opts.SynthesisStyle = types.SynthesisStyle(style)
	}
	if maxRepos > 0 {
		opts.MaxRepositories = maxRepos
	}
	if stageTimeout > 0 {
		opts.StageTimeout = stageTimeout
	}
	return opts
}
