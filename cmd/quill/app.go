package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/conversation"
	"mercator-hq/quill/pkg/copywriter"
	"mercator-hq/quill/pkg/ledger"
	"mercator-hq/quill/pkg/providers"
	"mercator-hq/quill/pkg/providers/openai"
	"mercator-hq/quill/pkg/relay"
	"mercator-hq/quill/pkg/scheduler"
	"mercator-hq/quill/pkg/telemetry/metrics"
)

// app holds the components assembled from a configuration.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	metrics  *metrics.Collector
	provider *openai.Provider

	// storage and recorder are nil when the ledger is disabled.
	storage  ledger.Storage
	recorder *ledger.Recorder

	sessions   *conversation.Manager
	agent      *relay.Agent
	copywriter *copywriter.Service
	scheduler  *scheduler.Scheduler
}

// newUpstream creates the chat completion client from cfg.Upstream.
func newUpstream(cfg *config.Config, logger *slog.Logger) (*openai.Provider, error) {
	u := cfg.Upstream
	return openai.NewProvider(providers.ProviderConfig{
		Name:                u.Name,
		BaseURL:             u.BaseURL,
		APIKey:              u.APIKey,
		Timeout:             u.Timeout,
		MaxRetries:          u.MaxRetries,
		MaxIdleConns:        u.MaxIdleConns,
		MaxIdleConnsPerHost: u.MaxIdleConnsPerHost,
		IdleConnTimeout:     u.IdleConnTimeout,
	}, logger)
}

// newApp wires every component. Background jobs are registered with the
// scheduler but nothing runs until the scheduler is started.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry()),
		scheduler: scheduler.New(logger),
	}

	provider, err := newUpstream(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}
	a.provider = provider

	if cfg.Ledger.Enabled {
		storage, err := ledger.Open(cfg.Ledger, logger)
		if err != nil {
			_ = provider.Close()
			return nil, fmt.Errorf("failed to open ledger: %w", err)
		}
		a.storage = storage
		a.recorder = ledger.NewRecorder(storage, ledger.RecorderConfig{}, logger)

		pruner := ledger.NewPruner(storage, ledger.RetentionFromConfig(cfg.Ledger), logger)
		if err := pruner.Schedule(a.scheduler); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to schedule ledger pruning: %w", err)
		}
	}

	a.sessions = conversation.NewManager(conversation.Config{
		MaxMessages:  cfg.Conversation.MaxMessages,
		SystemPrompt: cfg.Conversation.SystemPrompt,
		IdleTTL:      cfg.Conversation.IdleTTL,
		ReapSchedule: cfg.Conversation.ReapSchedule,
	}, logger, a.metrics)
	if err := a.sessions.Schedule(a.scheduler); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to schedule session reaping: %w", err)
	}

	r := relay.New(provider, relay.Config{
		Model:       cfg.Upstream.Model,
		Temperature: cfg.Upstream.Temperature,
	}, logger, a.metrics)
	a.agent = relay.NewAgent(r, a.recorder, logger)
	a.copywriter = copywriter.NewService(provider, cfg.Copywriter, a.recorder, logger, a.metrics)

	return a, nil
}

// Close stops the scheduler, drains the recorder and closes the ledger and
// the upstream client.
func (a *app) Close() error {
	a.scheduler.Stop()

	var errs []error
	if a.recorder != nil {
		errs = append(errs, a.recorder.Close())
	}
	if a.storage != nil {
		errs = append(errs, a.storage.Close())
	}
	if a.provider != nil {
		errs = append(errs, a.provider.Close())
	}
	return errors.Join(errs...)
}
