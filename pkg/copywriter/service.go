package copywriter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/ledger"
	"mercator-hq/quill/pkg/providers"
	"mercator-hq/quill/pkg/telemetry/logging"
	"mercator-hq/quill/pkg/telemetry/metrics"
)

// promptLogLength bounds how much of a prompt or copy is logged.
const promptLogLength = 200

// SceneRequest asks for one copy.
type SceneRequest struct {
	Scene  Scene  `json:"scene"`
	Fields Fields `json:"config"`
}

// Copy is a generated copy.
type Copy struct {
	Copy string `json:"copy"`
}

// Service generates copies with a single non-streamed completion.
type Service struct {
	provider providers.Provider
	config   config.CopywriterConfig
	recorder *ledger.Recorder
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// NewService creates a copy service. recorder and collector may be nil.
func NewService(provider providers.Provider, cfg config.CopywriterConfig, recorder *ledger.Recorder, logger *slog.Logger, collector *metrics.Collector) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider: provider,
		config:   cfg,
		recorder: recorder,
		logger:   logger.With("component", "copywriter"),
		metrics:  collector,
	}
}

// Generate renders the scene prompt and asks the model for a copy.
// Upstream errors are returned wrapped.
func (s *Service) Generate(ctx context.Context, req SceneRequest) (*Copy, error) {
	start := time.Now()
	prompt := Render(req.Scene, req.Fields)

	if def, ok := Lookup(req.Scene); ok {
		if missing := def.Missing(req.Fields); len(missing) > 0 {
			s.logger.WarnContext(ctx, "required scene fields missing", "scene", req.Scene, "fields", missing)
		}
	} else {
		s.logger.WarnContext(ctx, "unknown scene, using default prompt", "scene", req.Scene)
	}

	s.logger.InfoContext(ctx, "generating copy",
		"scene", req.Scene,
		"prompt", logging.Truncate(prompt, promptLogLength),
	)

	resp, err := s.provider.SendCompletion(ctx, &providers.CompletionRequest{
		Model: s.config.Model,
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: s.config.SystemPrompt},
			{Role: providers.RoleUser, Content: prompt},
		},
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.MaxTokens,
	})
	latency := time.Since(start)
	s.metrics.RecordUpstreamCall(s.provider.GetName(), "completion", latency)

	if err != nil {
		errorType := providers.ErrorType(err)
		s.logger.ErrorContext(ctx, "copy generation failed",
			"scene", req.Scene,
			"error", err,
			"error_type", errorType,
		)
		if errorType != "" {
			s.metrics.RecordUpstreamError(s.provider.GetName(), errorType)
		}
		s.metrics.RecordCopyGeneration(s.sceneLabel(req.Scene), "error")
		s.record(ctx, req, prompt, "", ledger.StatusFailed, errorType, latency)
		return nil, fmt.Errorf("generate %q copy: %w", req.Scene, err)
	}

	s.logger.InfoContext(ctx, "copy generated",
		"scene", req.Scene,
		"copy", logging.Truncate(resp.Content, promptLogLength),
		"duration", latency,
	)
	s.metrics.RecordCopyGeneration(s.sceneLabel(req.Scene), "success")
	s.record(ctx, req, prompt, resp.Content, ledger.StatusCompleted, "", latency)

	return &Copy{Copy: resp.Content}, nil
}

func (s *Service) sceneLabel(scene Scene) string {
	if !Known(scene) {
		return "default"
	}
	return string(scene)
}

func (s *Service) record(ctx context.Context, req SceneRequest, prompt, output, status, errorType string, latency time.Duration) {
	s.recorder.Record(&ledger.Record{
		RequestID:   logging.GetRequestID(ctx),
		Kind:        ledger.KindCopy,
		Scene:       s.sceneLabel(req.Scene),
		Model:       s.config.Model,
		Status:      status,
		ErrorType:   errorType,
		InputChars:  len([]rune(prompt)),
		OutputChars: len([]rune(output)),
		CreatedAt:   time.Now(),
		Latency:     latency,
	})
}
