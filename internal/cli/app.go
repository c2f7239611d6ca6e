package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"resumecoach/internal/ai"
	"resumecoach/internal/config"
	"resumecoach/internal/errors"
	"resumecoach/internal/extract"
	"resumecoach/internal/observability"
	"resumecoach/internal/prompts"
	"resumecoach/internal/synth"
	"resumecoach/internal/workflow"
)

// app is the workflow stack shared by every command that talks to the
// engine.
type app struct {
	service       *ai.Service
	composer      *prompts.Composer
	machine       *workflow.Machine
	closeRenderer func() error
}

// newApp wires the engine, prompts, extractor and renderer into a machine.
// obs may be nil.
func newApp(cfg *config.Config, logger *errors.Logger, obs *observability.ObservabilityManager) (*app, error) {
	metrics := obs.GetMetrics()

	service, err := ai.NewService(cfg, logger, ai.WithUsageRecorder(func(ctx context.Context, operation string, usage ai.TokenUsage) {
		logger.Debug("AI token usage",
			"operation", operation,
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens,
			"total_tokens", usage.TotalTokens)
		metrics.RecordTokenUsage(ctx, operation, observability.TokenUsage(usage))
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create AI service: %w", err)
	}

	overrides, err := cfg.LoadPromptOverrides()
	if err != nil {
		_ = service.Close()
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}
	composer, err := prompts.New(prompts.Options{Overrides: overrides})
	if err != nil {
		_ = service.Close()
		return nil, fmt.Errorf("invalid prompt templates: %w", err)
	}

	renderer, closeRenderer, err := synth.NewRenderer(cfg.Render, logger)
	if err != nil {
		_ = service.Close()
		return nil, err
	}

	extractor := extract.New(extract.OptionsFromConfig(cfg.App), service.Media(), logger)
	machine := workflow.New(service.Engines(), composer, extractor, synth.New(renderer, logger), workflow.Options{
		MaxInterviewTurns: cfg.App.MaxInterviewTurns,
		Metrics:           metrics,
	}, logger)

	return &app{
		service:       service,
		composer:      composer,
		machine:       machine,
		closeRenderer: closeRenderer,
	}, nil
}

// Close releases the engine clients and the renderer.
func (a *app) Close() error {
	return stderrors.Join(a.service.Close(), a.closeRenderer())
}
