package ai

import (
	"context"
	stderrors "errors"
	"fmt"

	"resumecoach/internal/config"
	"resumecoach/internal/errors"
)

// Engines groups the completers used by each workflow step.
type Engines struct {
	Analyze    Completer
	Chat       Completer
	Interview  Completer
	Synthesize Completer
}

// Service owns one provider per engine operation.
type Service struct {
	providers map[config.Operation]Provider
	logger    *errors.Logger
}

// NewService creates a provider for every operation in config.Operations.
func NewService(cfg *config.Config, logger *errors.Logger, opts ...Option) (*Service, error) {
	if err := cfg.RequireAIKey(); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, err.Error(), nil)
	}

	s := &Service{
		providers: make(map[config.Operation]Provider, len(config.Operations())),
		logger:    logger,
	}
	for _, op := range config.Operations() {
		opCfg := cfg.OperationConfig(op)

		logger.Debug("Initializing AI provider",
			"provider", opCfg.Provider,
			"operation", op,
			"model", opCfg.Model,
			"temperature", *opCfg.Temperature,
			"timeout", *opCfg.Timeout,
			"max_retries", *opCfg.MaxRetries,
			"circuit_breaker", opCfg.CircuitBreaker.Enabled)

		provider, err := newProvider(&opCfg, op, logger, opts...)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.providers[op] = provider
	}
	return s, nil
}

// NewServiceWithProviders builds a service from ready providers. Every
// operation must be present.
func NewServiceWithProviders(providers map[config.Operation]Provider, logger *errors.Logger) (*Service, error) {
	for _, op := range config.Operations() {
		if providers[op] == nil {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("no AI provider for operation %s", op), nil)
		}
	}
	return &Service{providers: providers, logger: logger}, nil
}

func newProvider(cfg *config.OperationAIConfig, op config.Operation, logger *errors.Logger, opts ...Option) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		provider, err := NewGeminiProvider(cfg, string(op), logger, opts...)
		if err != nil {
			return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create AI provider", err).
				WithContext("operation", string(op))
		}
		return provider, nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil).
			WithContext("operation", string(op))
	}
}

// Engines returns the completers for the workflow.
func (s *Service) Engines() Engines {
	return Engines{
		Analyze:    s.providers[config.OpAnalyze],
		Chat:       s.providers[config.OpChat],
		Interview:  s.providers[config.OpInterview],
		Synthesize: s.providers[config.OpSynthesize],
	}
}

// Media returns the reader used for image resumes and voice input.
func (s *Service) Media() MediaReader {
	return s.providers[config.OpExtract]
}

// ModelInfo checks the model of every operation.
func (s *Service) ModelInfo(ctx context.Context) map[string]*ModelInfo {
	info := make(map[string]*ModelInfo, len(s.providers))
	for _, op := range config.Operations() {
		info[string(op)] = s.providers[op].GetModelInfo(ctx)
	}
	return info
}

// CircuitBreakerStats reports breaker state per operation.
func (s *Service) CircuitBreakerStats() map[string]any {
	stats := make(map[string]any, len(s.providers))
	for op, provider := range s.providers {
		stats[string(op)] = provider.GetCircuitBreakerStats()
	}
	return stats
}

// Close releases every provider.
func (s *Service) Close() error {
	var errs []error
	for op, provider := range s.providers {
		if err := provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s provider: %w", op, err))
		}
	}
	return stderrors.Join(errs...)
}
