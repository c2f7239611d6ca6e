package config

import "time"

// Operation names one kind of reasoning-engine call. Each has its own
// model, timeout, retry, temperature and circuit breaker settings.
type Operation string

const (
	OpAnalyze    Operation = "analyze"
	OpChat       Operation = "chat"
	OpInterview  Operation = "interview"
	OpSynthesize Operation = "synthesize"
	OpExtract    Operation = "extract"
)

// Operations lists every engine operation in a stable order.
func Operations() []Operation {
	return []Operation{OpAnalyze, OpChat, OpInterview, OpSynthesize, OpExtract}
}

// OperationAIConfig holds AI configuration for specific operations. Nil
// pointers and empty strings inherit the global values.
type OperationAIConfig struct {
	Provider       string               `mapstructure:"provider"`
	Model          string               `mapstructure:"model"`
	Timeout        *time.Duration       `mapstructure:"timeout"`
	APIKey         string               `mapstructure:"apiKey"`
	MaxRetries     *int                 `mapstructure:"maxRetries"`
	Temperature    *float32             `mapstructure:"temperature"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// applyOperationDefaults fills unset operation fields from the global AI config
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		timeout := c.AI.Timeout
		opCfg.Timeout = &timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		retries := c.AI.MaxRetries
		opCfg.MaxRetries = &retries
	}
	if opCfg.Temperature == nil {
		temperature := c.AI.Temperature
		opCfg.Temperature = &temperature
	}
}

func (c *Config) operationField(op Operation) *OperationAIConfig {
	switch op {
	case OpAnalyze:
		return &c.AI.Analyze
	case OpChat:
		return &c.AI.Chat
	case OpInterview:
		return &c.AI.Interview
	case OpSynthesize:
		return &c.AI.Synthesize
	case OpExtract:
		return &c.AI.Extract
	default:
		return nil
	}
}

// OperationConfig returns the AI configuration for op with fallback to the
// global config. Unknown operations get the global values only.
func (c *Config) OperationConfig(op Operation) OperationAIConfig {
	var opCfg OperationAIConfig
	if field := c.operationField(op); field != nil {
		opCfg = *field
	}
	c.applyOperationDefaults(&opCfg)
	return opCfg
}
