package config

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by viper.
const EnvPrefix = "RESUMECOACH"

// Config holds all application configuration
// Gemini API key precedence:
// 1. Vault (if configured)
// 2. Config file / RESUMECOACH_AI_APIKEY
// 3. GEMINI_API_KEY
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Render        RenderConfig        `mapstructure:"render"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds the reasoning engine configuration. The top-level fields
// are defaults for every operation.
type AIConfig struct {
	Provider    string          `mapstructure:"provider"`
	Model       string          `mapstructure:"model"`
	Timeout     time.Duration   `mapstructure:"timeout"`
	APIKey      string          `mapstructure:"apiKey"`
	MaxRetries  int             `mapstructure:"maxRetries"`
	Temperature float32         `mapstructure:"temperature"`
	Prompts     PromptTemplates `mapstructure:"prompts"`

	Analyze    OperationAIConfig `mapstructure:"analyze"`
	Chat       OperationAIConfig `mapstructure:"chat"`
	Interview  OperationAIConfig `mapstructure:"interview"`
	Synthesize OperationAIConfig `mapstructure:"synthesize"`
	Extract    OperationAIConfig `mapstructure:"extract"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // allowed while half-open
	Interval         time.Duration `mapstructure:"interval"`         // closed-state count reset
	Timeout          time.Duration `mapstructure:"timeout"`          // open → half-open
	MinRequests      uint32        `mapstructure:"minRequests"`      // before the ratio is considered
	FailureThreshold float64       `mapstructure:"failureThreshold"` // 0.0-1.0
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	TLS       TLSConfig       `mapstructure:"tls"`
	APIKeys   []string        `mapstructure:"apiKeys"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

// SessionsConfig bounds the in-memory session store.
type SessionsConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanupInterval"`
	MaxSessions     int           `mapstructure:"maxSessions"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel          string        `mapstructure:"logLevel"`
	LogFile           LogFileConfig `mapstructure:"logFile"`
	DefaultFormat     string        `mapstructure:"defaultFormat"`
	SupportedFormats  []string      `mapstructure:"supportedFormats"`
	MaxFileSize       int64         `mapstructure:"maxFileSize"`
	MinTextLength     int           `mapstructure:"minTextLength"`
	AllowedExtensions []string      `mapstructure:"allowedExtensions"`
	MaxInterviewTurns int           `mapstructure:"maxInterviewTurns"`
}

// LogFileConfig enables a rotating copy of the log stream.
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays"`
	Compress   bool   `mapstructure:"compress"`
}

// RenderConfig selects and tunes the PDF renderer.
type RenderConfig struct {
	Engine     string         `mapstructure:"engine"` // fpdf or chromium
	FontFamily string         `mapstructure:"fontFamily"`
	FontSize   float64        `mapstructure:"fontSize"`
	LineHeight float64        `mapstructure:"lineHeight"`
	Chromium   ChromiumConfig `mapstructure:"chromium"`
}

// ChromiumConfig configures the headless browser renderer.
type ChromiumConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	PaperSize   string        `mapstructure:"paperSize"`
	InstallDeps bool          `mapstructure:"installDeps"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig   `mapstructure:"healthCheck"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig switches groups of custom instruments on and off.
type CustomMetricsConfig struct {
	AIOperations    AIOperationsMetricsConfig `mapstructure:"aiOperations"`
	BusinessMetrics BusinessMetricsConfig     `mapstructure:"businessMetrics"`
	TrackRateLimits bool                      `mapstructure:"trackRateLimits"`
}

// AIOperationsMetricsConfig holds AI operation metrics configuration
type AIOperationsMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
}

// BusinessMetricsConfig holds workflow metrics configuration
type BusinessMetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoadConfig loads configuration from defaults, a config file and the
// environment.
func LoadConfig() (*Config, error) {
	return load(viper.New(), "")
}

// LoadConfigFile loads configuration from an explicit file path.
func LoadConfigFile(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, explicitFile string) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitFile != "" {
		v.SetConfigFile(explicitFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/resumecoach/")
		v.AddConfigPath("$HOME/.resumecoach")
		v.AddConfigPath(".")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || explicitFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.validatePromptFiles(); err != nil {
		return nil, fmt.Errorf("prompt file validation failed: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks the configuration for values the program cannot run with.
// The Gemini key is checked separately by RequireAIKey since several
// commands never reach the engine.
func (c *Config) Validate() error {
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.App.DefaultFormat != "" && len(c.App.SupportedFormats) > 0 && !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("default format %q is not in supported formats %v", c.App.DefaultFormat, c.App.SupportedFormats)
	}
	if c.App.MinTextLength < 0 {
		return fmt.Errorf("minimum text length cannot be negative")
	}
	if c.App.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive")
	}
	if c.App.MaxInterviewTurns <= 0 {
		return fmt.Errorf("max interview turns must be positive")
	}
	switch c.Render.Engine {
	case "fpdf", "chromium":
	default:
		return fmt.Errorf("invalid render engine: %s (must be 'fpdf' or 'chromium')", c.Render.Engine)
	}
	if c.Server.Sessions.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	return c.ValidateTLSConfig()
}

// RequireAIKey reports a configuration error when no engine key is set.
func (c *Config) RequireAIKey() error {
	if c.AI.APIKey == "" {
		return fmt.Errorf("AI API key is required (set %s_AI_APIKEY, GEMINI_API_KEY or vault.secrets.geminiKey)", EnvPrefix)
	}
	return nil
}
