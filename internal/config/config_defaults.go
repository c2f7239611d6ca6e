package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.7)

	// Analysis wants a stable format, chat can wander a little more.
	setOperationDefaults(v, OpAnalyze, 75*time.Second, 2, 0.3)
	setOperationDefaults(v, OpChat, 60*time.Second, 2, 0.7)
	setOperationDefaults(v, OpInterview, 60*time.Second, 2, 0.7)
	setOperationDefaults(v, OpSynthesize, 90*time.Second, 2, 0.2)
	setOperationDefaults(v, OpExtract, 90*time.Second, 2, 0.0)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 180*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.cipherSuites", []string{})
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)
	v.SetDefault("server.sessions.ttl", 2*time.Hour)
	v.SetDefault("server.sessions.cleanupInterval", 5*time.Minute)
	v.SetDefault("server.sessions.maxSessions", 1000)

	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.logFile.path", "")
	v.SetDefault("app.logFile.maxSizeMB", 50)
	v.SetDefault("app.logFile.maxBackups", 3)
	v.SetDefault("app.logFile.maxAgeDays", 28)
	v.SetDefault("app.logFile.compress", true)
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown", "yaml"})
	v.SetDefault("app.maxFileSize", 10*1024*1024)
	v.SetDefault("app.minTextLength", 50)
	v.SetDefault("app.allowedExtensions", []string{".pdf", ".docx", ".jpg", ".jpeg", ".png", ".txt", ".md"})
	v.SetDefault("app.maxInterviewTurns", 30)

	v.SetDefault("render.engine", "fpdf")
	v.SetDefault("render.fontFamily", "Arial")
	v.SetDefault("render.fontSize", 10.0)
	v.SetDefault("render.lineHeight", 5.0)
	v.SetDefault("render.chromium.timeout", 30*time.Second)
	v.SetDefault("render.chromium.paperSize", "A4")
	v.SetDefault("render.chromium.installDeps", false)

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumecoach")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.trackRateLimits", true)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
}

func setOperationDefaults(v *viper.Viper, op Operation, timeout time.Duration, retries int, temperature float64) {
	prefix := "ai." + string(op) + "."
	v.SetDefault(prefix+"provider", "")
	v.SetDefault(prefix+"model", "")
	v.SetDefault(prefix+"timeout", timeout)
	v.SetDefault(prefix+"maxRetries", retries)
	v.SetDefault(prefix+"temperature", temperature)
	v.SetDefault(prefix+"circuitBreaker.enabled", true)
	v.SetDefault(prefix+"circuitBreaker.maxRequests", 3)
	v.SetDefault(prefix+"circuitBreaker.interval", 60*time.Second)
	v.SetDefault(prefix+"circuitBreaker.timeout", 60*time.Second)
	v.SetDefault(prefix+"circuitBreaker.minRequests", 3)
	v.SetDefault(prefix+"circuitBreaker.failureThreshold", 0.6)
}
