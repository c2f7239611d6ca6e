package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTLSMode(t *testing.T) {
	tests := []struct {
		name     string
		tls      TLSConfig
		errorMsg string
	}{
		{name: "disabled mode", tls: TLSConfig{Mode: "disabled"}},
		{name: "server mode with files", tls: TLSConfig{Mode: "server", CertFile: "/c.pem", KeyFile: "/k.pem"}},
		{name: "server mode with content", tls: TLSConfig{Mode: "server", CertContent: "CERT", KeyContent: "KEY"}},
		{name: "mutual mode valid", tls: TLSConfig{Mode: "mutual", CertFile: "/c.pem", KeyFile: "/k.pem", CAFile: "/ca.pem"}},
		{
			name:     "invalid mode",
			tls:      TLSConfig{Mode: "invalid"},
			errorMsg: "invalid TLS mode: invalid",
		},
		{
			name:     "server mode without key",
			tls:      TLSConfig{Mode: "server", CertFile: "/c.pem"},
			errorMsg: "TLS key is required for server mode",
		},
		{
			name:     "duplicate certificate sources",
			tls:      TLSConfig{Mode: "server", CertFile: "/c.pem", CertContent: "CERT", KeyFile: "/k.pem"},
			errorMsg: "both a file and content",
		},
		{
			name:     "mutual mode without CA",
			tls:      TLSConfig{Mode: "mutual", CertFile: "/c.pem", KeyFile: "/k.pem"},
			errorMsg: "CA certificate is required for mutual mode",
		},
		{
			name:     "mutual mode bad policy",
			tls:      TLSConfig{Mode: "mutual", CertFile: "/c.pem", KeyFile: "/k.pem", CAFile: "/ca.pem", ClientAuthPolicy: "trust-me"},
			errorMsg: "invalid clientAuthPolicy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTLSMode(tt.tls)
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestValidateTLSMinVersion(t *testing.T) {
	for _, version := range []string{"", "1.2", "1.3"} {
		cfg := &Config{Server: ServerConfig{TLS: TLSConfig{Mode: "disabled", MinVersion: version}}}
		assert.NoError(t, cfg.ValidateTLSConfig(), version)
	}

	cfg := &Config{Server: ServerConfig{TLS: TLSConfig{Mode: "disabled", MinVersion: "1.0"}}}
	assert.ErrorContains(t, cfg.ValidateTLSConfig(), "invalid TLS minVersion")
}
