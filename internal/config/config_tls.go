package config

import "fmt"

// TLSConfig holds TLS/mTLS configuration. Content fields are filled from
// Vault and take the place of the matching file fields.
type TLSConfig struct {
	Mode     string `mapstructure:"mode"` // disabled, server, mutual
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`

	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string   `mapstructure:"minVersion"`
	CipherSuites     []string `mapstructure:"cipherSuites"`
	ClientAuthPolicy string   `mapstructure:"clientAuthPolicy"` // require, request, verify
}

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	if err := validateTLSMode(tls); err != nil {
		return err
	}

	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}

func validateTLSMode(tls TLSConfig) error {
	switch tls.Mode {
	case "disabled", "":
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}

	if err := requireOneSource("certificate", tls.CertFile, tls.CertContent, tls.Mode); err != nil {
		return err
	}
	if err := requireOneSource("key", tls.KeyFile, tls.KeyContent, tls.Mode); err != nil {
		return err
	}
	if tls.Mode == "server" {
		return nil
	}

	if err := requireOneSource("CA certificate", tls.CAFile, tls.CAContent, tls.Mode); err != nil {
		return err
	}
	switch tls.ClientAuthPolicy {
	case "require", "request", "verify", "":
		return nil
	default:
		return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
	}
}

// requireOneSource checks that exactly one of file or inline content is set.
func requireOneSource(what, file, content, mode string) error {
	switch {
	case file == "" && content == "":
		return fmt.Errorf("TLS %s is required for %s mode (provide either a file or content)", what, mode)
	case file != "" && content != "":
		return fmt.Errorf("TLS %s has both a file and content - choose one", what)
	default:
		return nil
	}
}
