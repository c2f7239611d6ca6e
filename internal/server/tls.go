package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"resumecoach/internal/config"
)

// certificateInfo describes the serving certificate for /health.
type certificateInfo struct {
	Subject  string
	NotAfter time.Time
}

// Certificates expiring within these windows are reported as critical and
// warning respectively.
const (
	certCriticalThreshold = 24 * time.Hour
	certWarningThreshold  = 7 * 24 * time.Hour
)

// buildTLSConfig creates the TLS configuration for the mode. It returns a
// nil config when TLS is disabled.
func buildTLSConfig(cfg config.TLSConfig) (*tls.Config, *certificateInfo, error) {
	switch cfg.Mode {
	case "", "disabled":
		return nil, nil, nil
	case "server", "mutual":
	default:
		return nil, nil, fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", cfg.Mode)
	}

	cert, err := loadServerCertificate(cfg)
	if err != nil {
		return nil, nil, err
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion(cfg.MinVersion),
		CipherSuites: cipherSuites(cfg.CipherSuites),
		ClientAuth:   tls.NoClientCert,
	}

	if cfg.Mode == "mutual" {
		pool, err := loadCACertificatePool(cfg)
		if err != nil {
			return nil, nil, err
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = clientAuthPolicy(cfg.ClientAuthPolicy)
	}

	info, err := describeCertificate(cert)
	if err != nil {
		return nil, nil, err
	}
	return tlsConfig, info, nil
}

// loadServerCertificate loads the server certificate from content or files
func loadServerCertificate(cfg config.TLSConfig) (tls.Certificate, error) {
	if cfg.CertContent != "" && cfg.KeyContent != "" {
		cert, err := tls.X509KeyPair([]byte(cfg.CertContent), []byte(cfg.KeyContent))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		return cert, nil
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
		return cert, nil
	}

	return tls.Certificate{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
}

func describeCertificate(cert tls.Certificate) (*certificateInfo, error) {
	leaf := cert.Leaf
	if leaf == nil {
		if len(cert.Certificate) == 0 {
			return nil, fmt.Errorf("TLS certificate chain is empty")
		}
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("failed to parse server certificate: %w", err)
		}
		leaf = parsed
	}
	return &certificateInfo{Subject: leaf.Subject.CommonName, NotAfter: leaf.NotAfter}, nil
}

func minVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// cipherSuites maps names to IDs, skipping unknown names. Nil keeps the Go
// defaults.
func cipherSuites(names []string) []uint16 {
	if len(names) == 0 {
		return nil
	}
	ids := make([]uint16, 0, len(names))
	for _, name := range names {
		if id := getCipherSuiteID(name); id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func loadCACertificatePool(cfg config.TLSConfig) (*x509.CertPool, error) {
	var caCert []byte
	switch {
	case cfg.CAContent != "":
		caCert = []byte(cfg.CAContent)
	case cfg.CAFile != "":
		data, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caCert = data
	default:
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}

	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(caCert); !ok {
		return nil, fmt.Errorf("failed to append CA cert")
	}
	return pool, nil
}

func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}

// getCipherSuiteID returns the cipher suite ID for a given name
func getCipherSuiteID(name string) uint16 {
	for _, suite := range tls.CipherSuites() {
		if suite.Name == name {
			return suite.ID
		}
	}
	return 0
}

// certificateHealth classifies the time left on the serving certificate.
func certificateHealth(info *certificateInfo, now time.Time) map[string]any {
	timeToExpiry := info.NotAfter.Sub(now)
	status := map[string]any{
		"subject":              info.Subject,
		"not_after":            info.NotAfter.UTC().Format(time.RFC3339),
		"time_to_expiry_hours": int(timeToExpiry.Hours()),
	}

	switch {
	case timeToExpiry <= 0:
		status["healthy"], status["status"] = false, "expired"
	case timeToExpiry <= certCriticalThreshold:
		status["healthy"], status["status"] = false, "critical"
	case timeToExpiry <= certWarningThreshold:
		status["healthy"], status["status"] = true, "warning"
	default:
		status["healthy"], status["status"] = true, "ok"
	}
	return status
}
