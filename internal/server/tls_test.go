package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumecoach/internal/config"
)

func selfSignedPEM(t *testing.T, notAfter time.Time) (certPEM, keyPEM string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "resumecoach.test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}))
	return certPEM, keyPEM
}

func TestBuildTLSConfigDisabled(t *testing.T) {
	for _, mode := range []string{"", "disabled"} {
		cfg, info, err := buildTLSConfig(config.TLSConfig{Mode: mode})
		require.NoError(t, err)
		assert.Nil(t, cfg)
		assert.Nil(t, info)
	}

	_, _, err := buildTLSConfig(config.TLSConfig{Mode: "bogus"})
	assert.ErrorContains(t, err, "invalid TLS mode")
}

func TestBuildTLSConfigServer(t *testing.T) {
	notAfter := time.Now().Add(90 * 24 * time.Hour).Truncate(time.Second)
	certPEM, keyPEM := selfSignedPEM(t, notAfter)

	cfg, info, err := buildTLSConfig(config.TLSConfig{
		Mode:         "server",
		CertContent:  certPEM,
		KeyContent:   keyPEM,
		MinVersion:   "1.3",
		CipherSuites: []string{"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256", "NOT_A_SUITE"},
	})
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Len(t, cfg.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS13), cfg.MinVersion)
	assert.Equal(t, []uint16{tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256}, cfg.CipherSuites)
	assert.Equal(t, tls.NoClientCert, cfg.ClientAuth)
	assert.Equal(t, "resumecoach.test", info.Subject)
	assert.True(t, info.NotAfter.Equal(notAfter))
}

func TestBuildTLSConfigMutual(t *testing.T) {
	certPEM, keyPEM := selfSignedPEM(t, time.Now().Add(24*time.Hour*30))

	cfg, _, err := buildTLSConfig(config.TLSConfig{
		Mode:             "mutual",
		CertContent:      certPEM,
		KeyContent:       keyPEM,
		CAContent:        certPEM,
		ClientAuthPolicy: "verify",
	})
	require.NoError(t, err)
	assert.NotNil(t, cfg.ClientCAs)
	assert.Equal(t, tls.VerifyClientCertIfGiven, cfg.ClientAuth)

	_, _, err = buildTLSConfig(config.TLSConfig{Mode: "mutual", CertContent: certPEM, KeyContent: keyPEM})
	assert.ErrorContains(t, err, "CA certificate is required")

	_, _, err = buildTLSConfig(config.TLSConfig{Mode: "server"})
	assert.ErrorContains(t, err, "certificate and key are required")
}

func TestCertificateHealth(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		left    time.Duration
		status  string
		healthy bool
	}{
		{-time.Hour, "expired", false},
		{12 * time.Hour, "critical", false},
		{3 * 24 * time.Hour, "warning", true},
		{60 * 24 * time.Hour, "ok", true},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got := certificateHealth(&certificateInfo{Subject: "x", NotAfter: now.Add(tt.left)}, now)
			assert.Equal(t, tt.status, got["status"])
			assert.Equal(t, tt.healthy, got["healthy"])
		})
	}
}
