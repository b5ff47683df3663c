package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadConfig(t *testing.T) {
	t.Run("valid config file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yml")
		yamlContent := `clusters:
  - name: dev
    brokers:
      - localhost:9092
      - localhost:9093
    client_id: infralens-dev
  - name: prod
    brokers:
      - kafka1.prod:9092
    tls:
      enabled: true
      ca_file: /path/to/ca.pem
    sasl:
      mechanism: SCRAM-SHA-256
      username: admin
      password: secret
engine:
  cluster: prod
  refresh_interval: 15s
  request_timeout: 2s
  max_attempts: 5
  group_concurrency: 2
http:
  addr: ":9000"
`
		require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

		cfg, err := ReadConfig(configPath)
		require.NoError(t, err)
		require.Len(t, cfg.Clusters, 2)
		require.Equal(t, "dev", cfg.Clusters[0].Name)
		require.Equal(t, []string{"localhost:9092", "localhost:9093"}, cfg.Clusters[0].Brokers)
		require.Equal(t, "infralens-dev", cfg.Clusters[0].ClientID)
		require.True(t, cfg.Clusters[1].TLS.Enabled)
		require.Equal(t, "SCRAM-SHA-256", cfg.Clusters[1].SASL.Mechanism)

		require.Equal(t, 15*time.Second, cfg.Engine.RefreshInterval)
		require.Equal(t, 2*time.Second, cfg.Engine.RequestTimeout)
		require.Equal(t, 5, cfg.Engine.MaxAttempts)
		require.Equal(t, 2, cfg.Engine.GroupConcurrency)
		require.Equal(t, DefaultInitialBackoff, cfg.Engine.InitialBackoff)
		require.Equal(t, DefaultInternalPrefix, cfg.Engine.InternalPrefix)
		require.Equal(t, ":9000", cfg.HTTP.Addr)

		active, err := cfg.ActiveCluster()
		require.NoError(t, err)
		require.Equal(t, "prod", active.Name)
		require.NoError(t, cfg.Validate())
	})

	t.Run("empty file uses defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "empty.yml")
		require.NoError(t, os.WriteFile(configPath, nil, 0644))

		cfg, err := ReadConfig(configPath)
		require.NoError(t, err)
		require.Empty(t, cfg.Clusters)
		require.Equal(t, DefaultRefreshInterval, cfg.Engine.RefreshInterval)
		require.Equal(t, DefaultHTTPAddr, cfg.HTTP.Addr)
		require.ErrorIs(t, cfg.Validate(), ErrNoClusters)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadConfig(filepath.Join(t.TempDir(), "missing.yml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yml")
		require.NoError(t, os.WriteFile(configPath, []byte("clusters: [\n"), 0644))
		_, err := ReadConfig(configPath)
		require.ErrorContains(t, err, "parse")
	})
}

func TestWriteConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	cfg := Default()
	cfg.Engine.Cluster = "local"

	require.NoError(t, WriteConfig(configPath, cfg))
	got, err := ReadConfig(configPath)
	require.NoError(t, err)
	require.Equal(t, cfg.Clusters, got.Clusters)
	require.Equal(t, cfg.Engine.RefreshInterval, got.Engine.RefreshInterval)
	require.Equal(t, "local", got.Engine.Cluster)
}

func TestActiveCluster(t *testing.T) {
	cfg := FileConfig{Clusters: []ClusterConfig{{Name: "a"}, {Name: "b"}}}
	c, err := cfg.ActiveCluster()
	require.NoError(t, err)
	require.Equal(t, "a", c.Name)

	cfg.Engine.Cluster = "b"
	c, err = cfg.ActiveCluster()
	require.NoError(t, err)
	require.Equal(t, "b", c.Name)

	cfg.Engine.Cluster = "c"
	_, err = cfg.ActiveCluster()
	require.ErrorIs(t, err, ErrClusterNotFound)

	_, err = FileConfig{}.ActiveCluster()
	require.ErrorIs(t, err, ErrNoClusters)
}

func TestGetAuthType(t *testing.T) {
	tests := []struct {
		name string
		cfg  ClusterConfig
		want string
	}{
		{name: "plaintext", cfg: ClusterConfig{}, want: "PLAINTEXT"},
		{name: "tls", cfg: ClusterConfig{TLS: &TLSConfig{Enabled: true}}, want: "TLS"},
		{name: "mtls", cfg: ClusterConfig{TLS: &TLSConfig{Enabled: true, CertFile: "c", KeyFile: "k"}}, want: "mTLS"},
		{name: "sasl", cfg: ClusterConfig{SASL: &SASLConfig{Mechanism: "PLAIN"}}, want: "SASL/PLAIN"},
		{name: "sasl over tls", cfg: ClusterConfig{SASL: &SASLConfig{Mechanism: "PLAIN"}, TLS: &TLSConfig{Enabled: true}}, want: "SASL/PLAIN + TLS"},
		{name: "aws iam", cfg: ClusterConfig{AWS: &AWSConfig{IAM: true}}, want: "AWS IAM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.cfg.GetAuthType())
		})
	}
}

func writeCert(t *testing.T, notAfter time.Time) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "client"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cert.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0600))
	return path
}

func TestGetCertificateInfo(t *testing.T) {
	tests := []struct {
		name     string
		notAfter time.Time
		want     string
	}{
		{name: "valid", notAfter: time.Now().Add(90 * 24 * time.Hour), want: "valid"},
		{name: "warning", notAfter: time.Now().Add(20 * 24 * time.Hour), want: "warning"},
		{name: "critical", notAfter: time.Now().Add(3 * 24 * time.Hour), want: "critical"},
		{name: "expired", notAfter: time.Now().Add(-time.Hour), want: "expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ClusterConfig{TLS: &TLSConfig{Enabled: true, CertFile: writeCert(t, tt.notAfter)}}
			require.True(t, cfg.HasCertificate())
			info, err := cfg.GetCertificateInfo()
			require.NoError(t, err)
			require.Equal(t, tt.want, info.Status)
		})
	}

	info, err := (&ClusterConfig{}).GetCertificateInfo()
	require.NoError(t, err)
	require.Nil(t, info)
}
