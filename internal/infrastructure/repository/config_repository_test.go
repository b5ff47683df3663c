package repository

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/OliveiraNt/infralens/internal/config"
	"github.com/OliveiraNt/infralens/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	_ = utils.SetLogLevel("error")
	os.Exit(m.Run())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const devConfig = `clusters:
  - name: dev
    brokers: ["localhost:9092"]
engine:
  refresh_interval: 15s
`

func TestLoadFromFile(t *testing.T) {
	t.Setenv("INFRALENS_BROKERS", "")
	path := filepath.Join(t.TempDir(), "config.yml")
	writeFile(t, path, devConfig)

	repo := NewConfigRepository(path)
	cfg, err := repo.LoadFromFile()
	require.NoError(t, err)
	require.Equal(t, 15*time.Second, cfg.Engine.RefreshInterval)
	require.Equal(t, config.DefaultMaxAttempts, cfg.Engine.MaxAttempts)
	require.Equal(t, "dev", repo.ActiveCluster().Name)
	require.Equal(t, cfg, repo.Current())
}

func TestLoadFromFileMissingUsesDefaults(t *testing.T) {
	t.Setenv("INFRALENS_BROKERS", "")
	repo := NewConfigRepository(filepath.Join(t.TempDir(), "absent.yml"))
	cfg, err := repo.LoadFromFile()
	require.NoError(t, err)
	require.Equal(t, "local", repo.ActiveCluster().Name)
	require.Equal(t, []string{config.DefaultBroker}, cfg.Clusters[0].Brokers)
}

func TestLoadFromFileEnvOverride(t *testing.T) {
	t.Setenv("INFRALENS_BROKERS", "a:9092, b:9092")
	path := filepath.Join(t.TempDir(), "config.yml")
	writeFile(t, path, devConfig)

	repo := NewConfigRepository(path)
	_, err := repo.LoadFromFile()
	require.NoError(t, err)
	require.Equal(t, []string{"a:9092", "b:9092"}, repo.ActiveCluster().Brokers)
}

func TestLoadFromFileInvalidKeepsPrevious(t *testing.T) {
	t.Setenv("INFRALENS_BROKERS", "")
	path := filepath.Join(t.TempDir(), "config.yml")
	writeFile(t, path, devConfig)
	repo := NewConfigRepository(path)
	_, err := repo.LoadFromFile()
	require.NoError(t, err)

	writeFile(t, path, "clusters:\n  - name: broken\n")
	_, err = repo.LoadFromFile()
	require.Error(t, err)
	require.Equal(t, "dev", repo.ActiveCluster().Name)

	writeFile(t, path, "clusters: [")
	_, err = repo.LoadFromFile()
	require.Error(t, err)
	require.Equal(t, "dev", repo.ActiveCluster().Name)
}

func TestSave(t *testing.T) {
	t.Setenv("INFRALENS_BROKERS", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	repo := NewConfigRepository(path)

	cfg := config.Default()
	cfg.Clusters[0].Name = "saved"
	require.NoError(t, repo.Save(cfg))
	require.Equal(t, "saved", repo.ActiveCluster().Name)

	other := NewConfigRepository(path)
	loaded, err := other.LoadFromFile()
	require.NoError(t, err)
	require.Equal(t, "saved", loaded.Clusters[0].Name)

	require.Error(t, repo.Save(config.FileConfig{}))
}

func TestWatchReloadsOnChange(t *testing.T) {
	t.Setenv("INFRALENS_BROKERS", "")
	path := filepath.Join(t.TempDir(), "config.yml")
	writeFile(t, path, devConfig)

	repo := NewConfigRepository(path)
	repo.debounce = 50 * time.Millisecond
	_, err := repo.LoadFromFile()
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		changes []config.FileConfig
	)
	repo.OnChange(func(cfg config.FileConfig) {
		mu.Lock()
		changes = append(changes, cfg)
		mu.Unlock()
	})
	require.NoError(t, repo.Watch())
	t.Cleanup(func() { _ = repo.Close() })

	// only the refresh interval changes: no callback
	writeFile(t, path, "clusters:\n  - name: dev\n    brokers: [\"localhost:9092\"]\nengine:\n  refresh_interval: 20s\n")
	require.Eventually(t, func() bool {
		return repo.Current().Engine.RefreshInterval == 20*time.Second
	}, 3*time.Second, 20*time.Millisecond)

	writeFile(t, path, "clusters:\n  - name: dev\n    brokers: [\"kafka:9092\"]\n")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) == 1
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	require.Equal(t, []string{"kafka:9092"}, changes[0].Clusters[0].Brokers)
	mu.Unlock()
	require.Equal(t, []string{"kafka:9092"}, repo.ActiveCluster().Brokers)
}

func TestCloseWithoutWatch(t *testing.T) {
	repo := NewConfigRepository(filepath.Join(t.TempDir(), "config.yml"))
	require.NoError(t, repo.Close())
}

func TestClusterConfigEqual(t *testing.T) {
	base := config.ClusterConfig{
		Name:    "dev",
		Brokers: []string{"a:9092", "b:9092"},
		TLS:     &config.TLSConfig{Enabled: true, CAFile: "ca.pem"},
	}
	reordered := base
	reordered.Brokers = []string{"b:9092", "a:9092"}
	require.True(t, clusterConfigEqual(base, reordered))

	tls := base
	tls.TLS = &config.TLSConfig{Enabled: true, CAFile: "other.pem"}
	require.False(t, clusterConfigEqual(base, tls))

	sasl := base
	sasl.SASL = &config.SASLConfig{Mechanism: "PLAIN"}
	require.False(t, clusterConfigEqual(base, sasl))

	aws := base
	aws.AWS = &config.AWSConfig{IAM: true}
	require.False(t, clusterConfigEqual(base, aws))

	client := base
	client.ClientID = "other"
	require.False(t, clusterConfigEqual(base, client))
}

func TestEqualStrings(t *testing.T) {
	require.True(t, equalStrings(nil, nil))
	require.True(t, equalStrings([]string{"a", "b", "a"}, []string{"a", "a", "b"}))
	require.False(t, equalStrings([]string{"a", "b"}, []string{"a", "a"}))
	require.False(t, equalStrings([]string{"a"}, []string{"a", "b"}))
}
