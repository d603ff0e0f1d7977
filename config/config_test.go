package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/reactordj/config"
)

func TestFromString(t *testing.T) {
	t.Parallel()

	t.Run("Defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.FromString("catalog_url: https://example.com/projects.json\n")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/projects.json", cfg.CatalogURL)
		assert.Equal(t, config.DefaultRequestTimeout, cfg.RequestTimeout)
		assert.Equal(t, config.DefaultProbeTimeout, cfg.ProbeTimeout)
		assert.InDelta(t, 1.0, cfg.InitialVolume, 0)
		assert.False(t, cfg.AutoAdvance)
		assert.Zero(t, cfg.CatalogCacheTTL)
		assert.Equal(t, "pretty", cfg.LogFormat)
		assert.Equal(t, zerolog.InfoLevel, cfg.Level())
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Parallel()

		data := `
catalog_url: http://localhost:9000/api
request_timeout: 2s
probe_timeout: 750ms
initial_volume: 0.4
auto_advance: true
catalog_cache_ttl: 5m
listen_addr: ":9999"
log_format: packed
log_level: debug
`
		cfg, err := config.FromString(data)
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 750*time.Millisecond, cfg.ProbeTimeout)
		assert.InDelta(t, 0.4, cfg.InitialVolume, 1e-9)
		assert.True(t, cfg.AutoAdvance)
		assert.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
		assert.Equal(t, ":9999", cfg.ListenAddr)
		assert.Equal(t, "packed", cfg.LogFormat)
		assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	})

	t.Run("Invalid", func(t *testing.T) {
		t.Parallel()

		cases := map[string]string{
			"MissingURL":    "request_timeout: 1s\n",
			"RelativeURL":   "catalog_url: /projects.json\n",
			"FTPURL":        "catalog_url: ftp://example.com/x\n",
			"LoudVolume":    "catalog_url: https://example.com\ninitial_volume: 1.5\n",
			"NaNVolume":     "catalog_url: https://example.com\ninitial_volume: .nan\n",
			"NegativeTTL":   "catalog_url: https://example.com\ncatalog_cache_ttl: -1s\n",
			"ZeroTimeout":   "catalog_url: https://example.com\nrequest_timeout: 0s\n",
			"BadLogFormat":  "catalog_url: https://example.com\nlog_format: xml\n",
			"BadLogLevel":   "catalog_url: https://example.com\nlog_level: loud\n",
			"MalformedYAML": "catalog_url: [",
		}
		for name, data := range cases {
			t.Run(name, func(t *testing.T) {
				t.Parallel()
				_, err := config.FromString(data)
				assert.Error(t, err)
			})
		}
	})
}

func TestFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog_url: https://example.com/p\nauto_advance: true\n"), 0o600))

	cfg, err := config.FromFile(path)
	require.NoError(t, err)
	assert.True(t, cfg.AutoAdvance)

	_, err = config.FromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
