package factory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	t.Run("Should apply defaults to an empty document", func(t *testing.T) {
		cfg, err := ParseConfig([]byte(`{}`))
		require.NoError(t, err)

		assert.Equal(t, "memory", cfg.Store.Driver)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, []string{"downlink", "uplink"}, cfg.Profile.RateKeys)
		assert.True(t, cfg.Validation.SchemaCheckEnabled())
		assert.True(t, cfg.Validation.ImsiFormatEnabled())
		assert.True(t, cfg.Validation.RateCheckEnabled())
	})

	t.Run("Should read every section", func(t *testing.T) {
		cfg, err := ParseConfig([]byte(`
info:
  version: 1.0.0
  description: profile check
profile:
  rateKeys: [downlink, uplink, maxBitrate]
validation:
  enableSchemaCheck: false
  checkImsiFormat: false
store:
  driver: memory
  seedFile: ./config/profiles.json
  maxItems: 100
  longsAsStrings: true
  enforceUniqueImsi: true
logging:
  level: debug
  reportCaller: true
`))
		require.NoError(t, err)

		assert.Equal(t, "1.0.0", cfg.Info.Version)
		assert.Equal(t, []string{"downlink", "uplink", "maxBitrate"}, cfg.Profile.RateKeys)
		assert.False(t, cfg.Validation.SchemaCheckEnabled())
		assert.False(t, cfg.Validation.ImsiFormatEnabled())
		assert.True(t, cfg.Validation.RateCheckEnabled())
		assert.Equal(t, "./config/profiles.json", cfg.Store.SeedFile)
		assert.Equal(t, 100, cfg.Store.MaxItems)
		assert.True(t, cfg.Store.LongsAsStrings)
		assert.True(t, cfg.Store.EnforceUniqueImsi)
		assert.True(t, cfg.Logging.ReportCaller)
	})

	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown driver", yaml: "store:\n  driver: mongo\n"},
		{name: "unknown level", yaml: "logging:\n  level: loud\n"},
		{name: "negative max items", yaml: "store:\n  maxItems: -1\n"},
		{name: "duplicate rate key", yaml: "profile:\n  rateKeys: [uplink, uplink]\n"},
		{name: "empty rate key", yaml: "profile:\n  rateKeys: [\"\"]\n"},
		{name: "schema file without schema check", yaml: "validation:\n  enableSchemaCheck: false\n  schemaFile: s.json\n"},
		{name: "padded seed file", yaml: "store:\n  seedFile: \" x.json\"\n"},
		{name: "unknown field", yaml: "storage:\n  driver: memory\n"},
		{name: "malformed yaml", yaml: "store: [\n"},
	}
	for _, tt := range tests {
		t.Run("Should reject "+tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestReadConfig(t *testing.T) {
	t.Run("Should load a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profilecheck.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o600))

		cfg, err := ReadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Logging.Level)
	})

	t.Run("Should fail on a missing file", func(t *testing.T) {
		_, err := ReadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, validateConfig(cfg))
	assert.Equal(t, "memory", cfg.Store.Driver)
}
