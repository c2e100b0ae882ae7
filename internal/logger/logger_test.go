package logger

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLog(t *testing.T) {
	t.Cleanup(func() {
		log.SetLevel(log.InfoLevel)
		log.SetReportCaller(false)
	})

	t.Run("Should apply a known level", func(t *testing.T) {
		require.NoError(t, InitLog("debug", false))
		assert.Equal(t, log.DebugLevel, log.GetLevel())
	})

	t.Run("Should fall back to info on unknown level", func(t *testing.T) {
		err := InitLog("verbose", false)
		require.Error(t, err)
		assert.Equal(t, log.InfoLevel, log.GetLevel())
	})

	t.Run("Should be callable repeatedly", func(t *testing.T) {
		require.NoError(t, InitLog("WARN", true))
		require.NoError(t, InitLog(" error ", false))
		assert.Equal(t, log.ErrorLevel, log.GetLevel())
	})
}

func TestCategoryEntries(t *testing.T) {
	entries := map[string]*log.Entry{
		"MAIN":       MainLog,
		"CFG":        CfgLog,
		"NORMALIZER": NormLog,
		"VALIDATOR":  ValidLog,
		"SCHEMA":     SchemaLog,
		"SUBMIT":     SubmitLog,
		"LIFECYCLE":  LifecycleLog,
		"STORE":      StoreLog,
		"CONTEXT":    ContextLog,
		"NOTIFY":     NotifyLog,
		"CRUD":       CrudLog,
	}
	for category, entry := range entries {
		require.NotNil(t, entry, category)
		assert.Equal(t, category, entry.Data["category"])
		assert.Equal(t, moduleNameProfileCheck, entry.Data["module"])
	}
}
