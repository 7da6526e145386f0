package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSONToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "inventario.log")
	log, err := New(Options{Level: "info", File: path})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("inventory loaded", zap.Int("products", 2))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"inventory loaded"`)
	require.Contains(t, string(data), `"products":2`)
	require.NotContains(t, string(data), "hidden")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Level: "loud"})
	require.Error(t, err)
}

func TestNamedToleratesNil(t *testing.T) {
	t.Parallel()

	require.NotNil(t, Named(nil, "store"))
}
