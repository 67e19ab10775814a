package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel("warn"))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestOutputDefaultsToStdout(t *testing.T) {
	require.Equal(t, os.Stdout, output(Options{}))
}

func TestNewWritesToRotatingFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "app.log")
	log := New(Options{Level: "info", File: path, MaxSizeMB: 1})
	log.Info("reading served", "mode", "bazi")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"reading served"`)
	require.Contains(t, string(data), `"service":"fortune-master"`)
}
