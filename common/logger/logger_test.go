package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLogRegistry(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		r, err := NewLogRegistry("")
		require.NoError(t, err)
		require.Equal(t, logrus.InfoLevel, r.GetLogLevel("FactoryService"))
	})

	t.Run("PerSubsystem", func(t *testing.T) {
		r, err := NewLogRegistry("*=warning, FactoryService=debug")
		require.NoError(t, err)
		require.Equal(t, logrus.DebugLevel, r.GetLogLevel("FactoryService"))
		require.Equal(t, logrus.WarnLevel, r.GetLogLevel("Other"))
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := NewLogRegistry("FactoryService")
		require.Error(t, err)
		_, err = NewLogRegistry("FactoryService=loud")
		require.Error(t, err)
	})
}

func TestWriterFactory(t *testing.T) {
	r, err := NewLogRegistry("")
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	log := MakeLogrusLogFactoryToWriter(r, buf)("Test")

	log.Debug("hidden")
	require.Zero(t, buf.Len())

	require.NoError(t, r.SetLogLevel("Test", "debug"))
	log.WithField("url", "https://github.com/a/b").Debug("shown")

	line := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "shown", line["msg"])
	require.Equal(t, "Test", line["system"])
	require.Equal(t, "https://github.com/a/b", line["url"])
}

func TestFileFactory(t *testing.T) {
	r, err := NewLogRegistry("")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "devboard.log")

	factory, err := MakeLogrusLogFactoryToFile(r, LogFilePath(path))
	require.NoError(t, err)
	factory("Test").Info("first")
	factory("Test").Info("second")

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(out), "first")
	require.Contains(t, string(out), "second")
	require.Contains(t, string(out), "system=Test")

	_, err = MakeLogrusLogFactoryToFile(r, LogFilePath(filepath.Join(t.TempDir(), "missing", "devboard.log")))
	require.Error(t, err)
}
