package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "debug")
	l.WithField("ticker", "AAPL").Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "hello", entry["message"])
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "AAPL", entry["ticker"])
	require.Contains(t, entry, "timestamp")
}

func TestNewLoggerUnknownLevel(t *testing.T) {
	l := newLogger(&bytes.Buffer{}, "loud")
	require.Equal(t, logrus.InfoLevel, l.GetLevel())
}
