package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestConfigureJSONOutput(t *testing.T) {
	prev := zerolog.GlobalLevel()
	defer func() {
		zerolog.SetGlobalLevel(prev)
		_ = Configure("", "json", os.Stdout)
	}()

	var buf bytes.Buffer
	require.NoError(t, Configure("warn", "json", &buf))
	l := New("optimizer")
	l.Infof("dropped")
	l.Warnf("kept %d", 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "optimizer", entry["component"])
	assert.Equal(t, "kept 1", entry["message"])
	assert.Equal(t, "warn", entry["level"])
}

func TestConfigureUnknownLevel(t *testing.T) {
	assert.Error(t, Configure("loud", "json", nil))
}
