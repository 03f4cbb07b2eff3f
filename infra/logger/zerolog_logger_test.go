package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Infow("info", map[string]any{"gap": 0.1})
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerStructuredFields(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	var buf bytes.Buffer
	l := NewZerologLoggerWithWriter("termination", &buf)
	l.Debugf("hidden")
	l.Infow("gap improved", map[string]any{"gap": 0.25, "runtime_s": 3.0})

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "termination", line["component"])
	assert.Equal(t, "gap improved", line["message"])
	assert.InDelta(t, 0.25, line["gap"], 1e-12)
}
