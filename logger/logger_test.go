package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DevelopmentUsesTextAtDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "development", false)

	l.Debug("dbg", "item_id", "abc")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "msg=dbg")
	assert.Contains(t, out, "item_id=abc")
}

func TestNew_ProductionUsesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "production", false)

	l.Debug("hidden")
	l.Info("shown", "user", "alice")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "alice", entry["user"])
}

func TestNew_DebugFlagOverridesProduction(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "production", true)

	l.Debug("dbg")

	assert.Contains(t, buf.String(), "level=DEBUG")
}

func TestInit_SetsSlogDefault(t *testing.T) {
	prev, prevDefault := slog.Default(), Default()
	t.Cleanup(func() {
		slog.SetDefault(prev)
		defaultLogger.Store(prevDefault)
	})

	Init("production", false)

	assert.Same(t, Default(), slog.Default())
	assert.NotNil(t, With("k", "v"))
}

func TestDefault_SafeWithoutInit(t *testing.T) {
	var wg sync.WaitGroup
	loggers := make([]*slog.Logger, 16)
	for i := range loggers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			loggers[i] = Default()
		}(i)
	}
	wg.Wait()

	for _, l := range loggers {
		require.NotNil(t, l)
		assert.Same(t, loggers[0], l)
	}
}
