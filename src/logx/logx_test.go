package logx

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

var _ Logger = (*Logx)(nil)

func TestLevelByString(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, GetLoggerLevelByString("debug"))
	assert.Equal(t, zapcore.ErrorLevel, GetLoggerLevelByString("error"))
	assert.Equal(t, zapcore.InfoLevel, GetLoggerLevelByString("loud"))
}

func TestInitLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogx(zapcore.InfoLevel, false, false)
	l.InitLogger(&buf)

	l.Debugf("hidden %d", 1)
	l.With("task", "t1").Warnf("engine run failed: %s", "boom")
	l.Sync()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte{'\n'})
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["LEVEL"])
	assert.Equal(t, "engine run failed: boom", entry["MESSAGE"])
	assert.Equal(t, "t1", entry["task"])
}

func TestNopLogx(t *testing.T) {
	l := NewNopLogx()
	assert.NotPanics(t, func() {
		l.With("k", "v").Errorf("nothing %s", "here")
		l.Sync()
	})
}
