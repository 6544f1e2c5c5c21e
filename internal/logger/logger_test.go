package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: "json"}, &buf)

	l.Info().Msg("被过滤")
	assert.Zero(t, buf.Len(), "info 级别日志应被过滤")

	l.Warn().Str("title", "Data Scientist").Msg("目录记录缺少资源")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Data Scientist", entry["title"])
	assert.Equal(t, "目录记录缺少资源", entry["message"])
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "loud", Format: "json"}, &buf)

	l.Debug().Msg("debug")
	assert.Zero(t, buf.Len())

	l.Info().Msg("info")
	assert.NotZero(t, buf.Len())
}

func TestNew_PrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "pretty", TimeFormat: "15:04:05"}, &buf)

	l.Info().Msg("服务启动")
	assert.Contains(t, buf.String(), "服务启动")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "pretty 格式不应输出 JSON")
}
