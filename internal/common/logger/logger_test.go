package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARNING"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestMapToZapFields(t *testing.T) {
	assert.Nil(t, mapToZapFields(nil))

	fields := mapToZapFields(map[string]interface{}{
		"sessionId": "abc",
		"error":     errors.New("boom"),
	})
	assert.Len(t, fields, 2)
}

func TestForComponent(t *testing.T) {
	l := ForComponent(NewTestLogger(t), "classifier")
	assert.NotNil(t, l)
	l.Info("stage fired", map[string]interface{}{"stage": "date"})

	assert.NotNil(t, ForComponent(nil, "router"))
}
