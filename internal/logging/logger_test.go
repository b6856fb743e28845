package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNew_TeesIntoExtraWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(false, &buf)
	logger.Debug("hidden")
	logger.Info("dataset loaded", zap.Int("reviews", 3))
	_ = logger.Sync()

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "dataset loaded")
	assert.Contains(t, out, `"reviews": 3`)
	assert.NotContains(t, out, "hidden")
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(true, &buf)
	logger.Debug("inference request")
	assert.Contains(t, buf.String(), "inference request")
}
