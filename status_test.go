package llmlab_test

import (
	"testing"

	"github.com/fwojciec/llmlab"
	"github.com/stretchr/testify/assert"
)

func TestStatus_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "idle", llmlab.StatusIdle.String())
	assert.Equal(t, "streaming", llmlab.StatusStreaming.String())
	assert.Equal(t, "error", llmlab.StatusError.String())
	assert.Equal(t, "unknown", llmlab.Status(42).String())
}

func TestSnapshot_ZeroValue(t *testing.T) {
	t.Parallel()
	var s llmlab.Snapshot
	assert.Equal(t, llmlab.StatusIdle, s.Status)
	assert.False(t, s.Streaming())
	assert.Empty(t, s.Text)
	assert.NoError(t, s.Err)
}
