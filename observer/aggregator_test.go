package observer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kernelsidecar/protocol"
)

func decodeForTest(t *testing.T, msgType string, content any) protocol.Response {
	t.Helper()
	parent, err := protocol.NewHeader("s", "execute_request")
	require.NoError(t, err)
	frames := encodeResponseForTest(t, parent, msgType, content)
	resp, err := protocol.Decode(frames, "key", false)
	require.NoError(t, err)
	return resp
}

func TestAggregatorAccumulatesInOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Observe(decodeForTest(t, "stream", map[string]any{"name": "stdout", "text": "a"}))
	agg.Observe(decodeForTest(t, "stream", map[string]any{"name": "stdout", "text": "b"}))

	outputs := agg.Outputs()
	require.Len(t, outputs, 2)
	assert.Equal(t, "a", outputs[0].(StreamOutput).Text)
	assert.Equal(t, "b", outputs[1].(StreamOutput).Text)
}

func TestAggregatorClearOutputImmediate(t *testing.T) {
	agg := NewAggregator()
	agg.Observe(decodeForTest(t, "stream", map[string]any{"name": "stdout", "text": "a"}))
	agg.Observe(decodeForTest(t, "clear_output", map[string]any{"wait": false}))

	assert.Empty(t, agg.Outputs())
}

func TestAggregatorClearOutputWaitDeferred(t *testing.T) {
	agg := NewAggregator()
	agg.Observe(decodeForTest(t, "stream", map[string]any{"name": "stdout", "text": "a"}))
	agg.Observe(decodeForTest(t, "clear_output", map[string]any{"wait": true}))

	// The old output is still visible until the next output arrives.
	require.Len(t, agg.Outputs(), 1)

	agg.Observe(decodeForTest(t, "stream", map[string]any{"name": "stdout", "text": "b"}))

	outputs := agg.Outputs()
	require.Len(t, outputs, 1)
	assert.Equal(t, "b", outputs[0].(StreamOutput).Text)
}

func TestAggregatorUpdateDisplayData(t *testing.T) {
	agg := NewAggregator()
	agg.Observe(decodeForTest(t, "display_data", map[string]any{
		"data":      map[string]any{"text/plain": "v1"},
		"metadata":  map[string]any{},
		"transient": map[string]any{"display_id": "d1"},
	}))
	agg.Observe(decodeForTest(t, "update_display_data", map[string]any{
		"data":      map[string]any{"text/plain": "v2"},
		"metadata":  map[string]any{},
		"transient": map[string]any{"display_id": "d1"},
	}))

	outputs := agg.Outputs()
	require.Len(t, outputs, 1)
	dd := outputs[0].(DisplayDataOutput)
	assert.Equal(t, "v2", dd.Data["text/plain"])
}

func TestAggregatorUpdateUnknownDisplayIDIsDropped(t *testing.T) {
	agg := NewAggregator()
	agg.Observe(decodeForTest(t, "update_display_data", map[string]any{
		"data":      map[string]any{"text/plain": "v2"},
		"metadata":  map[string]any{},
		"transient": map[string]any{"display_id": "unknown"},
	}))
	assert.Empty(t, agg.Outputs())
}

func TestCounterTallies(t *testing.T) {
	c := NewCounter()
	c.Observe(decodeForTest(t, "stream", map[string]any{"name": "stdout", "text": "a"}))
	c.Observe(decodeForTest(t, "stream", map[string]any{"name": "stdout", "text": "b"}))
	c.Observe(decodeForTest(t, "status", map[string]any{"execution_state": "idle"}))

	assert.Equal(t, 2, c.Count("stream"))
	assert.Equal(t, 1, c.Count("status"))
	assert.Equal(t, 0, c.Count("error"))
}
