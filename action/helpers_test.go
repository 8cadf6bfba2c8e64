package action

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"kernelsidecar/protocol"
)

// decodeTestResponse builds unsigned wire frames for msgType/content
// parented to parent, then decodes them through the real protocol package
// so tests exercise actual Response values rather than hand-rolled stubs.
func decodeTestResponse(t *testing.T, parent protocol.Header, msgType string, content any) protocol.Response {
	t.Helper()
	hdr, err := protocol.NewHeader("session-1", msgType)
	require.NoError(t, err)
	headerBytes, err := json.Marshal(hdr)
	require.NoError(t, err)
	parentBytes, err := json.Marshal(parent)
	require.NoError(t, err)
	contentBytes, err := json.Marshal(content)
	require.NoError(t, err)
	frames := [][]byte{
		[]byte("kernel"),
		[]byte(protocol.Delimiter),
		[]byte("unused-signature"),
		headerBytes,
		parentBytes,
		[]byte("{}"),
		contentBytes,
	}
	resp, err := protocol.Decode(frames, "key", false)
	require.NoError(t, err)
	return resp
}
