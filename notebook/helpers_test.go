package notebook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"kernelsidecar/protocol"
)

func decodeTestResponse(t *testing.T, msgType string, content any) protocol.Response {
	t.Helper()
	hdr, err := protocol.NewHeader("session-1", msgType)
	require.NoError(t, err)
	headerBytes, err := json.Marshal(hdr)
	require.NoError(t, err)
	contentBytes, err := json.Marshal(content)
	require.NoError(t, err)
	frames := [][]byte{
		[]byte("kernel"),
		[]byte(protocol.Delimiter),
		[]byte("unused-signature"),
		headerBytes,
		[]byte("{}"),
		[]byte("{}"),
		contentBytes,
	}
	resp, err := protocol.Decode(frames, "key", false)
	require.NoError(t, err)
	return resp
}
