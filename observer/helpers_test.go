package observer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"kernelsidecar/protocol"
)

// encodeResponseForTest builds unsigned wire frames for a response parented
// to the given header, verification disabled at decode time.
func encodeResponseForTest(t *testing.T, parent protocol.Header, msgType string, content any) [][]byte {
	t.Helper()
	hdr, err := protocol.NewHeader(parent.Session, msgType)
	require.NoError(t, err)
	headerBytes, err := json.Marshal(hdr)
	require.NoError(t, err)
	parentBytes, err := json.Marshal(parent)
	require.NoError(t, err)
	contentBytes, err := json.Marshal(content)
	require.NoError(t, err)
	return [][]byte{
		[]byte("kernel"),
		[]byte(protocol.Delimiter),
		[]byte("unused-signature"),
		headerBytes,
		parentBytes,
		[]byte("{}"),
		contentBytes,
	}
}
