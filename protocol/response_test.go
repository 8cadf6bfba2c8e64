package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// encodeResponse is a test helper standing in for a kernel: builds the wire
// frames for a response parented to the given request header.
func encodeResponse(t *testing.T, parent Header, msgType string, content any, key string) [][]byte {
	t.Helper()
	hdr, err := NewHeader(parent.Session, msgType)
	require.NoError(t, err)
	headerBytes, err := json.Marshal(hdr)
	require.NoError(t, err)
	parentBytes, err := json.Marshal(parent)
	require.NoError(t, err)
	contentBytes, err := json.Marshal(content)
	require.NoError(t, err)
	metadataBytes := emptyObject
	signature := sign(key, headerBytes, parentBytes, metadataBytes, contentBytes)
	return [][]byte{
		[]byte("kernel"),
		[]byte(Delimiter),
		[]byte(signature),
		headerBytes,
		parentBytes,
		metadataBytes,
		contentBytes,
	}
}

func TestDecodeTaxonomy(t *testing.T) {
	parent, err := NewHeader("session-1", "execute_request")
	require.NoError(t, err)

	cases := []struct {
		name    string
		msgType string
		content any
		check   func(t *testing.T, resp Response)
	}{
		{"status", "status", map[string]any{"execution_state": "idle"}, func(t *testing.T, resp Response) {
			s, ok := resp.(StatusResponse)
			require.True(t, ok)
			require.Equal(t, "idle", s.ExecutionState)
		}},
		{"stream", "stream", map[string]any{"name": "stdout", "text": "hello\n"}, func(t *testing.T, resp Response) {
			s, ok := resp.(StreamResponse)
			require.True(t, ok)
			require.Equal(t, "stdout", s.Name)
			require.Equal(t, "hello\n", s.Text)
		}},
		{"execute_reply", "execute_reply", map[string]any{"status": "ok", "execution_count": 3}, func(t *testing.T, resp Response) {
			e, ok := resp.(ExecuteResponse)
			require.True(t, ok)
			require.Equal(t, "ok", e.Status)
			require.Equal(t, 3, e.ExecutionCount)
		}},
		{"clear_output wait", "clear_output", map[string]any{"wait": true}, func(t *testing.T, resp Response) {
			c, ok := resp.(ClearOutputResponse)
			require.True(t, ok)
			require.True(t, c.Wait)
		}},
		{"unmodeled", "comm_open", map[string]any{"foo": "bar"}, func(t *testing.T, resp Response) {
			u, ok := resp.(UnmodeledResponse)
			require.True(t, ok)
			require.JSONEq(t, `{"foo":"bar"}`, string(u.Raw))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frames := encodeResponse(t, parent, tc.msgType, tc.content, "secretkey")
			resp, err := Decode(frames, "secretkey", true)
			require.NoError(t, err)
			require.Equal(t, parent.MsgID, resp.ParentMsgID())
			tc.check(t, resp)
		})
	}
}
