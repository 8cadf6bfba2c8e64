package transport

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/stretchr/testify/require"

	"kernelsidecar/protocol"
	"kernelsidecar/router"
)

func mustMarshalHeader(t *testing.T, session, msgType string) []byte {
	t.Helper()
	hdr, err := protocol.NewHeader(session, msgType)
	require.NoError(t, err)
	data, err := json.Marshal(hdr)
	require.NoError(t, err)
	return data
}

func mustMarshalParent(t *testing.T, msgID string) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]string{"msg_id": msgID})
	require.NoError(t, err)
	return data
}

func TestIOPubWorkerDeliversBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := zmq4.NewPub(ctx)
	require.NoError(t, pub.Listen("tcp://127.0.0.1:0"))
	addr := pub.Addr().String()

	r := router.New(4)
	worker, err := NewIOPubWorker(ctx, "tcp://"+addr, "secretkey", false, r)
	require.NoError(t, err)
	go worker.Run(ctx)

	// Give the subscriber time to connect and register its subscription
	// before the publisher sends; pub/sub has no synchronous handshake.
	time.Sleep(200 * time.Millisecond)

	header, err := protocol.NewHeader("session-1", "status")
	require.NoError(t, err)
	ch := r.Register(header.MsgID)

	require.NoError(t, pub.SendMulti(zmq4.NewMsgFrom(
		[]byte(protocol.Delimiter),
		[]byte("unused-signature"),
		mustMarshalHeader(t, "session-1", "status"),
		mustMarshalParent(t, header.MsgID),
		[]byte("{}"),
		[]byte(`{"execution_state":"idle"}`),
	)))

	select {
	case resp := <-ch:
		require.Equal(t, "status", resp.MsgType())
		require.Equal(t, header.MsgID, resp.ParentMsgID())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast status")
	}
}
