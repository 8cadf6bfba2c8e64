package action

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kernelsidecar/observer"
	"kernelsidecar/protocol"
)

func respWithParent(t *testing.T, parentMsgID, msgType string, content any) protocol.Response {
	t.Helper()
	parent := protocol.Header{MsgID: parentMsgID}
	return decodeTestResponse(t, parent, msgType, content)
}

func TestActionCompletesOnTerminalAndIdle(t *testing.T) {
	req, err := protocol.NewKernelInfoRequest("session-1")
	require.NoError(t, err)

	recv := make(chan protocol.Response, 4)
	deregistered := make(chan struct{})
	counter := observer.NewCounter()
	a := New(req, []observer.Observer{counter}, recv, func() { close(deregistered) })

	go a.Run()

	recv <- respWithParent(t, req.Header().MsgID, "kernel_info_reply", map[string]any{"protocol_version": "5.3"})
	select {
	case <-a.Done():
		t.Fatal("action completed before idle status")
	case <-time.After(50 * time.Millisecond):
	}

	recv <- respWithParent(t, req.Header().MsgID, "status", map[string]any{"execution_state": "idle"})

	select {
	case <-a.Done():
	case <-time.After(time.Second):
		t.Fatal("action never completed")
	}
	assert.NoError(t, a.Err())
	// Run deregisters right after closing Done, so wait briefly for it.
	assert.Eventually(t, func() bool {
		select {
		case <-deregistered:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, counter.Count("kernel_info_reply"))
	assert.Equal(t, 1, counter.Count("status"))
}

func TestActionIgnoresIdleForOtherRequest(t *testing.T) {
	req, err := protocol.NewKernelInfoRequest("session-1")
	require.NoError(t, err)

	recv := make(chan protocol.Response, 4)
	a := New(req, nil, recv, func() {})
	go a.Run()

	recv <- respWithParent(t, "some-other-request", "status", map[string]any{"execution_state": "idle"})
	recv <- respWithParent(t, req.Header().MsgID, "kernel_info_reply", map[string]any{"protocol_version": "5.3"})

	select {
	case <-a.Done():
		t.Fatal("action completed without its own idle status")
	case <-time.After(50 * time.Millisecond):
	}

	recv <- respWithParent(t, req.Header().MsgID, "status", map[string]any{"execution_state": "idle"})
	select {
	case <-a.Done():
	case <-time.After(time.Second):
		t.Fatal("action never completed")
	}
}

func TestActionCancelledOnChannelClose(t *testing.T) {
	req, err := protocol.NewKernelInfoRequest("session-1")
	require.NoError(t, err)

	recv := make(chan protocol.Response)
	a := New(req, nil, recv, func() {})
	go a.Run()

	close(recv)

	select {
	case <-a.Done():
	case <-time.After(time.Second):
		t.Fatal("action never cancelled")
	}
	var cancelErr *CancelledError
	require.ErrorAs(t, a.Err(), &cancelErr)
}

func TestActionObserverPanicDoesNotStallDelivery(t *testing.T) {
	req, err := protocol.NewKernelInfoRequest("session-1")
	require.NoError(t, err)

	recv := make(chan protocol.Response, 4)
	counter := observer.NewCounter()
	panicObserver := observerFunc(func(protocol.Response) { panic("boom") })
	a := New(req, []observer.Observer{panicObserver, counter}, recv, func() {})
	go a.Run()

	recv <- respWithParent(t, req.Header().MsgID, "kernel_info_reply", map[string]any{"protocol_version": "5.3"})
	recv <- respWithParent(t, req.Header().MsgID, "status", map[string]any{"execution_state": "idle"})

	select {
	case <-a.Done():
	case <-time.After(time.Second):
		t.Fatal("action never completed despite panicking observer")
	}
	assert.Equal(t, 1, counter.Count("kernel_info_reply"))
}

type observerFunc func(protocol.Response)

func (f observerFunc) Observe(resp protocol.Response) { f(resp) }
