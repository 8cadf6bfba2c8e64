package transport

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// HeartbeatWorker periodically pings the kernel's Rep socket and tracks
// whether replies keep arriving within the expected timeout, mirroring
// the liveness half of the teacher's heartbeat handling without the
// kernel's echo-server side.
type HeartbeatWorker struct {
	socket  zmq4.Socket
	period  time.Duration
	timeout time.Duration
	alive   atomic.Bool
}

// NewHeartbeatWorker dials addr as a Req socket.
func NewHeartbeatWorker(ctx context.Context, addr string, period, timeout time.Duration) (*HeartbeatWorker, error) {
	sock := zmq4.NewReq(ctx)
	if err := sock.Dial(addr); err != nil {
		return nil, errors.WithMessagef(err, "dialing heartbeat socket at %s", addr)
	}
	w := &HeartbeatWorker{socket: sock, period: period, timeout: timeout}
	w.alive.Store(true)
	return w, nil
}

// Alive reports whether the kernel answered the most recent completed
// ping. It is true before the first ping, turns false once a ping fails
// or goes unanswered past timeout, and turns true again when a reply
// arrives, even a late one.
func (w *HeartbeatWorker) Alive() bool { return w.alive.Load() }

// Run pings the kernel every period until ctx is cancelled. A Req socket
// only allows strict ping/pong alternation, so Run never starts a new
// ping while one is still outstanding: it waits for the send/recv
// goroutine to report back (even past its timeout) before issuing
// another Send, rather than abandoning it mid-flight.
func (w *HeartbeatWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	result := make(chan error, 1)
	pending := false
	var timeoutC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return w.socket.Close()

		case <-ticker.C:
			if pending {
				klog.Warningf("heartbeat: previous ping still outstanding, skipping tick")
				continue
			}
			pending = true
			timer := time.NewTimer(w.timeout)
			timeoutC = timer.C
			go w.sendRecv(result)

		case err := <-result:
			pending = false
			timeoutC = nil
			if err != nil {
				klog.Warningf("heartbeat: ping failed: %+v", err)
				w.alive.Store(false)
				continue
			}
			w.alive.Store(true)

		case <-timeoutC:
			klog.Warningf("heartbeat: ping timed out after %s", w.timeout)
			w.alive.Store(false)
			timeoutC = nil
		}
	}
}

// sendRecv performs one blocking ping/pong exchange and reports its
// outcome on result. Run only calls this once the previous call has
// reported back, so the Req socket never sees an overlapping Send.
func (w *HeartbeatWorker) sendRecv(result chan<- error) {
	if err := w.socket.Send(zmq4.NewMsg([]byte("ping"))); err != nil {
		result <- err
		return
	}
	_, err := w.socket.Recv()
	result <- err
}
