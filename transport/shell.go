// Package transport runs the ZeroMQ sockets that carry Jupyter messages
// between this client and a kernel: shell (request/reply), iopub
// (broadcast), and heartbeat (liveness).
package transport

import (
	"context"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"kernelsidecar/router"
)

// recvResult pairs a received multipart message with any error from the
// blocking Recv call that produced it, mirroring the teacher's polling
// goroutine shape.
type recvResult struct {
	msg zmq4.Msg
	err error
}

// ShellWorker owns the Dealer socket used to submit requests and receive
// their direct replies.
type ShellWorker struct {
	socket   zmq4.Socket
	router   *router.Router
	signKey  string
	identity string
	verify   bool

	outbound chan [][]byte
	recv     chan recvResult
}

// NewShellWorker dials addr as a Dealer socket.
func NewShellWorker(ctx context.Context, addr, identity, signKey string, verifySignatures bool, r *router.Router) (*ShellWorker, error) {
	sock := zmq4.NewDealer(ctx)
	if err := sock.Dial(addr); err != nil {
		return nil, errors.WithMessagef(err, "dialing shell socket at %s", addr)
	}
	return &ShellWorker{
		socket:   sock,
		router:   r,
		signKey:  signKey,
		identity: identity,
		verify:   verifySignatures,
		outbound: make(chan [][]byte, 16),
		recv:     make(chan recvResult, 16),
	}, nil
}

// Send queues a fully-encoded wire message for transmission. Blocks only
// if the outbound buffer is saturated.
func (w *ShellWorker) Send(ctx context.Context, frames [][]byte) error {
	select {
	case w.outbound <- frames:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the socket until ctx is cancelled: a background goroutine
// blocks on Recv, feeding a channel the main loop selects alongside the
// outbound queue, matching the teacher's poll-goroutine-plus-select-loop
// pattern for a single socket shared between sends and receives.
func (w *ShellWorker) Run(ctx context.Context) error {
	go func() {
		for {
			msg, err := w.socket.Recv()
			select {
			case w.recv <- recvResult{msg: msg, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return w.socket.Close()

		case frames := <-w.outbound:
			// A Dealer socket round-robins a plain multipart message; the
			// leading identity frame EncodeRequest produces is only there
			// for symmetry with decode and is never put on the wire here,
			// since the peer's Router socket prepends its own on receipt.
			if err := w.socket.SendMulti(zmq4.NewMsgFrom(frames[1:]...)); err != nil {
				klog.Errorf("shell: send failed: %+v", err)
			}

		case res := <-w.recv:
			if res.err != nil {
				klog.Errorf("shell: recv failed: %+v", res.err)
				continue
			}
			if err := w.router.Route(ctx, res.msg.Frames, w.signKey, w.verify); err != nil {
				klog.Errorf("shell: routing failed: %+v", err)
			}
		}
	}
}
