package transport

import (
	"context"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"kernelsidecar/router"
)

// IOPubWorker owns the Sub socket broadcasting execution outputs, status
// transitions, and stream text to every connected client.
type IOPubWorker struct {
	socket  zmq4.Socket
	router  *router.Router
	signKey string
	verify  bool
}

// NewIOPubWorker dials addr as a Sub socket subscribed to every topic: the
// kernel publishes with no topic prefix, so an empty subscription is the
// one that matches everything.
func NewIOPubWorker(ctx context.Context, addr, signKey string, verifySignatures bool, r *router.Router) (*IOPubWorker, error) {
	sock := zmq4.NewSub(ctx)
	if err := sock.Dial(addr); err != nil {
		return nil, errors.WithMessagef(err, "dialing iopub socket at %s", addr)
	}
	if err := sock.SetOption(zmq4.OptionSubscribe, ""); err != nil {
		return nil, errors.WithMessage(err, "subscribing to iopub topic")
	}
	return &IOPubWorker{socket: sock, router: r, signKey: signKey, verify: verifySignatures}, nil
}

// Run receives broadcasts until ctx is cancelled. IOPub is receive-only:
// there is no outbound queue to select against, so the blocking Recv call
// can run directly in this goroutine's loop.
func (w *IOPubWorker) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		w.socket.Close()
		close(done)
	}()

	for {
		msg, err := w.socket.Recv()
		select {
		case <-ctx.Done():
			<-done
			return nil
		default:
		}
		if err != nil {
			klog.Errorf("iopub: recv failed: %+v", err)
			return err
		}
		if err := w.router.Route(ctx, msg.Frames, w.signKey, w.verify); err != nil {
			klog.Errorf("iopub: routing failed: %+v", err)
		}
	}
}
