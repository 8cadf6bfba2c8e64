// Package client assembles the connection, transport, router, and action
// packages into the sidecar's public surface: dial a kernel, submit
// requests, and observe their responses.
package client

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"kernelsidecar/action"
	"kernelsidecar/connection"
	"kernelsidecar/observer"
	"kernelsidecar/protocol"
	"kernelsidecar/router"
	"kernelsidecar/transport"
)

const (
	defaultHeartbeatPeriod  = 5 * time.Second
	defaultHeartbeatTimeout = 3 * time.Second
	defaultIdentity         = "kernelsidecar-client"
	routeCapacity           = 100
)

// Client dials a kernel's shell, iopub, and heartbeat sockets and submits
// requests against it, fanning responses out through per-request Actions.
type Client struct {
	info      connection.Info
	session   string
	identity  string
	router    *router.Router
	shell     *transport.ShellWorker
	iopub     *transport.IOPubWorker
	heartbeat *transport.HeartbeatWorker

	cancel context.CancelFunc
	group  *errgroup.Group
}

// Option customizes Dial.
type Option func(*options)

type options struct {
	identity         string
	heartbeatPeriod  time.Duration
	heartbeatTimeout time.Duration
	verifySignatures bool
}

// WithIdentity overrides the identity frame EncodeRequest places at the
// head of each outgoing request. Defaults to "kernelsidecar-client". The
// shell worker drops that frame before sending, so it never reaches the
// kernel.
func WithIdentity(identity string) Option {
	return func(o *options) { o.identity = identity }
}

// WithHeartbeat overrides the heartbeat ping period and per-ping timeout.
func WithHeartbeat(period, timeout time.Duration) Option {
	return func(o *options) {
		o.heartbeatPeriod = period
		o.heartbeatTimeout = timeout
	}
}

// WithSignatureVerification enables HMAC verification of incoming
// messages against the connection file's key. Off by default since some
// kernels configure signature_scheme to "" (no signing).
func WithSignatureVerification(verify bool) Option {
	return func(o *options) { o.verifySignatures = verify }
}

// Dial connects to the kernel described by info and starts its transport
// workers. The returned Client's background goroutines run until ctx is
// cancelled or Close is called.
func Dial(ctx context.Context, info connection.Info, session string, opts ...Option) (*Client, error) {
	o := options{
		identity:         defaultIdentity,
		heartbeatPeriod:  defaultHeartbeatPeriod,
		heartbeatTimeout: defaultHeartbeatTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := router.New(routeCapacity)

	shell, err := transport.NewShellWorker(runCtx, info.ShellAddress(), o.identity, info.Key, o.verifySignatures, r)
	if err != nil {
		cancel()
		return nil, errors.WithMessage(err, "starting shell transport")
	}
	iopub, err := transport.NewIOPubWorker(runCtx, info.IOPubAddress(), info.Key, o.verifySignatures, r)
	if err != nil {
		cancel()
		return nil, errors.WithMessage(err, "starting iopub transport")
	}
	heartbeat, err := transport.NewHeartbeatWorker(runCtx, info.HeartbeatAddress(), o.heartbeatPeriod, o.heartbeatTimeout)
	if err != nil {
		cancel()
		return nil, errors.WithMessage(err, "starting heartbeat transport")
	}

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error { return shell.Run(groupCtx) })
	group.Go(func() error { return iopub.Run(groupCtx) })
	group.Go(func() error { return heartbeat.Run(groupCtx) })

	return &Client{
		info:      info,
		session:   session,
		identity:  o.identity,
		router:    r,
		shell:     shell,
		iopub:     iopub,
		heartbeat: heartbeat,
		cancel:    cancel,
		group:     group,
	}, nil
}

// Alive reports whether the heartbeat channel currently considers the
// kernel responsive.
func (c *Client) Alive() bool { return c.heartbeat.Alive() }

// Close stops every transport worker and unblocks any Action still
// waiting on a response, then waits for the workers to exit.
func (c *Client) Close() error {
	c.router.CloseAll()
	c.cancel()
	if err := c.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// submit registers a route for request, transmits it, and returns the
// Action that will drain its responses. It starts the Action's Run in its
// own goroutine, so callers must not call Run again.
func (c *Client) submit(ctx context.Context, req protocol.Request, observers []observer.Observer) (*action.Action, error) {
	msgID := req.Header().MsgID

	// Register before transmitting: a reply arriving before the route
	// exists would otherwise be dropped as unroutable.
	recv := c.router.Register(msgID)

	frames, err := protocol.EncodeRequest(c.identity, req, c.info.Key)
	if err != nil {
		c.router.Deregister(msgID)
		return nil, errors.WithMessage(err, "encoding request")
	}

	if err := c.shell.Send(ctx, frames); err != nil {
		c.router.Deregister(msgID)
		return nil, errors.WithMessage(err, "sending request")
	}

	a := action.New(req, observers, recv, func() { c.router.Deregister(msgID) })
	go a.Run()
	return a, nil
}

// KernelInfo submits a kernel_info_request and returns its Action.
func (c *Client) KernelInfo(ctx context.Context, observers ...observer.Observer) (*action.Action, error) {
	req, err := protocol.NewKernelInfoRequest(c.session)
	if err != nil {
		return nil, err
	}
	klog.V(3).Infof("client: submitting kernel_info_request %s", req.Header().MsgID)
	return c.submit(ctx, req, observers)
}

// Execute submits an execute_request and returns its Action.
func (c *Client) Execute(ctx context.Context, code string, execOpts []protocol.ExecuteOption, observers ...observer.Observer) (*action.Action, error) {
	req, err := protocol.NewExecuteRequest(c.session, code, execOpts...)
	if err != nil {
		return nil, err
	}
	klog.V(3).Infof("client: submitting execute_request %s", req.Header().MsgID)
	return c.submit(ctx, req, observers)
}
