// Package action implements the request lifecycle: an Action tracks one
// outstanding request, fans every response it receives out to its
// observers, and completes once both its terminal reply and a matching
// idle status have been seen.
package action

import (
	"sync"

	"k8s.io/klog/v2"

	"kernelsidecar/observer"
	"kernelsidecar/protocol"
)

// CancelledError is returned by Err when an Action's Done channel closed
// because it was cancelled (client shutdown) rather than completed.
type CancelledError struct{}

func (*CancelledError) Error() string { return "action: cancelled before completion" }

// Action tracks one outstanding request from submission through
// completion: both its terminal reply (if any) and a subsequent idle
// status, parented to the same request, must arrive before it's done.
type Action struct {
	request          protocol.Request
	observers        []observer.Observer
	recv             <-chan protocol.Response
	deregister       func()
	expectedTerminal string
	hasTerminal      bool

	terminalSeen bool
	idleSeen     bool

	done     chan struct{}
	doneOnce sync.Once
	err      error
}

// New builds an Action for request, to be driven by Run. recv is the
// response channel the router delivers this request's responses on;
// deregister releases that route once the Action finishes, whether by
// completion or cancellation.
func New(request protocol.Request, observers []observer.Observer, recv <-chan protocol.Response, deregister func()) *Action {
	expected, hasTerminal := protocol.TerminalReply(request.MsgType())
	return &Action{
		request:          request,
		observers:        observers,
		recv:             recv,
		deregister:       deregister,
		expectedTerminal: expected,
		hasTerminal:      hasTerminal,
		done:             make(chan struct{}),
	}
}

// Request returns the request this Action is tracking.
func (a *Action) Request() protocol.Request { return a.request }

// Done returns a channel closed once the Action completes or is
// cancelled. Err distinguishes the two afterward.
func (a *Action) Done() <-chan struct{} { return a.done }

// Err returns nil for a normal completion, or a non-nil error (typically
// *CancelledError) if the Action ended without completing.
func (a *Action) Err() error { return a.err }

// Run drains responses from recv, invoking every observer in registration
// order for each one, until the dual completion condition is met or recv
// is closed out from under it (client shutdown). It should be run in its
// own goroutine; it returns once Done is closed.
func (a *Action) Run() {
	defer a.deregister()

	for resp := range a.recv {
		for _, obs := range a.observers {
			safeObserve(obs, resp)
		}

		if status, ok := resp.(protocol.StatusResponse); ok {
			if status.ExecutionState == "idle" && status.ParentMsgID() == a.request.Header().MsgID {
				a.idleSeen = true
			}
		} else if a.hasTerminal && resp.MsgType() == a.expectedTerminal && resp.ParentMsgID() == a.request.Header().MsgID {
			a.terminalSeen = true
		}

		if a.isComplete() {
			a.complete()
			return
		}
	}

	a.cancel()
}

func (a *Action) isComplete() bool {
	if a.hasTerminal {
		return a.terminalSeen && a.idleSeen
	}
	return a.idleSeen
}

func (a *Action) complete() {
	a.doneOnce.Do(func() { close(a.done) })
}

func (a *Action) cancel() {
	a.doneOnce.Do(func() {
		a.err = &CancelledError{}
		close(a.done)
	})
}

// safeObserve isolates a single Observer's panic so one misbehaving
// observer can't take down the Action's delivery loop or the others.
func safeObserve(obs observer.Observer, resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("action: observer %T panicked handling %s: %v", obs, resp.MsgType(), r)
		}
	}()
	obs.Observe(resp)
}
