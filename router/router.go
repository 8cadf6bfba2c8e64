// Package router demultiplexes incoming wire frames to the in-flight
// request that originated them, keyed by msg_id.
package router

import (
	"context"
	"sync"

	"k8s.io/klog/v2"

	"kernelsidecar/protocol"
)

// defaultCapacity is the per-request channel buffer, bounding how many
// responses can queue for a request whose Action isn't draining fast
// enough before the sender blocks.
const defaultCapacity = 100

// Router maps outstanding request ids to the channel their responses are
// delivered on. One Router is shared by every transport worker and by the
// client's request-issuing side.
type Router struct {
	mu       sync.RWMutex
	routes   map[string]chan protocol.Response
	capacity int
}

// New creates a Router. capacity is the buffer size for each registered
// route; a value <= 0 uses the default.
func New(capacity int) *Router {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Router{
		routes:   make(map[string]chan protocol.Response),
		capacity: capacity,
	}
}

// Register allocates a response channel for msgID. Callers must register
// before transmitting the corresponding request, so no response can arrive
// before its route exists.
func (r *Router) Register(msgID string) <-chan protocol.Response {
	ch := make(chan protocol.Response, r.capacity)
	r.mu.Lock()
	r.routes[msgID] = ch
	r.mu.Unlock()
	return ch
}

// Deregister removes and closes msgID's route. Safe to call more than
// once; a second call is a no-op.
func (r *Router) Deregister(msgID string) {
	r.mu.Lock()
	ch, ok := r.routes[msgID]
	if ok {
		delete(r.routes, msgID)
	}
	r.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Route decodes a wire message and delivers it to the route matching its
// parent_header msg_id, if any. Responses with no known route (a stray
// broadcast, or one that arrived after Deregister) are logged and dropped.
// Delivery blocks once a route's channel is full, applying backpressure to
// the caller (normally a transport worker's receive loop) rather than
// dropping a response an Action is waiting on; ctx bounds that wait.
func (r *Router) Route(ctx context.Context, frames [][]byte, signingKey string, verify bool) error {
	resp, err := protocol.Decode(frames, signingKey, verify)
	if err != nil {
		return err
	}

	parentID := resp.ParentMsgID()
	r.mu.RLock()
	ch, ok := r.routes[parentID]
	r.mu.RUnlock()
	if !ok {
		klog.V(2).Infof("router: dropping %s response with no registered route (parent=%q)", resp.MsgType(), parentID)
		return nil
	}

	select {
	case ch <- resp:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// CloseAll deregisters and closes every outstanding route, unblocking any
// Action currently ranging over its channel. Used on client shutdown.
func (r *Router) CloseAll() {
	r.mu.Lock()
	routes := r.routes
	r.routes = make(map[string]chan protocol.Response)
	r.mu.Unlock()

	for _, ch := range routes {
		close(ch)
	}
}
