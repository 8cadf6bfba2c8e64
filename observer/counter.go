package observer

import (
	"sync"

	"kernelsidecar/common"
	"kernelsidecar/protocol"
)

// Counter tallies responses by msg_type, primarily useful in tests and
// for introspecting what an Action actually saw.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewCounter creates an empty Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Observe implements Observer.
func (c *Counter) Observe(resp protocol.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[resp.MsgType()]++
}

// Count returns how many responses of the given msg_type have been seen.
func (c *Counter) Count(msgType string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[msgType]
}

// Counts returns a snapshot of every msg_type tallied so far.
func (c *Counter) Counts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// MsgTypes returns the msg_types seen so far, sorted, for deterministic
// display.
func (c *Counter) MsgTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.SortedKeys(c.counts)
}
