// Package observer defines the callback interface invoked for every
// response an Action receives, along with the concrete observers this
// client ships: output aggregation, message counting, and debug tracing.
package observer

import "kernelsidecar/protocol"

// Observer is notified of every response belonging to the Action it was
// registered on, in the order the responses arrived. Observe must not
// panic and carries no return value: an Action's delivery loop invokes
// every registered Observer in turn and keeps going regardless of what
// any one of them does internally.
type Observer interface {
	Observe(resp protocol.Response)
}
