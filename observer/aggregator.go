package observer

import (
	"sync"

	"kernelsidecar/protocol"
)

// Aggregator collects the output stream of a single execution into an
// ordered slice, honoring clear_output(wait=...) semantics: a wait=true
// clear is deferred until the next output actually arrives, so a burst of
// "clearing, then immediately redrawing" never produces a visible blank
// frame.
type Aggregator struct {
	mu           sync.Mutex
	outputs      []Output
	clearOnNext  bool
	displayIndex map[string]int
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{displayIndex: make(map[string]int)}
}

// Observe implements Observer.
func (a *Aggregator) Observe(resp protocol.Response) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if clear, ok := resp.(protocol.ClearOutputResponse); ok {
		if clear.Wait {
			a.clearOnNext = true
		} else {
			a.clearLocked()
		}
		return
	}

	if upd, ok := resp.(protocol.UpdateDisplayDataResponse); ok {
		a.applyUpdateLocked(upd)
		return
	}

	output, ok := responseToOutput(resp)
	if !ok {
		return
	}
	if a.clearOnNext {
		a.clearLocked()
		a.clearOnNext = false
	}
	a.appendLocked(output)
}

func (a *Aggregator) clearLocked() {
	a.outputs = a.outputs[:0]
	a.displayIndex = make(map[string]int)
}

func (a *Aggregator) appendLocked(output Output) {
	if dd, ok := output.(DisplayDataOutput); ok {
		if id, ok := displayID(dd.Transient); ok {
			a.displayIndex[id] = len(a.outputs)
		}
	}
	a.outputs = append(a.outputs, output)
}

// applyUpdateLocked replaces the DisplayDataOutput previously recorded
// under the update's display id, if this Aggregator has seen one. An
// update whose display id was never displayed here is dropped: display
// ids are scoped per Aggregator, not tracked across an entire notebook.
func (a *Aggregator) applyUpdateLocked(upd protocol.UpdateDisplayDataResponse) {
	id, ok := displayID(upd.Transient)
	if !ok {
		return
	}
	idx, ok := a.displayIndex[id]
	if !ok {
		return
	}
	a.outputs[idx] = DisplayDataOutput{Data: upd.Data, Metadata: upd.Metadata, Transient: upd.Transient}
}

// Outputs returns a snapshot of the accumulated outputs.
func (a *Aggregator) Outputs() []Output {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Output, len(a.outputs))
	copy(out, a.outputs)
	return out
}
