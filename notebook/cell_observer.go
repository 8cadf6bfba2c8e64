package notebook

import (
	"kernelsidecar/observer"
	"kernelsidecar/protocol"
)

// CellObserver writes a running execution's output into one cell of a
// Document, built on top of an Aggregator for the clear_output and
// update_display_data bookkeeping.
type CellObserver struct {
	doc    *Document
	cellID string
	agg    *observer.Aggregator
}

// NewCellObserver returns an observer that accumulates output for cellID
// into doc as responses arrive.
func NewCellObserver(doc *Document, cellID string) *CellObserver {
	return &CellObserver{doc: doc, cellID: cellID, agg: observer.NewAggregator()}
}

// Observe implements observer.Observer.
func (c *CellObserver) Observe(resp protocol.Response) {
	c.agg.Observe(resp)
	c.doc.setCodeOutputs(c.cellID, c.agg.Outputs())
}
