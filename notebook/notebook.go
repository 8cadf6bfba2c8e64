// Package notebook models an in-memory nbformat 4.5 document and the
// observer that writes an execution's output into one of its cells.
package notebook

import (
	"encoding/json"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"kernelsidecar/observer"
)

// Document is an in-memory nbformat notebook: an ordered list of cells
// plus the top-level metadata nbformat requires.
type Document struct {
	mu       sync.RWMutex
	cells    []Cell
	metadata json.RawMessage
}

// New creates an empty Document.
func New() *Document {
	return &Document{metadata: []byte("{}")}
}

// AddCode appends a new code cell with the given source and returns its
// id.
func (d *Document) AddCode(source string) (string, error) {
	id, err := newCellID()
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	d.cells = append(d.cells, &CodeCell{ID: id, Source: source, Metadata: []byte("{}")})
	d.mu.Unlock()
	return id, nil
}

// AddMarkdown appends a new markdown cell with the given source and
// returns its id.
func (d *Document) AddMarkdown(source string) (string, error) {
	id, err := newCellID()
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	d.cells = append(d.cells, &MarkdownCell{ID: id, Source: source, Metadata: []byte("{}")})
	d.mu.Unlock()
	return id, nil
}

// Cell returns the cell with the given id, if any.
func (d *Document) Cell(id string) (Cell, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.cells {
		if c.CellID() == id {
			return c, true
		}
	}
	return nil, false
}

// Cells returns a snapshot of the document's cells in order.
func (d *Document) Cells() []Cell {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Cell, len(d.cells))
	copy(out, d.cells)
	return out
}

// setCodeOutputs replaces a code cell's outputs in place, used by
// CellObserver to write accumulated output back into the document.
func (d *Document) setCodeOutputs(id string, outputs []observer.Output) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.cells {
		if cc, ok := c.(*CodeCell); ok && cc.ID == id {
			cc.Outputs = outputs
			return
		}
	}
}

func newCellID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", errors.WithMessage(err, "generating cell id")
	}
	return id.String(), nil
}
