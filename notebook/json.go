package notebook

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// NbformatVersion and NbformatMinorVersion are the schema version this
// package reads and writes.
const (
	NbformatVersion      = 4
	NbformatMinorVersion = 5
)

type wireDocument struct {
	Cells         []json.RawMessage `json:"cells"`
	Metadata      json.RawMessage   `json:"metadata"`
	Nbformat      int               `json:"nbformat"`
	NbformatMinor int               `json:"nbformat_minor"`
}

// MarshalJSON encodes the document as an nbformat 4.5 JSON notebook.
func (d *Document) MarshalJSON() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cells := make([]json.RawMessage, 0, len(d.cells))
	for _, c := range d.cells {
		raw, err := MarshalCell(c)
		if err != nil {
			return nil, err
		}
		cells = append(cells, raw)
	}
	return json.Marshal(wireDocument{
		Cells:         cells,
		Metadata:      normalizeMetadata(d.metadata),
		Nbformat:      NbformatVersion,
		NbformatMinor: NbformatMinorVersion,
	})
}

// UnmarshalJSON parses an nbformat JSON notebook into the document,
// replacing any existing cells.
func (d *Document) UnmarshalJSON(data []byte) error {
	var wd wireDocument
	if err := json.Unmarshal(data, &wd); err != nil {
		return errors.WithMessage(err, "unmarshaling notebook")
	}

	cells := make([]Cell, 0, len(wd.Cells))
	for _, raw := range wd.Cells {
		c, err := UnmarshalCell(raw)
		if err != nil {
			return err
		}
		cells = append(cells, c)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.cells = cells
	d.metadata = normalizeMetadata(wd.Metadata)
	return nil
}
