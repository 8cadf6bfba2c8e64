package notebook

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"kernelsidecar/observer"
)

// Cell is the tagged variant of nbformat's three cell kinds.
type Cell interface {
	isCell()
	// CellType returns the nbformat cell_type discriminator.
	CellType() string
	// CellID returns the cell's id.
	CellID() string
}

// CodeCell is an executable cell and the only kind that carries outputs
// and an execution count.
type CodeCell struct {
	ID             string
	Source         string
	Metadata       json.RawMessage
	ExecutionCount *int
	Outputs        []observer.Output
}

func (*CodeCell) isCell()          {}
func (*CodeCell) CellType() string { return "code" }
func (c *CodeCell) CellID() string { return c.ID }

// MarkdownCell is a rendered-text cell.
type MarkdownCell struct {
	ID       string
	Source   string
	Metadata json.RawMessage
}

func (*MarkdownCell) isCell()          {}
func (*MarkdownCell) CellType() string { return "markdown" }
func (c *MarkdownCell) CellID() string { return c.ID }

// RawCell passes its source through unrendered.
type RawCell struct {
	ID       string
	Source   string
	Metadata json.RawMessage
}

func (*RawCell) isCell()          {}
func (*RawCell) CellType() string { return "raw" }
func (c *RawCell) CellID() string { return c.ID }

// wireCell is the nbformat JSON shape shared by every cell_type: source
// accepts either a string or an array of strings on input, and is always
// emitted as a single string on output; metadata defaults to {} rather
// than null. execution_count/outputs are code-cell-only and marshaled
// separately so an empty outputs list still round-trips as "outputs": []
// rather than being dropped.
type wireCell struct {
	CellType string          `json:"cell_type"`
	ID       string          `json:"id"`
	Source   json.RawMessage `json:"source"`
	Metadata json.RawMessage `json:"metadata"`
}

type wireCodeCell struct {
	wireCell
	ExecutionCount *int              `json:"execution_count"`
	Outputs        []json.RawMessage `json:"outputs"`
}

func normalizeMetadata(m json.RawMessage) json.RawMessage {
	if len(m) == 0 || bytes.Equal(bytes.TrimSpace(m), []byte("null")) {
		return []byte("{}")
	}
	return m
}

// sourceFromWire accepts nbformat's source field as either a JSON string
// or an array of strings, normalizing either form to a single string.
func sourceFromWire(data json.RawMessage) (string, error) {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		return asString, nil
	}
	var asLines []string
	if err := json.Unmarshal(data, &asLines); err != nil {
		return "", errors.New("source field is neither a string nor an array of strings")
	}
	return strings.Join(asLines, ""), nil
}

// MarshalCell encodes a Cell into its nbformat JSON object form. Source is
// always emitted as a single JSON string, regardless of which form it was
// read in as.
func MarshalCell(c Cell) (json.RawMessage, error) {
	source, err := json.Marshal(cellSource(c))
	if err != nil {
		return nil, err
	}
	wc := wireCell{
		CellType: c.CellType(),
		ID:       c.CellID(),
		Source:   source,
		Metadata: normalizeMetadata(cellMetadata(c)),
	}
	if cc, ok := c.(*CodeCell); ok {
		outputs, err := observer.MarshalOutputs(cc.Outputs)
		if err != nil {
			return nil, err
		}
		if outputs == nil {
			outputs = []json.RawMessage{}
		}
		return json.Marshal(wireCodeCell{wireCell: wc, ExecutionCount: cc.ExecutionCount, Outputs: outputs})
	}
	return json.Marshal(wc)
}

// UnmarshalCell parses an nbformat cell JSON object into its tagged Cell
// variant based on cell_type.
func UnmarshalCell(data json.RawMessage) (Cell, error) {
	var wc wireCell
	if err := json.Unmarshal(data, &wc); err != nil {
		return nil, errors.WithMessage(err, "unmarshaling cell")
	}
	source, err := sourceFromWire(wc.Source)
	if err != nil {
		return nil, errors.WithMessagef(err, "cell %s", wc.ID)
	}
	metadata := normalizeMetadata(wc.Metadata)

	switch wc.CellType {
	case "code":
		var wcc wireCodeCell
		if err := json.Unmarshal(data, &wcc); err != nil {
			return nil, errors.WithMessage(err, "unmarshaling code cell")
		}
		outputs := make([]observer.Output, 0, len(wcc.Outputs))
		for _, raw := range wcc.Outputs {
			o, err := observer.UnmarshalOutput(raw)
			if err != nil {
				return nil, errors.WithMessagef(err, "cell %s output", wc.ID)
			}
			outputs = append(outputs, o)
		}
		return &CodeCell{
			ID:             wc.ID,
			Source:         source,
			Metadata:       metadata,
			ExecutionCount: wcc.ExecutionCount,
			Outputs:        outputs,
		}, nil
	case "markdown":
		return &MarkdownCell{ID: wc.ID, Source: source, Metadata: metadata}, nil
	case "raw":
		return &RawCell{ID: wc.ID, Source: source, Metadata: metadata}, nil
	default:
		return nil, errors.Errorf("unrecognized cell_type %q", wc.CellType)
	}
}

func cellSource(c Cell) string {
	switch cc := c.(type) {
	case *CodeCell:
		return cc.Source
	case *MarkdownCell:
		return cc.Source
	case *RawCell:
		return cc.Source
	default:
		return ""
	}
}

func cellMetadata(c Cell) json.RawMessage {
	switch cc := c.(type) {
	case *CodeCell:
		return cc.Metadata
	case *MarkdownCell:
		return cc.Metadata
	case *RawCell:
		return cc.Metadata
	default:
		return nil
	}
}
