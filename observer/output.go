package observer

import (
	"encoding/json"

	"github.com/pkg/errors"

	"kernelsidecar/protocol"
)

// Output is the tagged variant of the four output kinds nbformat records
// against a code cell, each serialized with its own output_type tag.
type Output interface {
	isOutput()
	// OutputType returns the nbformat output_type discriminator, e.g.
	// "stream".
	OutputType() string
}

// StreamOutput carries stdout/stderr text.
type StreamOutput struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func (StreamOutput) isOutput()          {}
func (StreamOutput) OutputType() string { return "stream" }

// ExecuteResultOutput carries the repr of a cell's last expression.
type ExecuteResultOutput struct {
	ExecutionCount int              `json:"execution_count"`
	Data           protocol.MIMEMap `json:"data"`
	Metadata       protocol.MIMEMap `json:"metadata"`
}

func (ExecuteResultOutput) isOutput()          {}
func (ExecuteResultOutput) OutputType() string { return "execute_result" }

// DisplayDataOutput carries rich display data, possibly addressable by a
// display id for later replacement via update_display_data.
type DisplayDataOutput struct {
	Data      protocol.MIMEMap `json:"data"`
	Metadata  protocol.MIMEMap `json:"metadata"`
	Transient protocol.MIMEMap `json:"transient,omitempty"`
}

func (DisplayDataOutput) isOutput()          {}
func (DisplayDataOutput) OutputType() string { return "display_data" }

// ErrorOutput carries an exception raised during execution.
type ErrorOutput struct {
	Ename     string   `json:"ename"`
	Evalue    string   `json:"evalue"`
	Traceback []string `json:"traceback"`
}

func (ErrorOutput) isOutput()          {}
func (ErrorOutput) OutputType() string { return "error" }

// displayID extracts the "display_id" key from a transient map, if any.
func displayID(transient protocol.MIMEMap) (string, bool) {
	if transient == nil {
		return "", false
	}
	id, ok := transient["display_id"].(string)
	return id, ok && id != ""
}

// MarshalOutputs serializes a slice of Output into nbformat's output list
// form, each element tagged with output_type.
func MarshalOutputs(outputs []Output) ([]json.RawMessage, error) {
	raw := make([]json.RawMessage, 0, len(outputs))
	for _, o := range outputs {
		data, err := marshalOutput(o)
		if err != nil {
			return nil, err
		}
		raw = append(raw, data)
	}
	return raw, nil
}

func marshalOutput(o Output) (json.RawMessage, error) {
	body, err := json.Marshal(o)
	if err != nil {
		return nil, errors.WithMessagef(err, "marshaling %s output", o.OutputType())
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, errors.WithMessage(err, "re-decoding output for tagging")
	}
	tagValue, err := json.Marshal(o.OutputType())
	if err != nil {
		return nil, err
	}
	fields["output_type"] = tagValue
	return json.Marshal(fields)
}

// UnmarshalOutput parses a single nbformat output object into its tagged
// Output variant based on its output_type field.
func UnmarshalOutput(data json.RawMessage) (Output, error) {
	var tag struct {
		OutputType string `json:"output_type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, errors.WithMessage(err, "unmarshaling output_type")
	}
	switch tag.OutputType {
	case "stream":
		var o StreamOutput
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, errors.WithMessage(err, "unmarshaling stream output")
		}
		return o, nil
	case "execute_result":
		var o ExecuteResultOutput
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, errors.WithMessage(err, "unmarshaling execute_result output")
		}
		return o, nil
	case "display_data":
		var o DisplayDataOutput
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, errors.WithMessage(err, "unmarshaling display_data output")
		}
		return o, nil
	case "error":
		var o ErrorOutput
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, errors.WithMessage(err, "unmarshaling error output")
		}
		return o, nil
	default:
		return nil, errors.Errorf("unrecognized output_type %q", tag.OutputType)
	}
}

// responseToOutput converts the iopub response kinds that produce cell
// output into their Output form. The bool is false for responses that
// don't carry output (e.g. status).
func responseToOutput(resp protocol.Response) (Output, bool) {
	switch r := resp.(type) {
	case protocol.StreamResponse:
		return StreamOutput{Name: r.Name, Text: r.Text}, true
	case protocol.ExecuteResultResponse:
		return ExecuteResultOutput{ExecutionCount: r.ExecutionCount, Data: r.Data, Metadata: r.Metadata}, true
	case protocol.DisplayDataResponse:
		return DisplayDataOutput{Data: r.Data, Metadata: r.Metadata, Transient: r.Transient}, true
	case protocol.ErrorResponse:
		return ErrorOutput{Ename: r.Ename, Evalue: r.Evalue, Traceback: r.Traceback}, true
	default:
		return nil, false
	}
}
