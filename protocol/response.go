package protocol

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// MIMEMap holds rich display data keyed by MIME type. Values are usually
// strings (text/plain, text/html, ...) or base64-encoded strings for binary
// formats like image/png.
type MIMEMap = map[string]any

// Response is the tagged variant of every message this client may receive
// on the shell or iopub channel, parented to one of its own requests.
type Response interface {
	// Header returns the response's own header.
	Header() Header
	// ParentHeader returns the header of the request this response is
	// parented to, and whether one was present (false iff the wire
	// parent_header frame was the canonical empty object).
	ParentHeader() (Header, bool)
	// MsgType returns this response's own msg_type, e.g. "stream".
	MsgType() string
	// ParentMsgID returns the msg_id of the parent header, used for
	// routing. Returns "" if there is no parent header.
	ParentMsgID() string
}

// base is embedded by every concrete Response variant to share the header
// bookkeeping and avoid repeating the same four methods ten times over.
type base struct {
	Hdr    Header
	Parent *Header
}

func (b base) Header() Header  { return b.Hdr }
func (b base) MsgType() string { return b.Hdr.MsgType }
func (b base) ParentHeader() (Header, bool) {
	if b.Parent == nil {
		return Header{}, false
	}
	return *b.Parent, true
}
func (b base) ParentMsgID() string {
	if b.Parent == nil {
		return ""
	}
	return b.Parent.MsgID
}

// StatusResponse reports a kernel execution-state transition.
type StatusResponse struct {
	base
	ExecutionState string
}

// KernelInfoResponse is the reply to a kernel_info_request.
type KernelInfoResponse struct {
	base
	ProtocolVersion       string
	Implementation        string
	ImplementationVersion string
	LanguageInfo          LanguageInfo
	Banner                string
}

// LanguageInfo describes the language a kernel executes code in.
type LanguageInfo struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	MIMEType      string `json:"mimetype"`
	FileExtension string `json:"file_extension"`
}

// ExecuteResponse is the terminal reply to an execute_request.
type ExecuteResponse struct {
	base
	Status         string
	ExecutionCount int
	Ename          string
	Evalue         string
	Traceback      []string
}

// StreamResponse carries stdout/stderr text written during execution.
type StreamResponse struct {
	base
	Name string
	Text string
}

// ExecuteResultResponse carries the repr of the last expression of a cell.
type ExecuteResultResponse struct {
	base
	ExecutionCount int
	Data           MIMEMap
	Metadata       MIMEMap
}

// DisplayDataResponse carries rich display data.
type DisplayDataResponse struct {
	base
	Data      MIMEMap
	Metadata  MIMEMap
	Transient MIMEMap
}

// UpdateDisplayDataResponse asks the front-end to replace a previously
// displayed DisplayDataResponse sharing the same Transient["display_id"].
type UpdateDisplayDataResponse struct {
	base
	Data      MIMEMap
	Metadata  MIMEMap
	Transient MIMEMap
}

// ErrorResponse carries an exception raised during execution.
type ErrorResponse struct {
	base
	Ename     string
	Evalue    string
	Traceback []string
}

// ClearOutputResponse asks observers to clear accumulated outputs for the
// parent request's cell, possibly deferred until the next output arrives.
type ClearOutputResponse struct {
	base
	Wait bool
}

// UnmodeledResponse is the catch-all for any msg_type this taxonomy doesn't
// model, retaining the raw content JSON.
type UnmodeledResponse struct {
	base
	Raw json.RawMessage
}

// Decode parses a received wire frame list into a typed Response. Signature
// verification is performed only when verify is true; signingKey is ignored
// otherwise.
func Decode(frames [][]byte, signingKey string, verify bool) (Response, error) {
	df, err := decodeFrames(frames, signingKey, verify)
	if err != nil {
		return nil, err
	}
	b := base{Hdr: df.Header, Parent: df.ParentHeader}

	switch df.Header.MsgType {
	case "status":
		var c struct {
			ExecutionState string `json:"execution_state"`
		}
		if err := json.Unmarshal(df.Content, &c); err != nil {
			return nil, errors.WithMessage(err, "unmarshaling status content")
		}
		return StatusResponse{base: b, ExecutionState: c.ExecutionState}, nil

	case "kernel_info_reply":
		var c struct {
			ProtocolVersion       string       `json:"protocol_version"`
			Implementation        string       `json:"implementation"`
			ImplementationVersion string       `json:"implementation_version"`
			LanguageInfo          LanguageInfo `json:"language_info"`
			Banner                string       `json:"banner"`
		}
		if err := json.Unmarshal(df.Content, &c); err != nil {
			return nil, errors.WithMessage(err, "unmarshaling kernel_info_reply content")
		}
		return KernelInfoResponse{
			base:                  b,
			ProtocolVersion:       c.ProtocolVersion,
			Implementation:        c.Implementation,
			ImplementationVersion: c.ImplementationVersion,
			LanguageInfo:          c.LanguageInfo,
			Banner:                c.Banner,
		}, nil

	case "execute_reply":
		var c struct {
			Status         string   `json:"status"`
			ExecutionCount int      `json:"execution_count"`
			Ename          string   `json:"ename"`
			Evalue         string   `json:"evalue"`
			Traceback      []string `json:"traceback"`
		}
		if err := json.Unmarshal(df.Content, &c); err != nil {
			return nil, errors.WithMessage(err, "unmarshaling execute_reply content")
		}
		return ExecuteResponse{
			base:           b,
			Status:         c.Status,
			ExecutionCount: c.ExecutionCount,
			Ename:          c.Ename,
			Evalue:         c.Evalue,
			Traceback:      c.Traceback,
		}, nil

	case "stream":
		var c struct {
			Name string `json:"name"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(df.Content, &c); err != nil {
			return nil, errors.WithMessage(err, "unmarshaling stream content")
		}
		return StreamResponse{base: b, Name: c.Name, Text: c.Text}, nil

	case "execute_result":
		var c struct {
			ExecutionCount int     `json:"execution_count"`
			Data           MIMEMap `json:"data"`
			Metadata       MIMEMap `json:"metadata"`
		}
		if err := json.Unmarshal(df.Content, &c); err != nil {
			return nil, errors.WithMessage(err, "unmarshaling execute_result content")
		}
		return ExecuteResultResponse{
			base:           b,
			ExecutionCount: c.ExecutionCount,
			Data:           c.Data,
			Metadata:       c.Metadata,
		}, nil

	case "display_data":
		var c struct {
			Data      MIMEMap `json:"data"`
			Metadata  MIMEMap `json:"metadata"`
			Transient MIMEMap `json:"transient"`
		}
		if err := json.Unmarshal(df.Content, &c); err != nil {
			return nil, errors.WithMessage(err, "unmarshaling display_data content")
		}
		return DisplayDataResponse{base: b, Data: c.Data, Metadata: c.Metadata, Transient: c.Transient}, nil

	case "update_display_data":
		var c struct {
			Data      MIMEMap `json:"data"`
			Metadata  MIMEMap `json:"metadata"`
			Transient MIMEMap `json:"transient"`
		}
		if err := json.Unmarshal(df.Content, &c); err != nil {
			return nil, errors.WithMessage(err, "unmarshaling update_display_data content")
		}
		return UpdateDisplayDataResponse{base: b, Data: c.Data, Metadata: c.Metadata, Transient: c.Transient}, nil

	case "error":
		var c struct {
			Ename     string   `json:"ename"`
			Evalue    string   `json:"evalue"`
			Traceback []string `json:"traceback"`
		}
		if err := json.Unmarshal(df.Content, &c); err != nil {
			return nil, errors.WithMessage(err, "unmarshaling error content")
		}
		return ErrorResponse{base: b, Ename: c.Ename, Evalue: c.Evalue, Traceback: c.Traceback}, nil

	case "clear_output":
		var c struct {
			Wait bool `json:"wait"`
		}
		if err := json.Unmarshal(df.Content, &c); err != nil {
			return nil, errors.WithMessage(err, "unmarshaling clear_output content")
		}
		return ClearOutputResponse{base: b, Wait: c.Wait}, nil

	default:
		return UnmodeledResponse{base: b, Raw: df.Content}, nil
	}
}
