// Package protocol implements the Jupyter wire message taxonomy: the
// per-message header, the request/response tagged variants, and the
// multipart frame codec that signs and parses them.
package protocol

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
)

// ProtocolVersion is the Jupyter messaging protocol version this client
// reports in every outgoing header.
const ProtocolVersion = "5.3"

// Username is reported in the header of every request this client sends.
const Username = "kernelsidecar"

// Header carries the per-message metadata common to every request and
// response in the protocol.
type Header struct {
	MsgID    string `json:"msg_id"`
	Username string `json:"username"`
	Session  string `json:"session"`
	Date     string `json:"date"`
	MsgType  string `json:"msg_type"`
	Version  string `json:"version"`
}

// NewHeader builds a fresh header for an outgoing request: a new message id,
// the current timestamp, and the given session and message type.
func NewHeader(session, msgType string) (Header, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return Header{}, errors.WithMessage(err, "generating message id")
	}
	return Header{
		MsgID:    id.String(),
		Username: Username,
		Session:  session,
		Date:     time.Now().UTC().Format(time.RFC3339Nano),
		MsgType:  msgType,
		Version:  ProtocolVersion,
	}, nil
}
