package protocol

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
)

// Delimiter is the literal frame separating the identity frames (if any)
// from the signed message body.
const Delimiter = "<IDS|MSG>"

// emptyObject is the canonical empty-object sentinel used for
// parent_header and metadata on outgoing requests, and recognised on
// decode as meaning "absent".
var emptyObject = []byte("{}")

// InvalidSignatureError is returned by Decode when signature verification
// is enabled and the computed HMAC doesn't match the transmitted one.
type InvalidSignatureError struct{}

func (*InvalidSignatureError) Error() string {
	return "protocol: message signature does not match signing key"
}

// sign computes the lowercase-hex HMAC-SHA256 over the concatenation of the
// four body frames, with no separators, per the wire protocol.
func sign(key, header, parentHeader, metadata, content []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(header)
	mac.Write(parentHeader)
	mac.Write(metadata)
	mac.Write(content)
	return hex.EncodeToString(mac.Sum(nil))
}

// EncodeRequest serializes a request into the 7-frame wire form: identity,
// delimiter, hmac, header, parent_header, metadata, content. Outgoing
// requests always carry the canonical empty object for parent_header and
// metadata.
func EncodeRequest(identity string, req Request, signingKey string) ([][]byte, error) {
	header, err := json.Marshal(req.Header())
	if err != nil {
		return nil, errors.WithMessage(err, "marshaling request header")
	}
	content, err := json.Marshal(req.Content())
	if err != nil {
		return nil, errors.WithMessage(err, "marshaling request content")
	}
	signature := sign(signingKey, header, emptyObject, emptyObject, content)

	return [][]byte{
		[]byte(identity),
		[]byte(Delimiter),
		[]byte(signature),
		header,
		emptyObject,
		emptyObject,
		content,
	}, nil
}

// decodedFrames holds the raw, still-unswitched pieces of a decoded wire
// message, after identity stripping and signature verification.
type decodedFrames struct {
	Header       Header
	ParentHeader *Header
	Metadata     json.RawMessage
	Content      json.RawMessage
}

// splitIdentity implements the identity-frame tolerance rule: a 7-frame
// message has a leading identity frame; a 6-frame message is assumed to
// already start at the delimiter, with a synthetic identity substituted.
// Any other frame count is an error.
func splitIdentity(frames [][]byte) (identity []byte, rest [][]byte, err error) {
	switch len(frames) {
	case 7:
		return frames[0], frames[1:], nil
	case 6:
		return []byte("missing-identity-frame"), frames, nil
	default:
		return nil, nil, errors.Errorf("protocol: expected 6 or 7 frames, got %d", len(frames))
	}
}

// decodeFrames parses a wire message into its raw components, verifying the
// delimiter is present and, if verify is true, that the HMAC signature
// matches.
func decodeFrames(frames [][]byte, signingKey string, verify bool) (decodedFrames, error) {
	_, rest, err := splitIdentity(frames)
	if err != nil {
		return decodedFrames{}, err
	}
	if string(rest[0]) != Delimiter {
		return decodedFrames{}, errors.Errorf("protocol: expected delimiter frame %q, got %q", Delimiter, rest[0])
	}
	signature := rest[1]
	headerBytes := rest[2]
	parentHeaderBytes := rest[3]
	metadataBytes := rest[4]
	contentBytes := rest[5]

	if verify {
		expected := sign(signingKey, headerBytes, parentHeaderBytes, metadataBytes, contentBytes)
		if !hmac.Equal([]byte(expected), signature) {
			return decodedFrames{}, errors.WithStack(&InvalidSignatureError{})
		}
	}

	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return decodedFrames{}, errors.WithMessage(err, "unmarshaling header")
	}

	var parentHeader *Header
	if !bytes.Equal(parentHeaderBytes, emptyObject) {
		var ph Header
		if err := json.Unmarshal(parentHeaderBytes, &ph); err != nil {
			return decodedFrames{}, errors.WithMessage(err, "unmarshaling parent_header")
		}
		parentHeader = &ph
	}

	return decodedFrames{
		Header:       header,
		ParentHeader: parentHeader,
		Metadata:     json.RawMessage(metadataBytes),
		Content:      json.RawMessage(contentBytes),
	}, nil
}

