package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
)

// MaxMessageSize bounds a single encoded request or reply.
const MaxMessageSize = 1 << 20

// WriteMessage encodes v as one line of JSON.
func WriteMessage(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryProtocol, "encode message").Build()
	}
	if len(data) > MaxMessageSize {
		return ferrors.ProtocolError("message too large").
			WithContext("size", len(data)).
			Build()
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryTransport, "write message").Build()
	}
	return nil
}

// readLine reads one newline-terminated message, enforcing MaxMessageSize.
func readLine(r io.Reader) ([]byte, error) {
	br := bufio.NewReaderSize(io.LimitReader(r, MaxMessageSize+1), 4096)
	line, err := br.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, ferrors.WrapError(err, ferrors.CategoryTransport, "read message").Build()
	}
	if len(line) > MaxMessageSize {
		return nil, ferrors.ProtocolError("message too large").Build()
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, ferrors.ProtocolError("empty message").Build()
	}
	return line, nil
}

// ReadRequest decodes and validates one request. Unknown fields are rejected.
func ReadRequest(r io.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	var req Request
	if err := dec.Decode(&req); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryProtocol, "invalid request JSON").Build()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// ReadReply decodes one reply. Unknown fields are tolerated so older clients
// keep working against newer daemons.
func ReadReply(r io.Reader) (*Reply, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	var reply Reply
	if err := json.Unmarshal(line, &reply); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryProtocol, "invalid reply JSON").Build()
	}
	return &reply, nil
}

// Validate checks the version and command shape.
func (r *Request) Validate() error {
	if r.Version != Version {
		return ferrors.ProtocolError("unsupported protocol version").
			WithContext("got", r.Version).
			WithContext("want", Version).
			Build()
	}
	if !r.Command.Kind.Valid() {
		return ferrors.ValidationError("unknown command").
			WithContext("kind", string(r.Command.Kind)).
			Build()
	}
	if r.Command.Kind == KindStart && len(r.Command.Identifiers) > 0 {
		return ferrors.ValidationError("start takes a name, not identifiers").Build()
	}
	return nil
}
