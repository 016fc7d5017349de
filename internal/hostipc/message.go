package hostipc

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Error kinds produced by the channel itself.
const (
	ErrorKindBadRequest = "bad_request"
	ErrorKindInternal   = "internal_error"
)

// Request is one command invocation from the host.
type Request struct {
	ID      uint64             `msgpack:"id"`
	Command string             `msgpack:"command"`
	Args    msgpack.RawMessage `msgpack:"args,omitempty"`
}

// Response answers the request with the same ID. Exactly one of Result and
// Error is meaningful, selected by OK.
type Response struct {
	ID     uint64             `msgpack:"id"`
	OK     bool               `msgpack:"ok"`
	Result msgpack.RawMessage `msgpack:"result,omitempty"`
	Error  *ErrorBody         `msgpack:"error,omitempty"`
}

// ErrorBody is the text form of a failed command.
type ErrorBody struct {
	Kind    string `msgpack:"kind"`
	Message string `msgpack:"message"`
}

// idProbe recovers the id of a request whose other fields do not decode.
type idProbe struct {
	ID *uint64 `msgpack:"id"`
}

// DecodeRequest decodes a request payload.
func DecodeRequest(payload []byte) (*Request, error) {
	var req Request
	if err := msgpack.Unmarshal(payload, &req); err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode request", Err: err}
	}
	return &req, nil
}

// recoverID returns the request id in payload, if there is one.
func recoverID(payload []byte) (uint64, bool) {
	var probe idProbe
	if err := msgpack.Unmarshal(payload, &probe); err != nil || probe.ID == nil {
		return 0, false
	}
	return *probe.ID, true
}

// EncodeResponse encodes a response payload.
func EncodeResponse(resp *Response) ([]byte, error) {
	return msgpack.Marshal(resp)
}

// NewResult builds a successful response carrying result.
func NewResult(id uint64, result any) (*Response, error) {
	raw, err := msgpack.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Response{ID: id, OK: true, Result: raw}, nil
}

// NewError builds a failed response.
func NewError(id uint64, kind, message string) *Response {
	return &Response{ID: id, Error: &ErrorBody{Kind: kind, Message: message}}
}
