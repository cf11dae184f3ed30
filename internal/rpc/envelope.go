package rpc

// Request is an untyped, externally supplied JSON-RPC call. Handlers must
// defensively destructure and validate Params before use.
type Request struct {
	Method string `json:"method"`
	Params []any  `json:"params,omitempty"`
}

// Envelope is a JSON-RPC 2.0 response. Exactly one of Result and Error is set.
type Envelope struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// NewResultEnvelope wraps a handler result into a success envelope.
func NewResultEnvelope(id int64, result any) *Envelope {
	return &Envelope{JSONRPC: "2.0", ID: id, Result: result}
}

// NewErrorEnvelope wraps a coded error into an error envelope.
func NewErrorEnvelope(id int64, err *Error) *Envelope {
	return &Envelope{JSONRPC: "2.0", ID: id, Error: err}
}
