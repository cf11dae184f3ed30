package rpc

import "fmt"

// ErrorCode is a JSON-RPC compatible numeric error code.
type ErrorCode int

// Error codes surfaced to embedded apps. Everything a handler rejects with
// must be expressible as one of these; anything else is reported as
// CodeInternal by the outer request wrapper.
const (
	CodeInvalidParams     ErrorCode = -32602
	CodeInternal          ErrorCode = -32000
	CodeUserRejected      ErrorCode = 4001
	CodeUnsupportedMethod ErrorCode = 4200
	CodeUnsupportedChain  ErrorCode = 4901
)

// Error is a tagged error carrying a JSON-RPC compatible code.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewError returns a coded RPC error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// ErrInvalidParams returns an INVALID_PARAMS error with the given message.
func ErrInvalidParams(message string) *Error {
	return NewError(CodeInvalidParams, message)
}

// ErrUserRejected returns the canonical USER_REJECTED error.
func ErrUserRejected() *Error {
	return NewError(CodeUserRejected, "User rejected the request")
}

// ErrUnsupportedChain returns the canonical UNSUPPORTED_CHAIN error.
func ErrUnsupportedChain() *Error {
	return NewError(CodeUnsupportedChain, "Unsupported chain")
}
