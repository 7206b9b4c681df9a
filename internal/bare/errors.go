package bare

import (
	"errors"
	"fmt"
)

var (
	ErrNotReady      = errors.New("bare: transport not initialized")
	ErrInvalidRemote = errors.New("bare: remote must be an absolute URL")
	ErrNotOpen       = errors.New("bare: socket is not open")
	ErrClosed        = errors.New("bare: socket is closed")
	ErrHandshake     = errors.New("bare: handshake protocol violation")
	ErrProtocol      = errors.New("bare: malformed tunnel response")
	ErrInvalidClose  = errors.New("bare: invalid close code or reason")
)

// Fault is returned when the tunnel endpoint rejects a request. It is
// independent of any status the remote origin might have produced.
type Fault struct {
	Status int
	// Body is the decoded JSON body, or the raw text if it was not JSON.
	Body any
}

func (f *Fault) Error() string {
	if msg := f.Message(); msg != "" {
		return fmt.Sprintf("bare: tunnel fault %d: %s", f.Status, msg)
	}
	return fmt.Sprintf("bare: tunnel fault %d", f.Status)
}

// Code returns the "code" field of a JSON object body.
func (f *Fault) Code() string {
	return f.field("code")
}

// Message returns the "message" field of a JSON object body.
func (f *Fault) Message() string {
	return f.field("message")
}

func (f *Fault) field(key string) string {
	obj, ok := f.Body.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := obj[key].(string)
	return s
}

// HandshakeError describes why the first tunnel frame was rejected.
type HandshakeError struct {
	Reason string
	Err    error
}

func (e *HandshakeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrHandshake, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrHandshake, e.Reason)
}

// Is matches ErrHandshake.
func (e *HandshakeError) Is(target error) bool {
	return target == ErrHandshake
}

// Unwrap returns the underlying decode error, if any.
func (e *HandshakeError) Unwrap() error {
	return e.Err
}
