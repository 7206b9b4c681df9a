package bare

import (
	"context"
	"io"
	"net/url"

	"github.com/GriffinCanCode/bareclient/internal/bare/header"
)

// Transport is implemented once per protocol version.
type Transport interface {
	// Init prepares the transport. Request and Connect fail until it succeeds.
	Init(ctx context.Context) error
	// Request performs one HTTP exchange with the remote origin.
	Request(ctx context.Context, req *Request) (*Response, error)
	// Connect opens one tunneled WebSocket. Events are delivered to handlers.
	Connect(ctx context.Context, opts ConnectOptions, handlers SocketHandlers) (Socket, error)
}

// Request is a logical request to the remote origin.
type Request struct {
	Remote  *url.URL
	Method  string
	Headers header.Header
	// Body is streamed to the tunnel when non-nil.
	Body io.Reader

	// ForwardHeaders names client headers the tunnel should forward as-is.
	ForwardHeaders []string
	// PassHeaders names remote response headers passed through unwrapped.
	PassHeaders []string
	// PassStatus lists remote statuses passed through unwrapped.
	PassStatus []int
}

// Response is what the remote origin returned, decoded from the tunnel.
type Response struct {
	// Status is zero when the tunnel omitted x-bare-status.
	Status        int
	StatusText    string
	HasStatusText bool
	Headers       header.Header
	// Body is the unbuffered physical body. The caller must close it.
	Body io.ReadCloser
}

// Incomplete reports whether the tunnel omitted the remote status.
func (r *Response) Incomplete() bool {
	return r.Status == 0
}

// MessageType identifies a WebSocket data frame.
type MessageType int

const (
	TextMessage   MessageType = 1
	BinaryMessage MessageType = 2
)

// String returns the string representation of the message type
func (t MessageType) String() string {
	switch t {
	case TextMessage:
		return "text"
	case BinaryMessage:
		return "binary"
	default:
		return "unknown"
	}
}

// Message is one WebSocket data frame.
type Message struct {
	Type MessageType
	Data []byte
}

// ConnectOptions describes a tunneled WebSocket.
type ConnectOptions struct {
	Remote    *url.URL
	Protocols []string
	Headers   header.Header
}

// SocketHandlers receive socket events. Nil handlers are skipped. All
// handlers of one socket run sequentially on a single goroutine.
type SocketHandlers struct {
	OnOpen       func(protocol, extensions string)
	OnMessage    func(msg Message)
	OnClose      func(code int, reason string)
	OnError      func(err error)
	OnSetCookies func(cookies []string)
}

// Socket is the control surface of one tunneled WebSocket.
type Socket interface {
	// Send writes a frame straight to the wire.
	Send(msg Message) error
	// Close starts the closing handshake.
	Close(code int, reason string) error
}
