package wsconn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Frame types, identical to RFC 6455 opcodes.
const (
	TextMessage   = websocket.TextMessage
	BinaryMessage = websocket.BinaryMessage
)

// Close codes used by the tunnel.
const (
	CloseNormal        = websocket.CloseNormalClosure
	CloseProtocolError = websocket.CloseProtocolError
	CloseAbnormal      = websocket.CloseAbnormalClosure
	CloseNoStatus      = websocket.CloseNoStatusReceived
)

const writeWait = 5 * time.Second

// ErrAbnormalClosure is returned when the connection dropped without a
// close frame.
var ErrAbnormalClosure = errors.New("websocket: connection closed abnormally")

// CloseError is returned by ReadMessage when the peer sent a close frame.
type CloseError struct {
	Code int
	Text string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("websocket closed: %d %s", e.Code, e.Text)
}

// Conn is one established WebSocket connection.
type Conn interface {
	// ReadMessage blocks for the next data frame.
	ReadMessage() (int, []byte, error)
	// WriteRaw sends one frame with the payload untouched.
	WriteRaw(msgType int, data []byte) error
	// WriteClose sends a close frame without tearing down the connection.
	WriteClose(code int, reason string) error
	// Close drops the underlying connection.
	Close() error
}

// Dialer opens WebSocket connections.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// GorillaDialer dials with gorilla/websocket.
type GorillaDialer struct {
	dialer websocket.Dialer
}

// NewDialer creates a dialer with no cookie jar.
func NewDialer() *GorillaDialer {
	d := *websocket.DefaultDialer
	d.Jar = nil
	return &GorillaDialer{dialer: d}
}

// Dial connects to url, sending header on the upgrade request.
func (g *GorillaDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	ws, resp, err := g.dialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return Wrap(ws), nil
}

// Wrap adapts an established gorilla connection.
func Wrap(ws *websocket.Conn) Conn {
	return &conn{ws: ws}
}

type conn struct {
	ws  *websocket.Conn
	wmu sync.Mutex
}

func (c *conn) ReadMessage() (int, []byte, error) {
	mt, data, err := c.ws.ReadMessage()
	if err != nil {
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			// 1006 is never sent on the wire; gorilla reports EOF with it.
			if ce.Code == CloseAbnormal {
				return 0, nil, fmt.Errorf("%w: %s", ErrAbnormalClosure, ce.Text)
			}
			return 0, nil, &CloseError{Code: ce.Code, Text: ce.Text}
		}
		return 0, nil, err
	}
	return mt, data, nil
}

func (c *conn) WriteRaw(msgType int, data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.ws.WriteMessage(msgType, data)
}

func (c *conn) WriteClose(code int, reason string) error {
	// WriteControl is safe alongside WriteMessage.
	return c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}

func (c *conn) Close() error {
	return c.ws.Close()
}
