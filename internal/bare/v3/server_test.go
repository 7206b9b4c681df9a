package v3

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/bareclient/internal/bare"
	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// wireConnect mirrors the connect message as a server sees it.
type wireConnect struct {
	Type           string            `json:"type"`
	Remote         string            `json:"remote"`
	Protocols      []string          `json:"protocols"`
	Headers        map[string]string `json:"headers"`
	ForwardHeaders []string          `json:"forwardHeaders"`
}

// fakeServer plays the tunnel side of both endpoints.
type fakeServer struct {
	*httptest.Server
	http func(w http.ResponseWriter, r *http.Request)
	ws   func(conn *websocket.Conn, msg wireConnect)
}

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

func newFakeServer(t *testing.T) *fakeServer {
	fs := &fakeServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()

			mt, data, err := conn.ReadMessage()
			if err != nil || mt != websocket.TextMessage {
				return
			}
			var msg wireConnect
			if err := sonic.Unmarshal(data, &msg); err != nil {
				return
			}
			if fs.ws != nil {
				fs.ws(conn, msg)
			}
			return
		}
		if fs.http != nil {
			fs.http(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) client(t *testing.T, opts ...Option) *Client {
	c, err := New(fs.URL+"/bare/v3/", opts...)
	require.NoError(t, err)
	require.NoError(t, c.Init(context.Background()))
	return c
}

func mustURL(t *testing.T, raw string) *url.URL {
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

// recorder collects socket events in delivery order.
type recorder struct {
	mu       sync.Mutex
	events   []string
	messages []bare.Message
	errs     []error
	cookies  []string
	protocol string
	code     int
	reason   string

	opened chan struct{}
	closed chan struct{}
}

func newRecorder() *recorder {
	return &recorder{opened: make(chan struct{}), closed: make(chan struct{})}
}

func (r *recorder) handlers() bare.SocketHandlers {
	return bare.SocketHandlers{
		OnOpen: func(protocol, extensions string) {
			r.mu.Lock()
			r.events = append(r.events, "open")
			r.protocol = protocol
			r.mu.Unlock()
			close(r.opened)
		},
		OnMessage: func(msg bare.Message) {
			r.mu.Lock()
			r.events = append(r.events, "message")
			r.messages = append(r.messages, msg)
			r.mu.Unlock()
		},
		OnClose: func(code int, reason string) {
			r.mu.Lock()
			r.events = append(r.events, "close")
			r.code, r.reason = code, reason
			r.mu.Unlock()
			close(r.closed)
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.events = append(r.events, "error")
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
		OnSetCookies: func(cookies []string) {
			r.mu.Lock()
			r.events = append(r.events, "cookies")
			r.cookies = cookies
			r.mu.Unlock()
		},
	}
}

func (r *recorder) waitOpen(t *testing.T) {
	select {
	case <-r.opened:
	case <-time.After(5 * time.Second):
		t.Fatal("socket did not open")
	}
}

func (r *recorder) waitClosed(t *testing.T) {
	select {
	case <-r.closed:
	case <-time.After(5 * time.Second):
		t.Fatal("socket did not close")
	}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}
