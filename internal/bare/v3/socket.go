package v3

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/bareclient/internal/bare"
	"github.com/GriffinCanCode/bareclient/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/bareclient/internal/logging"
	"github.com/GriffinCanCode/bareclient/internal/shared/id"
	"github.com/GriffinCanCode/bareclient/internal/transport/wsconn"
	"go.uber.org/zap"
)

// State is the lifecycle position of a tunneled socket.
type State int32

const (
	StateOpening State = iota
	StateHandshakeSent
	StateAwaitingOpen
	StateEstablished
	StateClosed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateHandshakeSent:
		return "handshake_sent"
	case StateAwaitingOpen:
		return "awaiting_open"
	case StateEstablished:
		return "established"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	handshakeFailedReason = "bare handshake failed"
	maxCloseReason        = 123
)

// Socket is one tunneled WebSocket. Handlers run on a single reader
// goroutine, one at a time, and never after OnClose.
type Socket struct {
	socketID     id.SocketID
	remote       string
	handlers     bare.SocketHandlers
	logger       *logging.Logger
	metrics      *monitoring.Metrics
	closeTimeout time.Duration

	mu         sync.Mutex
	state      State
	conn       wsconn.Conn
	closing    bool
	timedOut   bool
	closeTimer *time.Timer

	done chan struct{}
}

// Open dials the tunnel, sends the connect message and returns once the
// handshake is under way. ctx bounds the dial and the connect write only.
// Handshake completion is reported through handlers.
func (c *Client) Open(ctx context.Context, opts bare.ConnectOptions, handlers bare.SocketHandlers) (*Socket, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	if !validRemote(opts.Remote) {
		return nil, bare.ErrInvalidRemote
	}

	h := opts.Headers.Clone()
	h.Set("Host", opts.Remote.Host)
	h.Set("Upgrade", "websocket")
	h.Set("Connection", "Upgrade")
	payload, err := newConnectMessage(opts.Remote, opts.Protocols, h).encode()
	if err != nil {
		return nil, err
	}

	sid := id.NewSocketID()
	s := &Socket{
		socketID:     sid,
		remote:       opts.Remote.String(),
		handlers:     handlers,
		logger:       c.logger.Component("socket").With(zap.String("socket", sid.String()), zap.String("remote", opts.Remote.String())),
		metrics:      c.metrics,
		closeTimeout: c.closeTimeout,
		state:        StateOpening,
		done:         make(chan struct{}),
	}
	s.metrics.SocketTransition("", StateOpening.String())

	conn, err := c.dialer.Dial(ctx, c.endpoints.WebSocket.String(), nil)
	if err != nil {
		s.abandon(monitoring.OutcomeTransport)
		return nil, fmt.Errorf("bare: open %s: %w", s.remote, err)
	}
	s.conn = conn

	if err := conn.WriteRaw(wsconn.TextMessage, payload); err != nil {
		conn.Close()
		s.abandon(monitoring.OutcomeTransport)
		return nil, fmt.Errorf("bare: send connect message: %w", err)
	}
	s.setState(StateHandshakeSent)
	s.logger.Debug("connect message sent", zap.Strings("protocols", opts.Protocols))

	s.setState(StateAwaitingOpen)
	go s.run()
	return s, nil
}

// ID identifies the socket in logs.
func (s *Socket) ID() id.SocketID {
	return s.socketID
}

// State returns the current lifecycle state.
func (s *Socket) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed after OnClose has returned.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

// Send writes msg to the wire untouched. It fails with bare.ErrNotOpen
// until the handshake completes and with bare.ErrClosed once closing.
func (s *Socket) Send(msg bare.Message) error {
	s.mu.Lock()
	state, closing := s.state, s.closing
	s.mu.Unlock()

	switch {
	case state == StateClosed || closing:
		return bare.ErrClosed
	case state != StateEstablished:
		return bare.ErrNotOpen
	}
	if msg.Type != bare.TextMessage && msg.Type != bare.BinaryMessage {
		return fmt.Errorf("bare: unsupported message type %d", msg.Type)
	}

	if err := s.conn.WriteRaw(int(msg.Type), msg.Data); err != nil {
		return fmt.Errorf("bare: send: %w", err)
	}
	s.metrics.RecordFrame("out", msg.Type.String())
	return nil
}

// Close starts the closing handshake. Code 0 means 1000. OnClose fires when
// the peer answers or after the close timeout.
func (s *Socket) Close(code int, reason string) error {
	if code == 0 {
		code = wsconn.CloseNormal
	}
	if code != wsconn.CloseNormal && (code < 3000 || code > 4999) {
		return fmt.Errorf("%w: code %d", bare.ErrInvalidClose, code)
	}
	if len(reason) > maxCloseReason {
		return fmt.Errorf("%w: reason exceeds %d bytes", bare.ErrInvalidClose, maxCloseReason)
	}

	s.mu.Lock()
	if s.state == StateClosed || s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.closeTimer = time.AfterFunc(s.closeTimeout, s.expire)
	s.mu.Unlock()

	s.logger.Debug("closing", zap.Int("code", code), zap.String("reason", reason))
	if err := s.conn.WriteClose(code, reason); err != nil {
		s.conn.Close()
		return fmt.Errorf("bare: close: %w", err)
	}
	return nil
}

func (s *Socket) expire() {
	s.mu.Lock()
	s.timedOut = true
	s.mu.Unlock()
	s.logger.Debug("close timed out", zap.Duration("timeout", s.closeTimeout))
	s.conn.Close()
}

// run owns every read and every handler call.
func (s *Socket) run() {
	defer close(s.done)

	mt, data, err := s.conn.ReadMessage()
	if err != nil {
		s.metrics.RecordHandshake(monitoring.OutcomeTransport)
		s.readFailed(err)
		return
	}

	open, err := decodeOpen(mt, data)
	if err != nil {
		s.metrics.RecordHandshake(monitoring.OutcomeProtocol)
		s.logger.Warn("handshake rejected", zap.Error(err))
		s.emitError(err)
		_ = s.conn.WriteClose(wsconn.CloseProtocolError, handshakeFailedReason)
		s.finish(wsconn.CloseProtocolError, handshakeFailedReason)
		return
	}
	s.metrics.RecordHandshake(monitoring.OutcomeOK)

	s.mu.Lock()
	closing := s.closing
	s.mu.Unlock()
	s.setState(StateEstablished)

	if !closing {
		s.logger.Debug("established", zap.String("protocol", open.Protocol))
		if h := s.handlers.OnSetCookies; h != nil && len(open.SetCookies) > 0 {
			h(open.SetCookies)
		}
		if h := s.handlers.OnOpen; h != nil {
			h(open.Protocol, "")
		}
	}

	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			s.readFailed(err)
			return
		}

		s.mu.Lock()
		closing := s.closing
		s.mu.Unlock()
		if closing {
			continue
		}

		msgType := bare.MessageType(mt)
		s.metrics.RecordFrame("in", msgType.String())
		if h := s.handlers.OnMessage; h != nil {
			h(bare.Message{Type: msgType, Data: data})
		}
	}
}

func (s *Socket) readFailed(err error) {
	var ce *wsconn.CloseError
	if errors.As(err, &ce) {
		s.finish(ce.Code, ce.Text)
		return
	}

	s.mu.Lock()
	timedOut := s.timedOut
	s.mu.Unlock()
	if !timedOut {
		s.logger.Debug("read failed", zap.Error(err))
		s.emitError(err)
	}
	s.finish(wsconn.CloseAbnormal, "")
}

func (s *Socket) emitError(err error) {
	if h := s.handlers.OnError; h != nil {
		h(err)
	}
}

// finish moves to Closed and delivers OnClose. Only run calls it.
func (s *Socket) finish(code int, reason string) {
	s.mu.Lock()
	if s.closeTimer != nil {
		s.closeTimer.Stop()
	}
	s.mu.Unlock()

	s.setState(StateClosed)
	s.conn.Close()
	s.logger.Debug("closed", zap.Int("code", code), zap.String("reason", reason))

	if h := s.handlers.OnClose; h != nil {
		h(code, reason)
	}
}

// abandon drops a socket that never got a connection.
func (s *Socket) abandon(outcome string) {
	s.metrics.RecordHandshake(outcome)
	s.setState(StateClosed)
	close(s.done)
}

func (s *Socket) setState(to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()

	if from == to {
		return
	}
	if to == StateClosed {
		s.metrics.SocketTransition(from.String(), "")
		return
	}
	s.metrics.SocketTransition(from.String(), to.String())
}
