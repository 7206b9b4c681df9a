package v3

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidServer is returned when the server address cannot carry a tunnel.
var ErrInvalidServer = errors.New("bare: server must be an absolute http or https URL")

// Endpoints are the two tunnel addresses of one server.
type Endpoints struct {
	HTTP      *url.URL
	WebSocket *url.URL
}

// DeriveEndpoints maps http to ws and https to wss. Path and query are kept.
func DeriveEndpoints(server *url.URL) (Endpoints, error) {
	if server == nil || !server.IsAbs() || server.Host == "" {
		return Endpoints{}, ErrInvalidServer
	}

	httpURL := *server
	wsURL := *server
	switch strings.ToLower(server.Scheme) {
	case "http":
		wsURL.Scheme = "ws"
	case "https":
		wsURL.Scheme = "wss"
	default:
		return Endpoints{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidServer, server.Scheme)
	}
	httpURL.Scheme = strings.ToLower(server.Scheme)
	return Endpoints{HTTP: &httpURL, WebSocket: &wsURL}, nil
}
