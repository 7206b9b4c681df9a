package v3

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/bareclient/internal/bare"
	"github.com/GriffinCanCode/bareclient/internal/bare/header"
	"github.com/GriffinCanCode/bareclient/internal/transport/wsconn"
	"github.com/bytedance/sonic"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// connectMessage is the first frame a client sends on a tunneled socket.
type connectMessage struct {
	Type           string                                 `json:"type"`
	Remote         string                                 `json:"remote"`
	Protocols      []string                               `json:"protocols"`
	Headers        *orderedmap.OrderedMap[string, string] `json:"headers"`
	ForwardHeaders []string                               `json:"forwardHeaders"`
}

// openMessage is the first frame the server sends back.
type openMessage struct {
	Type       string   `json:"type"`
	Protocol   string   `json:"protocol"`
	SetCookies []string `json:"setCookies"`
}

func newConnectMessage(remote *url.URL, protocols []string, h header.Header) connectMessage {
	if protocols == nil {
		protocols = []string{}
	}
	return connectMessage{
		Type:           "connect",
		Remote:         remote.String(),
		Protocols:      protocols,
		Headers:        flattenHeaders(h),
		ForwardHeaders: []string{},
	}
}

func (m connectMessage) encode() ([]byte, error) {
	data, err := sonic.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode connect message: %w", err)
	}
	return data, nil
}

// decodeOpen accepts exactly one text frame holding {"type":"open"}.
func decodeOpen(msgType int, data []byte) (openMessage, error) {
	var msg openMessage
	if msgType != wsconn.TextMessage {
		return msg, &bare.HandshakeError{Reason: "first frame is not text"}
	}
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return msg, &bare.HandshakeError{Reason: "first frame is not a JSON object", Err: err}
	}
	if msg.Type != "open" {
		return msg, &bare.HandshakeError{Reason: fmt.Sprintf("unexpected message type %q", msg.Type)}
	}
	return msg, nil
}

// flattenHeaders folds repeated names into one comma separated value.
// Keys keep the spelling and position of their first occurrence.
func flattenHeaders(h header.Header) *orderedmap.OrderedMap[string, string] {
	out := orderedmap.New[string, string]()
	keys := make(map[string]string, len(h))
	for _, f := range h {
		lower := strings.ToLower(f.Name)
		key, seen := keys[lower]
		if !seen {
			keys[lower] = f.Name
			out.Set(f.Name, f.Value)
			continue
		}
		prev, _ := out.Get(key)
		out.Set(key, prev+", "+f.Value)
	}
	return out
}
