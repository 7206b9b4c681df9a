package v3

import (
	"net/url"
	"testing"

	"github.com/GriffinCanCode/bareclient/internal/bare"
	"github.com/GriffinCanCode/bareclient/internal/bare/header"
	"github.com/GriffinCanCode/bareclient/internal/transport/wsconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectMessageEncoding(t *testing.T) {
	remote, _ := url.Parse("wss://echo.example/socket?room=1")
	h := header.Header{
		{Name: "Host", Value: "echo.example"},
		{Name: "Accept-Language", Value: "en"},
		{Name: "accept-language", Value: "fr"},
		{Name: "Cookie", Value: "a=1"},
	}

	data, err := newConnectMessage(remote, []string{"chat", "superchat"}, h).encode()
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "connect",
		"remote": "wss://echo.example/socket?room=1",
		"protocols": ["chat", "superchat"],
		"headers": {"Host": "echo.example", "Accept-Language": "en, fr", "Cookie": "a=1"},
		"forwardHeaders": []
	}`, string(data))
	// Key order follows first appearance.
	assert.Contains(t, string(data), `{"Host":"echo.example","Accept-Language":"en, fr","Cookie":"a=1"}`)
}

func TestConnectMessageEmptyLists(t *testing.T) {
	remote, _ := url.Parse("ws://echo.example/")
	data, err := newConnectMessage(remote, nil, nil).encode()
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"connect","remote":"ws://echo.example/","protocols":[],"headers":{},"forwardHeaders":[]}`,
		string(data))
}

func TestDecodeOpen(t *testing.T) {
	msg, err := decodeOpen(wsconn.TextMessage, []byte(`{"type":"open","protocol":"chat","setCookies":["a=1"]}`))
	require.NoError(t, err)
	assert.Equal(t, "chat", msg.Protocol)
	assert.Equal(t, []string{"a=1"}, msg.SetCookies)
}

func TestDecodeOpenRejects(t *testing.T) {
	tests := []struct {
		name    string
		msgType int
		data    string
	}{
		{"binary", wsconn.BinaryMessage, `{"type":"open","protocol":"","setCookies":[]}`},
		{"not json", wsconn.TextMessage, `hello`},
		{"json array", wsconn.TextMessage, `["open"]`},
		{"wrong type", wsconn.TextMessage, `{"type":"error","protocol":""}`},
		{"missing type", wsconn.TextMessage, `{"protocol":"chat"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeOpen(tt.msgType, []byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, bare.ErrHandshake)

			var he *bare.HandshakeError
			require.ErrorAs(t, err, &he)
			assert.NotEmpty(t, he.Reason)
		})
	}
}
