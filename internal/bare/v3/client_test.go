package v3

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/GriffinCanCode/bareclient/internal/bare"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c, err := New("https://proxy.example/bare/v3/", WithCloseTimeout(time.Second))
	require.NoError(t, err)

	assert.Equal(t, "wss://proxy.example/bare/v3/", c.Endpoints().WebSocket.String())
	assert.Equal(t, time.Second, c.closeTimeout)
	assert.NotNil(t, c.http)
	assert.NotNil(t, c.dialer)
	assert.NotNil(t, c.logger)
}

func TestNewRejectsServer(t *testing.T) {
	_, err := New("ftp://proxy.example/")
	assert.ErrorIs(t, err, ErrInvalidServer)

	_, err = New("://bad")
	assert.Error(t, err)
}

func TestNotReadyUntilInit(t *testing.T) {
	c, err := New("http://localhost:1/")
	require.NoError(t, err)
	remote, _ := url.Parse("https://example.com/")

	_, err = c.Request(context.Background(), &bare.Request{Remote: remote})
	assert.ErrorIs(t, err, bare.ErrNotReady)

	_, err = c.Connect(context.Background(), bare.ConnectOptions{Remote: remote}, bare.SocketHandlers{})
	assert.ErrorIs(t, err, bare.ErrNotReady)

	require.NoError(t, c.Init(context.Background()))
	assert.NoError(t, c.checkReady())
}

func TestInitHonorsContext(t *testing.T) {
	c, err := New("http://localhost:1/")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Init(ctx), context.Canceled)
	assert.ErrorIs(t, c.checkReady(), bare.ErrNotReady)
}
