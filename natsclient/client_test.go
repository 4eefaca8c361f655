package natsclient

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/marlink/errors"
)

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", c.URL())
	assert.Equal(t, StatusDisconnected, c.Status())
	assert.False(t, c.IsHealthy())
	assert.Equal(t, -1, c.maxReconnects)
	assert.Equal(t, 2*time.Second, c.reconnectWait)
	assert.Equal(t, 30*time.Second, c.drainTimeout)
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestClientOptions(t *testing.T) {
	c, err := NewClient("nats://localhost:4222",
		WithMaxReconnects(3),
		WithReconnectWait(time.Second),
		WithTimeout(2*time.Second),
		WithDrainTimeout(5*time.Second),
		WithClientName("marlink-test"),
		WithCredentials("user", "pass"),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, c.maxReconnects)
	assert.Equal(t, time.Second, c.reconnectWait)
	assert.Equal(t, 2*time.Second, c.timeout)
	assert.Equal(t, 5*time.Second, c.drainTimeout)
	assert.Equal(t, "marlink-test", c.clientName)
	assert.Equal(t, "user", c.username)
}

func TestConnectionStatusString(t *testing.T) {
	assert.Equal(t, "disconnected", StatusDisconnected.String())
	assert.Equal(t, "connecting", StatusConnecting.String())
	assert.Equal(t, "connected", StatusConnected.String())
	assert.Equal(t, "reconnecting", StatusReconnecting.String())
	assert.Equal(t, "unknown", ConnectionStatus(99).String())
}

func TestPublishWhenNotConnected(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	err = c.Publish("marlink.reports", []byte("{}"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotConnected))
	assert.True(t, errors.IsTransient(err))
}

func TestSubscribeWhenNotConnected(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	err = c.Subscribe(context.Background(), "marlink.reports", func(context.Context, []byte) {})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotConnected))
}

func TestRTTWhenNotConnected(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	_, err = c.RTT()
	require.ErrorIs(t, err, errors.ErrNotConnected)
}

func TestCloseIdempotent(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Close(ctx))
	require.NoError(t, c.Close(ctx))
	assert.Equal(t, StatusDisconnected, c.Status())
}

func TestCloseClearsCredentials(t *testing.T) {
	c, err := NewClient("nats://localhost:4222",
		WithCredentials("user", "secret"),
		WithToken("token"))
	require.NoError(t, err)

	require.NoError(t, c.Close(context.Background()))
	assert.Empty(t, c.username)
	assert.Empty(t, c.password)
	assert.Empty(t, c.token)
}

func TestGetStatus(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	status := c.GetStatus()
	assert.Equal(t, StatusDisconnected, status.Status)
	assert.Zero(t, status.Reconnects)
	assert.Zero(t, status.RTT)
}
