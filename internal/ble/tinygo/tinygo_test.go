package tinygo

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/bluetooth"

	"blescope/internal/ble"
)

func TestConn_UnknownCharacteristic(t *testing.T) {
	c := &conn{address: "AA:BB", done: make(chan struct{})}

	_, err := c.Read(context.Background(), "2A37")
	require.Error(t, err)
	assert.ErrorIs(t, err, ble.ErrUnknownCharacteristic)

	err = c.Write(context.Background(), "2A37", []byte{1}, true)
	assert.ErrorIs(t, err, ble.ErrUnknownCharacteristic)
}

func TestConn_MarkDoneIsIdempotent(t *testing.T) {
	c := &conn{done: make(chan struct{})}
	c.markDone()
	c.markDone()
	_, open := <-c.Done()
	assert.False(t, open)
}

func TestClient_ConnectRequiresScan(t *testing.T) {
	c := &Client{seen: map[string]bluetooth.Address{}, pending: map[string]*conn{}}
	_, err := c.Connect(context.Background(), "AA:BB:CC:DD:EE:FF")
	assert.ErrorContains(t, err, "not seen in a scan")
}

func TestWriteResponseSupport(t *testing.T) {
	assert.Equal(t, runtime.GOOS != "linux", writeResponseSupported)
}

func seenClient(address string) *Client {
	return &Client{
		seen:    map[string]bluetooth.Address{address: {}},
		pending: map[string]*conn{},
	}
}

func TestClient_ConnectTimeoutDropsLateLink(t *testing.T) {
	const addr = "AA:BB:CC:DD:EE:FF"
	release := make(chan struct{})
	abandoned := make(chan struct{}, 1)
	c := seenClient(addr)
	c.dial = func(bluetooth.Address) (bluetooth.Device, error) {
		<-release
		return bluetooth.Device{}, nil
	}
	c.abandon = func(bluetooth.Device) { abandoned <- struct{}{} }

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Connect(ctx, addr)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	select {
	case <-abandoned:
	case <-time.After(time.Second):
		t.Fatal("late connection was not dropped")
	}
	assert.Empty(t, c.pending)
}

func TestClient_ConnectTimeoutIgnoresLateFailure(t *testing.T) {
	const addr = "AA:BB:CC:DD:EE:FF"
	release := make(chan struct{})
	dialed := make(chan struct{})
	c := seenClient(addr)
	c.dial = func(bluetooth.Address) (bluetooth.Device, error) {
		defer close(dialed)
		<-release
		return bluetooth.Device{}, errors.New("page timeout")
	}
	c.abandon = func(bluetooth.Device) { t.Error("failed dial must not be dropped") }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Connect(ctx, addr)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	<-dialed
}
