// Package goble implements ble.Client on top of github.com/go-ble/ble.
package goble

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gble "github.com/go-ble/ble"

	"blescope/internal/ble"
)

// txPowerAbsent is what go-ble reports when no Tx Power Level AD structure was present.
const txPowerAbsent = 127

// Client wraps a go-ble device (an HCI controller on Linux).
type Client struct {
	dev gble.Device
}

// Ensure Client implements ble.Client.
var _ ble.Client = (*Client)(nil)

// New opens HCI device hciN. Only supported on Linux.
func New(hciID int) (*Client, error) {
	dev, err := newDevice(hciID)
	if err != nil {
		return nil, fmt.Errorf("open hci%d: %w", hciID, err)
	}
	return &Client{dev: dev}, nil
}

// Close stops the underlying device.
func (c *Client) Close() error {
	return c.dev.Stop()
}

// Scan reports advertisements until ctx is done.
func (c *Client) Scan(ctx context.Context, handler func(ble.Device)) error {
	err := c.dev.Scan(ctx, true, func(a gble.Advertisement) {
		handler(deviceFromAdvertisement(a))
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Connect dials the peripheral at address.
func (c *Client) Connect(ctx context.Context, address string) (ble.Conn, error) {
	cln, err := c.dev.Dial(ctx, gble.NewAddr(address))
	if err != nil {
		return nil, err
	}
	return &conn{client: cln, address: address}, nil
}

func deviceFromAdvertisement(a gble.Advertisement) ble.Device {
	d := ble.Device{
		Address:     a.Addr().String(),
		Name:        a.LocalName(),
		RSSI:        a.RSSI(),
		Connectable: a.Connectable(),
	}
	for _, u := range a.Services() {
		d.ServiceUUIDs = append(d.ServiceUUIDs, ble.ShortUUID(u.String()))
	}
	if md := a.ManufacturerData(); len(md) >= 2 {
		// AD type 0xFF: company identifier (little-endian) followed by vendor bytes.
		id := uint16(md[0]) | uint16(md[1])<<8
		d.ManufacturerData = map[uint16][]byte{id: append([]byte(nil), md[2:]...)}
	}
	if p := a.TxPowerLevel(); p != txPowerAbsent {
		d.TxPower = &p
	}
	return d
}

type conn struct {
	client  gble.Client
	address string

	mu      sync.Mutex
	profile *gble.Profile
}

func (c *conn) Address() string { return c.address }

func (c *conn) Services(ctx context.Context) ([]ble.Service, error) {
	var p *gble.Profile
	err := withContext(ctx, func() error {
		var err error
		p, err = c.client.DiscoverProfile(true)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("discover profile: %w", err)
	}
	c.mu.Lock()
	c.profile = p
	c.mu.Unlock()

	out := make([]ble.Service, 0, len(p.Services))
	for _, s := range p.Services {
		svc := ble.Service{UUID: ble.ShortUUID(s.UUID.String())}
		for _, ch := range s.Characteristics {
			svc.Characteristics = append(svc.Characteristics, ble.Characteristic{
				UUID: ble.ShortUUID(ch.UUID.String()),
				// go-ble keeps the raw GATT properties octet.
				Properties: ble.Properties(ch.Property),
			})
		}
		out = append(out, svc)
	}
	return out, nil
}

func (c *conn) Read(ctx context.Context, charUUID string) ([]byte, error) {
	ch, err := c.characteristic(charUUID)
	if err != nil {
		return nil, err
	}
	var v []byte
	err = withContext(ctx, func() error {
		var err error
		v, err = c.client.ReadCharacteristic(ch)
		return err
	})
	return v, err
}

func (c *conn) Write(ctx context.Context, charUUID string, data []byte, withResponse bool) error {
	ch, err := c.characteristic(charUUID)
	if err != nil {
		return err
	}
	return withContext(ctx, func() error {
		return c.client.WriteCharacteristic(ch, data, !withResponse)
	})
}

func (c *conn) Disconnect() error {
	return c.client.CancelConnection()
}

func (c *conn) Done() <-chan struct{} {
	return c.client.Disconnected()
}

func (c *conn) characteristic(charUUID string) (*gble.Characteristic, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return nil, fmt.Errorf("%w: services not discovered", ble.ErrUnknownCharacteristic)
	}
	want := ble.NormalizeUUID(charUUID)
	for _, s := range c.profile.Services {
		for _, ch := range s.Characteristics {
			if ble.NormalizeUUID(ch.UUID.String()) == want {
				return ch, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ble.ErrUnknownCharacteristic, charUUID)
}

// withContext runs fn and returns early with ctx.Err() if ctx ends first.
// go-ble's GATT calls take no context; fn keeps running to completion in the background.
func withContext(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	go func() { errc <- fn() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
