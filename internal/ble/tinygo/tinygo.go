// Package tinygo implements ble.Client on top of tinygo.org/x/bluetooth,
// which drives BlueZ over D-Bus on Linux and CoreBluetooth on macOS.
//
// The stack does not expose characteristic properties, so every
// characteristic is reported as readable and writable. Reads that the
// peripheral refuses surface as per-characteristic read errors.
//
// On Linux the stack only offers write-without-response, so every write
// goes out without response there regardless of the requested mode.
package tinygo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"

	"blescope/internal/ble"
)

// maxAttributeLen is the largest value an ATT attribute may hold.
const maxAttributeLen = 512

// Client wraps a tinygo bluetooth adapter.
type Client struct {
	adapter *bluetooth.Adapter
	dial    func(bluetooth.Address) (bluetooth.Device, error)
	abandon func(bluetooth.Device) // drops a link nobody is waiting for

	mu      sync.Mutex
	seen    map[string]bluetooth.Address // address string -> platform address
	pending map[string]*conn             // live connections by address
}

// Ensure Client implements ble.Client.
var _ ble.Client = (*Client)(nil)

// New enables the default adapter.
func New() (*Client, error) {
	c := &Client{
		adapter: bluetooth.DefaultAdapter,
		seen:    make(map[string]bluetooth.Address),
		pending: make(map[string]*conn),
	}
	if err := c.adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable adapter: %w", err)
	}
	c.adapter.SetConnectHandler(c.onConnectChange)
	c.dial = func(addr bluetooth.Address) (bluetooth.Device, error) {
		return c.adapter.Connect(addr, bluetooth.ConnectionParams{})
	}
	c.abandon = func(dev bluetooth.Device) { _ = dev.Disconnect() }
	return c, nil
}

// Scan reports advertisements until ctx is done.
func (c *Client) Scan(ctx context.Context, handler func(ble.Device)) error {
	errc := make(chan error, 1)
	go func() {
		errc <- c.adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
			c.mu.Lock()
			c.seen[r.Address.String()] = r.Address
			c.mu.Unlock()
			handler(deviceFromScanResult(r))
		})
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		if err := c.adapter.StopScan(); err != nil {
			return fmt.Errorf("stop scan: %w", err)
		}
		return <-errc
	}
}

// Connect dials a peripheral previously reported by Scan.
func (c *Client) Connect(ctx context.Context, address string) (ble.Conn, error) {
	c.mu.Lock()
	addr, ok := c.seen[address]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("device %s was not seen in a scan", address)
	}

	type result struct {
		dev bluetooth.Device
		err error
	}
	resc := make(chan result, 1)
	go func() {
		dev, err := c.dial(addr)
		resc <- result{dev: dev, err: err}
	}()

	var res result
	select {
	case res = <-resc:
	case <-ctx.Done():
		// The dial cannot be interrupted; drop the link if it still succeeds.
		go func() {
			if late := <-resc; late.err == nil {
				c.abandon(late.dev)
			}
		}()
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}

	cn := &conn{dev: res.dev, address: address, done: make(chan struct{})}
	c.mu.Lock()
	c.pending[address] = cn
	c.mu.Unlock()
	return cn, nil
}

// Close drops every connection this client opened.
func (c *Client) Close() error {
	c.mu.Lock()
	conns := make([]*conn, 0, len(c.pending))
	for _, cn := range c.pending {
		conns = append(conns, cn)
	}
	c.pending = make(map[string]*conn)
	c.mu.Unlock()

	var errs []error
	for _, cn := range conns {
		if err := cn.Disconnect(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Client) onConnectChange(dev bluetooth.Device, connected bool) {
	if connected {
		return
	}
	key := dev.Address.String()
	c.mu.Lock()
	cn, ok := c.pending[key]
	delete(c.pending, key)
	c.mu.Unlock()
	if ok {
		cn.markDone()
	}
}

func deviceFromScanResult(r bluetooth.ScanResult) ble.Device {
	d := ble.Device{
		Address:     r.Address.String(),
		Name:        r.LocalName(),
		RSSI:        int(r.RSSI),
		Connectable: true,
	}
	for _, md := range r.ManufacturerData() {
		if d.ManufacturerData == nil {
			d.ManufacturerData = make(map[uint16][]byte)
		}
		d.ManufacturerData[md.CompanyID] = append([]byte(nil), md.Data...)
	}
	return d
}

type conn struct {
	dev     bluetooth.Device
	address string

	mu    sync.Mutex
	chars map[string]bluetooth.DeviceCharacteristic // normalized UUID -> characteristic

	once sync.Once
	done chan struct{}
}

func (c *conn) Address() string { return c.address }

func (c *conn) Services(ctx context.Context) ([]ble.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	svcs, err := c.dev.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("discover services: %w", err)
	}

	chars := make(map[string]bluetooth.DeviceCharacteristic)
	out := make([]ble.Service, 0, len(svcs))
	for _, s := range svcs {
		svc := ble.Service{UUID: ble.ShortUUID(s.UUID().String())}
		found, err := s.DiscoverCharacteristics(nil)
		if err != nil {
			return nil, fmt.Errorf("discover characteristics of %s: %w", svc.UUID, err)
		}
		for _, ch := range found {
			u := ch.UUID().String()
			chars[ble.NormalizeUUID(u)] = ch
			svc.Characteristics = append(svc.Characteristics, ble.Characteristic{
				UUID:       ble.ShortUUID(u),
				Properties: ble.PropRead | ble.PropWrite,
			})
		}
		out = append(out, svc)
	}

	c.mu.Lock()
	c.chars = chars
	c.mu.Unlock()
	return out, nil
}

func (c *conn) Read(ctx context.Context, charUUID string) ([]byte, error) {
	ch, err := c.characteristic(charUUID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, maxAttributeLen)
	n, err := ch.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (c *conn) Write(ctx context.Context, charUUID string, data []byte, withResponse bool) error {
	ch, err := c.characteristic(charUUID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeCharacteristic(ch, data, withResponse)
}

func (c *conn) Disconnect() error {
	err := c.dev.Disconnect()
	c.markDone()
	return err
}

func (c *conn) Done() <-chan struct{} { return c.done }

func (c *conn) markDone() {
	c.once.Do(func() { close(c.done) })
}

func (c *conn) characteristic(charUUID string) (bluetooth.DeviceCharacteristic, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.chars[ble.NormalizeUUID(charUUID)]
	if !ok {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("%w: %s", ble.ErrUnknownCharacteristic, charUUID)
	}
	return ch, nil
}
