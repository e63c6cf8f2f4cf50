// Package mock provides a scripted in-memory ble.Client for tests and demo runs.
package mock

import (
	"context"
	"fmt"
	"sync"

	"blescope/internal/ble"
)

// Peripheral describes what a connected device exposes.
type Peripheral struct {
	Services []ble.Service
	Values   map[string][]byte // normalized char UUID -> value
	ReadErrs map[string]error  // normalized char UUID -> error returned by Read
	WriteErr error
}

// Write records one call to Conn.Write.
type Write struct {
	Address      string
	CharUUID     string
	Data         []byte
	WithResponse bool
}

// Client is a scripted ble.Client. Configure the exported fields before use.
// Safe for concurrent use.
type Client struct {
	Devices       []ble.Device
	ScanErr       error
	ConnectErr    error
	ServicesErr   error
	DisconnectErr error
	Peripherals   map[string]*Peripheral // address -> peripheral

	mu         sync.Mutex
	scans      int
	connects   int
	reads      map[string]int
	writes     []Write
	disconnect int
	conns      []*Conn
}

// Ensure Client implements ble.Client.
var _ ble.Client = (*Client)(nil)

// New creates a client that discovers the given devices.
func New(devices ...ble.Device) *Client {
	return &Client{
		Devices:     devices,
		Peripherals: make(map[string]*Peripheral),
		reads:       make(map[string]int),
	}
}

// AddPeripheral registers the GATT table for an address.
func (c *Client) AddPeripheral(address string, services ...ble.Service) *Peripheral {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Peripherals == nil {
		c.Peripherals = make(map[string]*Peripheral)
	}
	p := &Peripheral{
		Services: services,
		Values:   make(map[string][]byte),
		ReadErrs: make(map[string]error),
	}
	c.Peripherals[address] = p
	return p
}

// SetValue sets the value returned when the characteristic is read.
func (p *Peripheral) SetValue(charUUID string, v []byte) {
	p.Values[ble.NormalizeUUID(charUUID)] = v
}

// FailRead makes reads of the characteristic return err.
func (p *Peripheral) FailRead(charUUID string, err error) {
	p.ReadErrs[ble.NormalizeUUID(charUUID)] = err
}

// Scan reports every configured device once and returns without waiting for ctx.
func (c *Client) Scan(ctx context.Context, handler func(ble.Device)) error {
	c.mu.Lock()
	c.scans++
	devices := append([]ble.Device(nil), c.Devices...)
	err := c.ScanErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	for _, d := range devices {
		if ctx.Err() != nil {
			return nil
		}
		handler(d.Clone())
	}
	return nil
}

// Connect returns a connection to a registered peripheral.
func (c *Client) Connect(ctx context.Context, address string) (ble.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects++
	if c.ConnectErr != nil {
		return nil, c.ConnectErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := c.Peripherals[address]
	if !ok {
		return nil, fmt.Errorf("device %s not found", address)
	}
	conn := &Conn{client: c, address: address, peripheral: p, done: make(chan struct{})}
	c.conns = append(c.conns, conn)
	return conn, nil
}

// Scans returns how many times Scan was called.
func (c *Client) Scans() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scans
}

// Connects returns how many times Connect was called.
func (c *Client) Connects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

// Reads returns how many times the characteristic was read.
func (c *Client) Reads(charUUID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads[ble.NormalizeUUID(charUUID)]
}

// Writes returns a copy of all recorded writes.
func (c *Client) Writes() []Write {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Write(nil), c.writes...)
}

// Disconnects returns how many times Disconnect was called on any connection.
func (c *Client) Disconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnect
}

// DropLink simulates the peripheral going away on the most recent connection.
func (c *Client) DropLink() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.conns) == 0 {
		return
	}
	c.conns[len(c.conns)-1].closeDone()
}

// Conn is a connection handed out by Client.
type Conn struct {
	client     *Client
	address    string
	peripheral *Peripheral
	done       chan struct{}
	once       sync.Once
}

func (c *Conn) Address() string { return c.address }

func (c *Conn) Services(ctx context.Context) ([]ble.Service, error) {
	c.client.mu.Lock()
	defer c.client.mu.Unlock()
	if c.client.ServicesErr != nil {
		return nil, c.client.ServicesErr
	}
	return append([]ble.Service(nil), c.peripheral.Services...), nil
}

func (c *Conn) Read(ctx context.Context, charUUID string) ([]byte, error) {
	key := ble.NormalizeUUID(charUUID)
	c.client.mu.Lock()
	defer c.client.mu.Unlock()
	c.client.reads[key]++
	if err, ok := c.peripheral.ReadErrs[key]; ok {
		return nil, err
	}
	if _, err := ble.FindCharacteristic(c.peripheral.Services, charUUID); err != nil {
		return nil, err
	}
	return append([]byte(nil), c.peripheral.Values[key]...), nil
}

func (c *Conn) Write(ctx context.Context, charUUID string, data []byte, withResponse bool) error {
	c.client.mu.Lock()
	defer c.client.mu.Unlock()
	c.client.writes = append(c.client.writes, Write{
		Address:      c.address,
		CharUUID:     charUUID,
		Data:         append([]byte(nil), data...),
		WithResponse: withResponse,
	})
	if c.peripheral.WriteErr != nil {
		return c.peripheral.WriteErr
	}
	c.peripheral.Values[ble.NormalizeUUID(charUUID)] = append([]byte(nil), data...)
	return nil
}

func (c *Conn) Disconnect() error {
	c.client.mu.Lock()
	c.client.disconnect++
	err := c.client.DisconnectErr
	c.client.mu.Unlock()
	c.closeDone()
	return err
}

func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) closeDone() {
	c.once.Do(func() { close(c.done) })
}
