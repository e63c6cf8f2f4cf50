package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"blescope/internal/ble"
	"blescope/internal/progress"
	"blescope/internal/telemetry"
)

var (
	// ErrUnknownDevice is returned by Connect for a label the latest scan did not produce.
	ErrUnknownDevice = errors.New("unknown device")
	// ErrAlreadyConnected is returned by Connect while a connection is active.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrInvalidInput is returned by Write for an empty UUID or payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotWritable is returned by Write for a characteristic without write properties.
	ErrNotWritable = errors.New("characteristic is not writable")
)

// Options tunes a Session. Zero values select defaults.
type Options struct {
	ScanTimeout    time.Duration // default 5s
	ConnectTimeout time.Duration // default 10s
	Logger         *slog.Logger
	Tracer         trace.Tracer
}

// Session holds the BLE state shared by all user actions.
//
// Methods are meant to be called from one task queue worker. Accessors are
// safe to call from any goroutine.
type Session struct {
	client   ble.Client
	emit     progress.Emitter
	opts     Options
	logger   *slog.Logger
	registry *Registry

	mu      sync.Mutex
	conn    ble.Conn
	device  ble.Device
	listing Listing
	unwatch chan struct{}
}

// New creates a session on top of client, posting events to emit.
func New(client ble.Client, emit progress.Emitter, opts Options) *Session {
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = 5 * time.Second
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if emit == nil {
		emit = progress.Discard
	}
	return &Session{
		client:   client,
		emit:     emit,
		opts:     opts,
		logger:   opts.Logger,
		registry: NewRegistry(),
	}
}

// Scan replaces the device registry with what is heard during the scan window.
func (s *Session) Scan(ctx context.Context) (err error) {
	ctx, span := telemetry.StartSpan(ctx, s.opts.Tracer, "ble.scan")
	defer func() { telemetry.End(span, err) }()

	s.registry.Reset()
	s.emit.Emit(ScanStarted{Timeout: s.opts.ScanTimeout})
	s.logger.Info("scan started", "timeout", s.opts.ScanTimeout)

	sctx, cancel := context.WithTimeout(ctx, s.opts.ScanTimeout)
	defer cancel()
	err = s.client.Scan(sctx, func(d ble.Device) {
		if d.Address == "" {
			return
		}
		entry, isNew := s.registry.Observe(d)
		if isNew {
			s.logger.Debug("device found", "address", d.Address, "name", d.Name, "rssi", d.RSSI)
			s.emit.Emit(DeviceFound{Entry: entry, Count: s.registry.Len()})
		}
	})
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		err = nil
	}
	if err != nil {
		s.logger.Error("scan failed", "error", err)
		s.emit.Emit(ScanFailed{Err: err})
		return fmt.Errorf("scan: %w", err)
	}

	entries := s.registry.Entries()
	span.SetAttributes(telemetry.AttrDevices.Int(len(entries)))
	s.logger.Info("scan finished", "devices", len(entries))
	s.emit.Emit(ScanFinished{Entries: entries})
	return nil
}

// Connect dials the device behind label, enumerates its services and reads
// every readable characteristic. A failing read is reported and skipped.
func (s *Session) Connect(ctx context.Context, label string) (err error) {
	if s.Connected() {
		return ErrAlreadyConnected
	}
	dev, ok := s.registry.Lookup(label)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, label)
	}

	ctx, span := telemetry.StartSpan(ctx, s.opts.Tracer, "ble.connect", telemetry.AttrAddress.String(dev.Address))
	defer func() { telemetry.End(span, err) }()

	s.emit.Emit(Connecting{Label: label, Address: dev.Address})
	s.logger.Info("connecting", "address", dev.Address)

	cctx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	conn, err := s.client.Connect(cctx, dev.Address)
	if err != nil {
		return s.connectFailed(dev.Address, fmt.Errorf("connect %s: %w", dev.Address, err))
	}
	services, err := conn.Services(cctx)
	if err != nil {
		_ = conn.Disconnect()
		return s.connectFailed(dev.Address, fmt.Errorf("discover services: %w", err))
	}

	listing := NewListing(dev.Address, services, dev.RSSI)
	for _, svc := range services {
		s.emit.Emit(ServiceDiscovered{Address: dev.Address, UUID: svc.UUID})
		for _, c := range svc.Characteristics {
			s.emit.Emit(CharacteristicListed{ServiceUUID: svc.UUID, Characteristic: c})
			if c.Properties.Readable() {
				s.readOne(ctx, conn, &listing, svc.UUID, c.UUID)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		_ = conn.Disconnect()
		return s.connectFailed(dev.Address, err)
	}

	unwatch := make(chan struct{})
	s.mu.Lock()
	s.conn = conn
	s.device = dev
	s.listing = listing
	s.unwatch = unwatch
	s.mu.Unlock()

	s.logger.Info("connected", "address", dev.Address, "services", len(services), "characteristics", len(listing.Rows))
	s.emit.Emit(Connected{Device: dev, Listing: listing.Clone()})
	// Link loss is reported only once Connected is out.
	go s.watch(conn, unwatch)
	return nil
}

func (s *Session) connectFailed(address string, err error) error {
	s.logger.Error("connect failed", "address", address, "error", err)
	s.emit.Emit(ConnectFailed{Address: address, Err: err})
	return err
}

// ReadAll re-reads every readable characteristic of the active connection.
func (s *Session) ReadAll(ctx context.Context) (err error) {
	s.mu.Lock()
	conn, listing := s.conn, s.listing.Clone()
	s.mu.Unlock()
	if conn == nil {
		return ble.ErrNotConnected
	}

	ctx, span := telemetry.StartSpan(ctx, s.opts.Tracer, "ble.read", telemetry.AttrAddress.String(conn.Address()))
	defer func() { telemetry.End(span, err) }()

	for _, r := range listing.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.Characteristic.Properties.Readable() {
			s.readOne(ctx, conn, &listing, r.ServiceUUID, r.Characteristic.UUID)
		}
	}

	s.mu.Lock()
	if s.conn == conn {
		s.listing = listing
	}
	s.mu.Unlock()
	s.emit.Emit(ReadAllFinished{Listing: listing.Clone()})
	return nil
}

func (s *Session) readOne(ctx context.Context, conn ble.Conn, l *Listing, serviceUUID, charUUID string) {
	v, err := conn.Read(ctx, charUUID)
	if err != nil {
		s.logger.Warn("read failed", "uuid", charUUID, "error", err)
		l.setReadErr(charUUID, err)
		s.emit.Emit(CharacteristicReadFailed{ServiceUUID: serviceUUID, UUID: charUUID, Err: err})
		return
	}
	l.setValue(charUUID, v)
	s.emit.Emit(CharacteristicRead{ServiceUUID: serviceUUID, UUID: charUUID, Value: append([]byte(nil), v...)})
}

// Write sends payload to the characteristic charUUID, with response when the
// characteristic supports it.
func (s *Session) Write(ctx context.Context, charUUID string, payload []byte) (err error) {
	if charUUID == "" || len(payload) == 0 {
		return fmt.Errorf("%w: characteristic UUID and payload are required", ErrInvalidInput)
	}
	if !ble.ValidUUID(charUUID) {
		return fmt.Errorf("%w: %q is not a UUID", ErrInvalidInput, charUUID)
	}

	s.mu.Lock()
	conn, services := s.conn, s.listing.Services
	s.mu.Unlock()
	if conn == nil {
		return ble.ErrNotConnected
	}
	c, err := ble.FindCharacteristic(services, charUUID)
	if err != nil {
		return err
	}

	var withResponse bool
	switch {
	case c.Properties.Has(ble.PropWrite):
		withResponse = true
	case c.Properties.Has(ble.PropWriteWithoutResponse):
	default:
		return fmt.Errorf("%w: %s (%s)", ErrNotWritable, ble.ShortUUID(c.UUID), c.Properties)
	}

	ctx, span := telemetry.StartSpan(ctx, s.opts.Tracer, "ble.write",
		telemetry.AttrAddress.String(conn.Address()),
		telemetry.AttrCharUUID.String(c.UUID))
	defer func() { telemetry.End(span, err) }()

	if err = conn.Write(ctx, c.UUID, payload, withResponse); err != nil {
		s.logger.Error("write failed", "uuid", c.UUID, "error", err)
		s.emit.Emit(WriteFailed{UUID: c.UUID, Err: err})
		return fmt.Errorf("write %s: %w", ble.ShortUUID(c.UUID), err)
	}
	s.logger.Info("write done", "uuid", c.UUID, "bytes", len(payload), "with_response", withResponse)
	s.emit.Emit(WriteDone{UUID: c.UUID, Bytes: len(payload), WithResponse: withResponse})
	return nil
}

// Disconnect drops the active connection. Without one it is a no-op.
func (s *Session) Disconnect(ctx context.Context) (err error) {
	conn := s.detach()
	if conn == nil {
		s.emit.Emit(Notice{Message: "Not connected."})
		return nil
	}
	address := conn.Address()

	_, span := telemetry.StartSpan(ctx, s.opts.Tracer, "ble.disconnect", telemetry.AttrAddress.String(address))
	defer func() { telemetry.End(span, err) }()

	if err = conn.Disconnect(); err != nil {
		s.logger.Error("disconnect failed", "address", address, "error", err)
		s.emit.Emit(DisconnectFailed{Address: address, Err: err})
		return fmt.Errorf("disconnect %s: %w", address, err)
	}
	s.logger.Info("disconnected", "address", address)
	s.emit.Emit(Disconnected{Address: address, Reason: ReasonRequested})
	return nil
}

// detach clears the connection state and returns the connection that was active.
func (s *Session) detach() ble.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detachLocked()
}

func (s *Session) detachLocked() ble.Conn {
	conn := s.conn
	if conn == nil {
		return nil
	}
	close(s.unwatch)
	s.conn = nil
	s.unwatch = nil
	s.device = ble.Device{}
	s.listing = Listing{}
	return conn
}

// watch clears the session when the peripheral drops the link on its own.
func (s *Session) watch(conn ble.Conn, stop <-chan struct{}) {
	select {
	case <-stop:
		return
	case <-conn.Done():
	}
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return
	}
	s.detachLocked()
	s.mu.Unlock()

	s.logger.Warn("link lost", "address", conn.Address())
	s.emit.Emit(Disconnected{Address: conn.Address(), Reason: ReasonLinkLost})
}

// Connected reports whether a connection is active.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Device returns the connected device.
func (s *Session) Device() (ble.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device.Clone(), s.conn != nil
}

// Listing returns a copy of the connected device's GATT listing.
func (s *Session) Listing() Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listing.Clone()
}

// Entries returns the devices found by the latest scan.
func (s *Session) Entries() []Entry {
	return s.registry.Entries()
}
