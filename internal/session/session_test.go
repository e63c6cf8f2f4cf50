package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"blescope/internal/ble"
	"blescope/internal/ble/mock"
	"blescope/internal/progress"
	"blescope/internal/telemetry"
)

const sensorAddr = "AA:BB:CC:DD:EE:FF"

// newSensorSession returns a session over a mock with one heart rate sensor.
func newSensorSession(t *testing.T) (*Session, *mock.Client, *mock.Peripheral, *progress.Recorder) {
	t.Helper()
	client := mock.New(ble.Device{Address: sensorAddr, Name: "Sensor1", RSSI: -60, Connectable: true})
	p := client.AddPeripheral(sensorAddr,
		ble.Service{UUID: "180D", Characteristics: []ble.Characteristic{
			{UUID: "2A37", Properties: ble.PropRead},
			{UUID: "2A38", Properties: ble.PropRead | ble.PropNotify},
			{UUID: "2A39", Properties: ble.PropWrite},
			{UUID: "2A3A", Properties: ble.PropWriteWithoutResponse},
		}},
	)
	p.SetValue("2A37", []byte{0x00, 0x48})
	p.SetValue("2A38", []byte{0x01})
	rec := &progress.Recorder{}
	return New(client, rec, Options{ScanTimeout: time.Second}), client, p, rec
}

func scanAndConnect(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Scan(context.Background()))
	entries := s.Entries()
	require.Len(t, entries, 1)
	require.NoError(t, s.Connect(context.Background(), entries[0].Label))
}

// eventsOf filters recorded events down to type T.
func eventsOf[T any](rec *progress.Recorder) []T {
	var out []T
	for _, ev := range rec.Events() {
		if e, ok := ev.(T); ok {
			out = append(out, e)
		}
	}
	return out
}

func TestScan_OneEntryPerDevice(t *testing.T) {
	client := mock.New(
		ble.Device{Address: "A", Name: "one", RSSI: -50},
		ble.Device{Address: "B", RSSI: -70},
		ble.Device{Address: "A", Name: "one", RSSI: -40, ServiceUUIDs: []string{"180F"}},
		ble.Device{Address: "C", Name: "three", RSSI: -90},
	)
	rec := &progress.Recorder{}
	s := New(client, rec, Options{})

	require.NoError(t, s.Scan(context.Background()))

	entries := s.Entries()
	require.Len(t, entries, 3)
	labels := map[string]bool{}
	for _, e := range entries {
		labels[e.Label] = true
	}
	assert.Len(t, labels, 3, "labels must be unique")
	assert.True(t, labels["one (A) -40 dBm"], "later report wins for RSSI")
	assert.True(t, labels["Unknown (B) -70 dBm"])

	assert.Len(t, eventsOf[ScanStarted](rec), 1)
	assert.Len(t, eventsOf[DeviceFound](rec), 3)
	finished := eventsOf[ScanFinished](rec)
	require.Len(t, finished, 1)
	assert.Len(t, finished[0].Entries, 3)
}

func TestScan_LaterScanReplacesListing(t *testing.T) {
	client := mock.New(ble.Device{Address: "A"}, ble.Device{Address: "B"})
	s := New(client, nil, Options{})
	require.NoError(t, s.Scan(context.Background()))
	require.Len(t, s.Entries(), 2)

	client.Devices = []ble.Device{{Address: "C", Name: "new"}}
	require.NoError(t, s.Scan(context.Background()))
	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "new (C) 0 dBm", entries[0].Label)
}

func TestScan_Empty(t *testing.T) {
	rec := &progress.Recorder{}
	s := New(mock.New(), rec, Options{})
	require.NoError(t, s.Scan(context.Background()))
	finished := eventsOf[ScanFinished](rec)
	require.Len(t, finished, 1)
	assert.Empty(t, finished[0].Entries)
}

func TestScan_Failure(t *testing.T) {
	client := mock.New()
	client.ScanErr = errors.New("adapter powered off")
	rec := &progress.Recorder{}
	s := New(client, rec, Options{})

	err := s.Scan(context.Background())
	assert.ErrorContains(t, err, "adapter powered off")
	failed := eventsOf[ScanFailed](rec)
	require.Len(t, failed, 1)
	assert.EqualError(t, failed[0].Err, "adapter powered off")
	assert.Empty(t, eventsOf[ScanFinished](rec))
}

func TestConnect_EnumeratesAndReads(t *testing.T) {
	s, client, _, rec := newSensorSession(t)
	scanAndConnect(t, s)

	assert.True(t, s.Connected())
	dev, ok := s.Device()
	require.True(t, ok)
	assert.Equal(t, sensorAddr, dev.Address)

	assert.Len(t, eventsOf[Connecting](rec), 1)
	assert.Len(t, eventsOf[ServiceDiscovered](rec), 1)
	assert.Len(t, eventsOf[CharacteristicListed](rec), 4)
	reads := eventsOf[CharacteristicRead](rec)
	require.Len(t, reads, 2)
	assert.Equal(t, []byte{0x00, 0x48}, reads[0].Value)

	// Non-readable characteristics are never read.
	assert.Equal(t, 0, client.Reads("2A39"))
	assert.Equal(t, 0, client.Reads("2A3A"))

	connected := eventsOf[Connected](rec)
	require.Len(t, connected, 1)
	assert.Len(t, connected[0].Listing.Rows, 4)
}

func TestConnect_ReadFailureDoesNotAbort(t *testing.T) {
	s, _, p, rec := newSensorSession(t)
	p.FailRead("2A37", errors.New("insufficient authentication"))
	scanAndConnect(t, s)

	failed := eventsOf[CharacteristicReadFailed](rec)
	require.Len(t, failed, 1)
	assert.Equal(t, "2A37", failed[0].UUID)
	assert.Len(t, eventsOf[CharacteristicRead](rec), 1, "2A38 is still read")

	row, ok := s.Listing().Row("2a37")
	require.True(t, ok)
	assert.EqualError(t, row.ReadErr, "insufficient authentication")
	assert.Contains(t, s.Listing().Transcript(), "    * Error reading: insufficient authentication")
}

func TestConnect_UnknownLabel(t *testing.T) {
	s, client, _, rec := newSensorSession(t)
	err := s.Connect(context.Background(), "Ghost (00:00) -1 dBm")
	assert.ErrorIs(t, err, ErrUnknownDevice)
	assert.Equal(t, 0, client.Connects())
	assert.Empty(t, eventsOf[Connecting](rec))
}

func TestConnect_AcceptsBareAddress(t *testing.T) {
	s, _, _, _ := newSensorSession(t)
	require.NoError(t, s.Scan(context.Background()))
	require.NoError(t, s.Connect(context.Background(), sensorAddr))
	assert.True(t, s.Connected())
}

func TestConnect_LabelShownEarlierInScan(t *testing.T) {
	client := mock.New(
		ble.Device{Address: sensorAddr, Name: "Sensor1", RSSI: -60},
		ble.Device{Address: sensorAddr, Name: "Sensor1", RSSI: -55},
	)
	client.AddPeripheral(sensorAddr, ble.Service{UUID: "180D", Characteristics: []ble.Characteristic{
		{UUID: "2A37", Properties: ble.PropRead},
	}})
	rec := &progress.Recorder{}
	s := New(client, rec, Options{})

	require.NoError(t, s.Scan(context.Background()))
	found := eventsOf[DeviceFound](rec)
	require.Len(t, found, 1)
	shown := found[0].Entry.Label
	assert.Equal(t, "Sensor1 (AA:BB:CC:DD:EE:FF) -60 dBm", shown)
	assert.Equal(t, "Sensor1 (AA:BB:CC:DD:EE:FF) -55 dBm", s.Entries()[0].Label)

	require.NoError(t, s.Connect(context.Background(), shown))
	dev, ok := s.Device()
	require.True(t, ok)
	assert.Equal(t, -55, dev.RSSI)
}

func TestConnect_DialFailureLeavesNoConnection(t *testing.T) {
	s, client, _, rec := newSensorSession(t)
	client.ConnectErr = errors.New("le-connection-abort-by-local")
	require.NoError(t, s.Scan(context.Background()))

	err := s.Connect(context.Background(), s.Entries()[0].Label)
	assert.ErrorContains(t, err, "le-connection-abort-by-local")
	assert.False(t, s.Connected())
	failed := eventsOf[ConnectFailed](rec)
	require.Len(t, failed, 1)
	assert.Equal(t, sensorAddr, failed[0].Address)
	assert.Empty(t, eventsOf[Connected](rec))
}

func TestConnect_DiscoveryFailureDisconnects(t *testing.T) {
	s, client, _, rec := newSensorSession(t)
	client.ServicesErr = errors.New("att timeout")
	require.NoError(t, s.Scan(context.Background()))

	err := s.Connect(context.Background(), s.Entries()[0].Label)
	assert.ErrorContains(t, err, "discover services")
	assert.False(t, s.Connected())
	assert.Equal(t, 1, client.Disconnects())
	assert.Len(t, eventsOf[ConnectFailed](rec), 1)
}

func TestConnect_AlreadyConnected(t *testing.T) {
	s, client, _, _ := newSensorSession(t)
	scanAndConnect(t, s)
	err := s.Connect(context.Background(), sensorAddr)
	assert.ErrorIs(t, err, ErrAlreadyConnected)
	assert.Equal(t, 1, client.Connects())
}

func TestReadAll(t *testing.T) {
	s, client, p, rec := newSensorSession(t)
	assert.ErrorIs(t, s.ReadAll(context.Background()), ble.ErrNotConnected)

	scanAndConnect(t, s)
	p.SetValue("2A37", []byte{0x00, 0x50})
	require.NoError(t, s.ReadAll(context.Background()))

	assert.Equal(t, 2, client.Reads("2A37"))
	assert.Equal(t, 0, client.Reads("2A39"))
	row, _ := s.Listing().Row("2A37")
	assert.Equal(t, []byte{0x00, 0x50}, row.Value)
	finished := eventsOf[ReadAllFinished](rec)
	require.Len(t, finished, 1)
}

func TestWrite_InvalidInputNeverReachesBackend(t *testing.T) {
	s, client, _, _ := newSensorSession(t)
	scanAndConnect(t, s)

	assert.ErrorIs(t, s.Write(context.Background(), "", []byte("x")), ErrInvalidInput)
	assert.ErrorIs(t, s.Write(context.Background(), "2A39", nil), ErrInvalidInput)
	assert.ErrorIs(t, s.Write(context.Background(), "zz-top", []byte("x")), ErrInvalidInput)
	assert.Empty(t, client.Writes())
}

func TestWrite_NotConnected(t *testing.T) {
	s, client, _, _ := newSensorSession(t)
	assert.ErrorIs(t, s.Write(context.Background(), "2A39", []byte("x")), ble.ErrNotConnected)
	assert.Empty(t, client.Writes())
}

func TestWrite_Modes(t *testing.T) {
	s, client, _, rec := newSensorSession(t)
	scanAndConnect(t, s)

	require.NoError(t, s.Write(context.Background(), "00002a39-0000-1000-8000-00805f9b34fb", []byte("on")))
	require.NoError(t, s.Write(context.Background(), "2a3a", []byte{0x01}))

	writes := client.Writes()
	require.Len(t, writes, 2)
	assert.Equal(t, []byte("on"), writes[0].Data)
	assert.True(t, writes[0].WithResponse)
	assert.False(t, writes[1].WithResponse)
	assert.Len(t, eventsOf[WriteDone](rec), 2)

	assert.ErrorIs(t, s.Write(context.Background(), "2A37", []byte("x")), ErrNotWritable)
	assert.ErrorIs(t, s.Write(context.Background(), "2A99", []byte("x")), ble.ErrUnknownCharacteristic)
	assert.Len(t, client.Writes(), 2)
}

func TestWrite_BackendFailure(t *testing.T) {
	s, _, p, rec := newSensorSession(t)
	p.WriteErr = errors.New("write not permitted")
	scanAndConnect(t, s)

	err := s.Write(context.Background(), "2A39", []byte("x"))
	assert.ErrorContains(t, err, "write not permitted")
	failed := eventsOf[WriteFailed](rec)
	require.Len(t, failed, 1)
	assert.Equal(t, "2A39", failed[0].UUID)
	assert.True(t, s.Connected(), "a failed write keeps the connection")
}

func TestDisconnect_WithoutConnectionIsNoop(t *testing.T) {
	s, client, _, rec := newSensorSession(t)
	require.NoError(t, s.Disconnect(context.Background()))
	assert.Equal(t, 0, client.Disconnects())
	assert.Len(t, eventsOf[Notice](rec), 1)
	assert.Empty(t, eventsOf[Disconnected](rec))
}

func TestDisconnect(t *testing.T) {
	s, client, _, rec := newSensorSession(t)
	scanAndConnect(t, s)

	require.NoError(t, s.Disconnect(context.Background()))
	assert.False(t, s.Connected())
	assert.True(t, s.Listing().Empty())
	assert.Equal(t, 1, client.Disconnects())

	// Give the liveness watcher a chance to misfire.
	time.Sleep(10 * time.Millisecond)
	disc := eventsOf[Disconnected](rec)
	require.Len(t, disc, 1)
	assert.Equal(t, ReasonRequested, disc[0].Reason)
}

func TestDisconnect_FailureStillDropsHandle(t *testing.T) {
	s, client, _, rec := newSensorSession(t)
	scanAndConnect(t, s)
	client.DisconnectErr = errors.New("hci busy")

	err := s.Disconnect(context.Background())
	assert.ErrorContains(t, err, "hci busy")
	assert.False(t, s.Connected())
	assert.Len(t, eventsOf[DisconnectFailed](rec), 1)
}

func TestLinkLost(t *testing.T) {
	s, client, _, rec := newSensorSession(t)
	scanAndConnect(t, s)

	client.DropLink()
	require.Eventually(t, func() bool { return !s.Connected() }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(eventsOf[Disconnected](rec)) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, ReasonLinkLost, eventsOf[Disconnected](rec)[0].Reason)

	// A new connection is possible afterwards.
	require.NoError(t, s.Connect(context.Background(), sensorAddr))
}

// dropOnConnect loses the link right after it is established.
type dropOnConnect struct {
	*mock.Client
}

func (d dropOnConnect) Connect(ctx context.Context, address string) (ble.Conn, error) {
	conn, err := d.Client.Connect(ctx, address)
	if err == nil {
		d.DropLink()
	}
	return conn, err
}

func TestLinkLost_DuringConnectFollowsConnected(t *testing.T) {
	_, client, _, _ := newSensorSession(t)
	rec := &progress.Recorder{}
	s := New(dropOnConnect{client}, rec, Options{ScanTimeout: time.Second})
	require.NoError(t, s.Scan(context.Background()))
	require.NoError(t, s.Connect(context.Background(), sensorAddr))

	require.Eventually(t, func() bool { return len(eventsOf[Disconnected](rec)) == 1 }, time.Second, 5*time.Millisecond)
	connected, disconnected := -1, -1
	for i, ev := range rec.Events() {
		switch ev.(type) {
		case Connected:
			connected = i
		case Disconnected:
			disconnected = i
		}
	}
	require.NotEqual(t, -1, connected)
	assert.Less(t, connected, disconnected)
	assert.False(t, s.Connected())
}

func TestEndToEnd_SensorRow(t *testing.T) {
	client := mock.New(ble.Device{Address: sensorAddr, Name: "Sensor1", RSSI: -60})
	client.AddPeripheral(sensorAddr, ble.Service{UUID: "180D", Characteristics: []ble.Characteristic{
		{UUID: "2A37", Properties: ble.PropRead},
	}})
	s := New(client, nil, Options{})

	require.NoError(t, s.Scan(context.Background()))
	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Sensor1 (AA:BB:CC:DD:EE:FF) -60 dBm", entries[0].Label)

	require.NoError(t, s.Connect(context.Background(), entries[0].Label))
	rows := s.Listing().Rows
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"2A37", "read", "-60 dBm"}, rows[0].Cells())
}

func TestSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	s, client, _, _ := newSensorSession(t)
	s.opts.Tracer = tp.Tracer("test")

	scanAndConnect(t, s)
	client.Peripherals[sensorAddr].WriteErr = errors.New("nope")
	_ = s.Write(context.Background(), "2A39", []byte("x"))
	require.NoError(t, s.Disconnect(context.Background()))

	var names []string
	for _, sp := range sr.Ended() {
		names = append(names, sp.Name())
		if sp.Name() == "ble.write" {
			assert.Equal(t, codes.Error, sp.Status().Code)
		}
	}
	assert.Equal(t, []string{"ble.scan", "ble.connect", "ble.write", "ble.disconnect"}, names)
}

func TestSpans_CarryTaskID(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	s, _, _, _ := newSensorSession(t)
	s.opts.Tracer = tp.Tracer("test")

	ctx := telemetry.WithTaskID(context.Background(), "01J0TASK")
	require.NoError(t, s.Scan(ctx))
	require.NoError(t, s.Connect(ctx, sensorAddr))

	spans := sr.Ended()
	require.Len(t, spans, 2)
	for _, sp := range spans {
		assert.Contains(t, sp.Attributes(), telemetry.AttrTaskID.String("01J0TASK"), sp.Name())
	}
}
