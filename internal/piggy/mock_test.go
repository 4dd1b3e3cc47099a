package piggy

import (
	"context"
	"sync"

	"piggyctl/internal/ble"
)

// fakeCharacteristic records writes and supports injected errors.
type fakeCharacteristic struct {
	uuid  string
	props ble.Properties

	mu       sync.Mutex
	value    []byte
	readErr  error
	writeErr error
	writes   [][]byte
	callback func([]byte)
}

func (c *fakeCharacteristic) UUID() string               { return c.uuid }
func (c *fakeCharacteristic) Properties() ble.Properties { return c.props }

func (c *fakeCharacteristic) Read() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, c.readErr
	}
	return append([]byte(nil), c.value...), nil
}

func (c *fakeCharacteristic) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes = append(c.writes, append([]byte(nil), data...))
	return nil
}

func (c *fakeCharacteristic) Subscribe(cb func([]byte)) error {
	c.mu.Lock()
	c.callback = cb
	c.mu.Unlock()
	return nil
}

func (c *fakeCharacteristic) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

// fakeService groups fake characteristics.
type fakeService struct {
	uuid     string
	chars    []*fakeCharacteristic
	charsErr error
}

func (s *fakeService) UUID() string { return s.uuid }

func (s *fakeService) Characteristics() ([]ble.Characteristic, error) {
	if s.charsErr != nil {
		return nil, s.charsErr
	}
	out := make([]ble.Characteristic, len(s.chars))
	for i, c := range s.chars {
		out[i] = c
	}
	return out, nil
}

// fakeConnection simulates a BLE session.
type fakeConnection struct {
	services    []*fakeService
	servicesErr error

	mu              sync.Mutex
	disconnectCb    func()
	disconnectCalls int
}

func (c *fakeConnection) Services() ([]ble.Service, error) {
	if c.servicesErr != nil {
		return nil, c.servicesErr
	}
	out := make([]ble.Service, len(c.services))
	for i, s := range c.services {
		out[i] = s
	}
	return out, nil
}

func (c *fakeConnection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectCalls++
	return nil
}

func (c *fakeConnection) OnDisconnect(cb func()) {
	c.mu.Lock()
	c.disconnectCb = cb
	c.mu.Unlock()
}

// SimulateDisconnect fires the disconnect callback like a platform event.
func (c *fakeConnection) SimulateDisconnect() {
	c.mu.Lock()
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (c *fakeConnection) disconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnectCalls
}

// fakeAdapter simulates the BLE adapter. Each Connect hands out a fresh
// connection built by newConn.
type fakeAdapter struct {
	device     ble.Device
	requestErr error
	connectErr error
	// halfOpen, when set with connectErr, is returned alongside the error to
	// model a session that opened but is unusable.
	halfOpen *fakeConnection
	newConn  func() *fakeConnection

	mu         sync.Mutex
	connection *fakeConnection // most recent connection for assertions
}

func (a *fakeAdapter) Enable() error { return nil }

func (a *fakeAdapter) RequestDevice(_ context.Context, _ ble.Filter) (ble.Device, error) {
	if a.requestErr != nil {
		return ble.Device{}, a.requestErr
	}
	return a.device, nil
}

func (a *fakeAdapter) Connect(_ context.Context, _ string) (ble.Connection, error) {
	if a.connectErr != nil {
		if a.halfOpen != nil {
			return a.halfOpen, a.connectErr
		}
		return nil, a.connectErr
	}
	conn := a.newConn()
	a.mu.Lock()
	a.connection = conn
	a.mu.Unlock()
	return conn, nil
}

func (a *fakeAdapter) latestConnection() *fakeConnection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connection
}

// newPiggybankConnection builds a connection shaped like real piggybank
// firmware: battery, device information, and a writable UART RX.
func newPiggybankConnection() *fakeConnection {
	return &fakeConnection{
		services: []*fakeService{
			{
				uuid: ble.BatteryServiceUUID,
				chars: []*fakeCharacteristic{
					{uuid: ble.BatteryLevelCharUUID, props: ble.Properties{Read: true}, value: []byte{87}},
				},
			},
			{
				uuid: ble.DeviceInfoServiceUUID,
				chars: []*fakeCharacteristic{
					{uuid: ble.ManufacturerNameCharUUID, props: ble.Properties{Read: true}, value: []byte("Piggybank Labs")},
					{uuid: ble.ModelNumberCharUUID, props: ble.Properties{Read: true}, value: []byte("PB-1")},
				},
			},
			{
				uuid: ble.UARTServiceUUID,
				chars: []*fakeCharacteristic{
					{uuid: ble.UARTRXCharUUID, props: ble.Properties{Write: true, WriteWithoutResponse: true}},
				},
			},
		},
	}
}

func newPiggybankAdapter() *fakeAdapter {
	return &fakeAdapter{
		device:  ble.Device{ID: "C4:12:9B:00:1D:7A", Name: "piggybank-7A", RSSI: -52},
		newConn: newPiggybankConnection,
	}
}
