package ble

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tinygo.org/x/bluetooth"
)

// readBufSize bounds a single characteristic read. GATT values are at most
// 512 bytes.
const readBufSize = 512

// HardwareAdapter wraps tinygo-org/bluetooth. On macOS, device IDs are
// CoreBluetooth UUIDs rather than MAC addresses; everywhere the ID is an
// opaque string handed back to Connect.
type HardwareAdapter struct {
	adapter *bluetooth.Adapter

	// mu protects the connections map.
	mu          sync.Mutex
	connections map[string]*hardwareConnection // keyed by device ID
}

// NewHardwareAdapter creates a BLE adapter backed by the platform stack.
func NewHardwareAdapter() *HardwareAdapter {
	return &HardwareAdapter{
		adapter:     bluetooth.DefaultAdapter,
		connections: make(map[string]*hardwareConnection),
	}
}

func (a *HardwareAdapter) Enable() error {
	if err := a.adapter.Enable(); err != nil {
		return classifyPlatformError(err)
	}

	// Adapter-level connect/disconnect handler. The stack fires this with
	// connected=false when a peripheral drops the connection.
	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		id := device.Address.String()
		a.mu.Lock()
		conn, ok := a.connections[id]
		delete(a.connections, id)
		a.mu.Unlock()
		if ok {
			conn.fireDisconnect()
		}
	})

	return nil
}

// RequestDevice scans until the first peripheral matching the filter appears,
// mirroring a modal single-select chooser. The scan stops as soon as a match
// is seen or ctx expires.
func (a *HardwareAdapter) RequestDevice(ctx context.Context, filter Filter) (Device, error) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			a.adapter.StopScan()
		case <-done:
		}
	}()

	var (
		mu      sync.Mutex
		dev     Device
		matched bool
	)
	err := a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		mu.Lock()
		defer mu.Unlock()
		if matched || !filter.Matches(result.LocalName()) {
			return
		}
		matched = true
		dev = Device{
			ID:   result.Address.String(),
			Name: result.LocalName(),
			RSSI: int(result.RSSI),
		}
		adapter.StopScan()
	})
	close(done)

	mu.Lock()
	defer mu.Unlock()
	if matched {
		return dev, nil
	}
	if err != nil && ctx.Err() == nil {
		return Device{}, classifyPlatformError(err)
	}
	return Device{}, ErrNoDeviceSelected
}

func (a *HardwareAdapter) Connect(ctx context.Context, id string) (Connection, error) {
	var addr bluetooth.Address
	addr.Set(id)

	// The stack's Connect blocks internally with its own timeout. Wrap it so
	// our ctx cancellation is also respected.
	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- connectResult{device, err}
	}()

	select {
	case <-ctx.Done():
		// The underlying Connect will eventually time out or succeed; it
		// cannot be cancelled from here.
		return nil, fmt.Errorf("ble: connect to %s: %w", id, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("ble: connect to %s: %w", id, result.err)
		}
		conn := &hardwareConnection{device: result.device}

		// Track the connection so the adapter-level disconnect handler can
		// find it and fire its OnDisconnect callback.
		a.mu.Lock()
		a.connections[id] = conn
		a.mu.Unlock()

		return conn, nil
	}
}

// classifyPlatformError maps OS authorization failures onto
// ErrPermissionDenied so callers can tell the user what to fix.
func classifyPlatformError(err error) error {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"permission", "not authorized", "unauthorized", "access denied"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
	}
	return fmt.Errorf("ble: %w", err)
}

// Compile-time check that HardwareAdapter implements Adapter.
var _ Adapter = (*HardwareAdapter)(nil)

type hardwareConnection struct {
	device bluetooth.Device

	mu           sync.Mutex
	disconnectCb func()
}

func (c *hardwareConnection) Services() ([]Service, error) {
	svcs, err := c.device.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}
	out := make([]Service, 0, len(svcs))
	for i := range svcs {
		out = append(out, &hardwareService{svc: svcs[i]})
	}
	return out, nil
}

func (c *hardwareConnection) Disconnect() error {
	return c.device.Disconnect()
}

func (c *hardwareConnection) OnDisconnect(cb func()) {
	c.mu.Lock()
	c.disconnectCb = cb
	c.mu.Unlock()
}

func (c *hardwareConnection) fireDisconnect() {
	c.mu.Lock()
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

type hardwareService struct {
	svc bluetooth.DeviceService
}

func (s *hardwareService) UUID() string {
	return s.svc.UUID().String()
}

func (s *hardwareService) Characteristics() ([]Characteristic, error) {
	chars, err := s.svc.DiscoverCharacteristics(nil)
	if err != nil {
		return nil, fmt.Errorf("ble: discover characteristics: %w", err)
	}
	out := make([]Characteristic, 0, len(chars))
	for i := range chars {
		out = append(out, &hardwareCharacteristic{char: chars[i]})
	}
	return out, nil
}

type hardwareCharacteristic struct {
	char bluetooth.DeviceCharacteristic
}

func (c *hardwareCharacteristic) UUID() string {
	return c.char.UUID().String()
}

// Properties reports capability flags by characteristic class. The portable
// tinygo API does not expose GATT property bits, so standard characteristics
// (battery, device information) are reported read-only and vendor
// characteristics as writable and notifiable.
func (c *hardwareCharacteristic) Properties() Properties {
	if IsStandardUUID(c.char.UUID().String()) {
		return Properties{Read: true}
	}
	return Properties{Read: true, Write: true, WriteWithoutResponse: true, Notify: true}
}

func (c *hardwareCharacteristic) Read() ([]byte, error) {
	buf := make([]byte, readBufSize)
	n, err := c.char.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (c *hardwareCharacteristic) Write(data []byte) error {
	// Write-without-response is the only write mode the portable API offers.
	_, err := c.char.WriteWithoutResponse(data)
	return err
}

func (c *hardwareCharacteristic) Subscribe(cb func([]byte)) error {
	return c.char.EnableNotifications(func(buf []byte) {
		cb(buf)
	})
}

// IsStandardUUID reports whether the UUID belongs to the Bluetooth SIG base
// range (16-bit identifiers expanded onto the standard base).
func IsStandardUUID(uuid string) bool {
	return strings.HasPrefix(uuid, "0000") &&
		strings.HasSuffix(uuid, "-0000-1000-8000-00805f9b34fb")
}
