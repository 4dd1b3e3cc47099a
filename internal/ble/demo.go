package ble

import (
	"context"
	"fmt"
	"sync"
)

// DemoAdapter simulates a piggybank peripheral in memory so the UI can be
// exercised without Bluetooth hardware.
type DemoAdapter struct {
	mu      sync.Mutex
	devices []*DemoPeripheral
}

// NewDemoAdapter creates a demo adapter with a single canned piggybank
// peripheral.
func NewDemoAdapter() *DemoAdapter {
	a := &DemoAdapter{}
	p := NewDemoPeripheral("C4:12:9B:00:1D:7A", "piggybank-7A", -52)
	p.SetCharacteristic(BatteryServiceUUID, BatteryLevelCharUUID, []byte{87})
	p.SetCharacteristic(DeviceInfoServiceUUID, ManufacturerNameCharUUID, []byte("Piggybank Labs"))
	p.SetCharacteristic(DeviceInfoServiceUUID, ModelNumberCharUUID, []byte("PB-1"))
	p.SetCharacteristic(DeviceInfoServiceUUID, SerialNumberCharUUID, []byte("PB1-000137"))
	p.SetCharacteristic(DeviceInfoServiceUUID, FirmwareRevisionCharUUID, []byte("1.4.2"))
	p.SetCharacteristic(UARTServiceUUID, UARTRXCharUUID, nil)
	a.AddPeripheral(p)
	return a
}

// AddPeripheral adds a discoverable peripheral.
func (a *DemoAdapter) AddPeripheral(p *DemoPeripheral) {
	a.mu.Lock()
	a.devices = append(a.devices, p)
	a.mu.Unlock()
}

func (a *DemoAdapter) Enable() error { return nil }

func (a *DemoAdapter) RequestDevice(_ context.Context, filter Filter) (Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.devices {
		if filter.Matches(p.info.Name) {
			return p.info, nil
		}
	}
	return Device{}, ErrNoDeviceSelected
}

func (a *DemoAdapter) Connect(_ context.Context, id string) (Connection, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.devices {
		if p.info.ID == id {
			return p.connect(), nil
		}
	}
	return nil, fmt.Errorf("ble: device %s not found", id)
}

var _ Adapter = (*DemoAdapter)(nil)

// DemoPeripheral is a canned in-memory peripheral.
type DemoPeripheral struct {
	info Device

	mu       sync.Mutex
	services []*demoService
}

// NewDemoPeripheral creates an empty peripheral with the given identity.
func NewDemoPeripheral(id, name string, rssi int) *DemoPeripheral {
	return &DemoPeripheral{info: Device{ID: id, Name: name, RSSI: rssi}}
}

// SetCharacteristic sets the value of a characteristic, creating its service
// on first use. Standard characteristics are readable; vendor ones writable
// and notifiable, matching the hardware backend's reporting.
func (p *DemoPeripheral) SetCharacteristic(serviceUUID, charUUID string, value []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	svc := p.service(serviceUUID)
	props := Properties{Read: true}
	if !IsStandardUUID(charUUID) {
		props = Properties{Read: true, Write: true, WriteWithoutResponse: true, Notify: true}
	}
	svc.chars = append(svc.chars, &demoCharacteristic{
		uuid:  charUUID,
		props: props,
		value: append([]byte(nil), value...),
	})
}

func (p *DemoPeripheral) service(uuid string) *demoService {
	for _, s := range p.services {
		if s.uuid == uuid {
			return s
		}
	}
	s := &demoService{uuid: uuid}
	p.services = append(p.services, s)
	return s
}

func (p *DemoPeripheral) connect() *demoConnection {
	return &demoConnection{peripheral: p}
}

type demoConnection struct {
	peripheral *DemoPeripheral

	mu           sync.Mutex
	disconnectCb func()
}

func (c *demoConnection) Services() ([]Service, error) {
	c.peripheral.mu.Lock()
	defer c.peripheral.mu.Unlock()
	out := make([]Service, len(c.peripheral.services))
	for i, s := range c.peripheral.services {
		out[i] = s
	}
	return out, nil
}

func (c *demoConnection) Disconnect() error {
	c.mu.Lock()
	cb := c.disconnectCb
	c.disconnectCb = nil
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
	return nil
}

func (c *demoConnection) OnDisconnect(cb func()) {
	c.mu.Lock()
	c.disconnectCb = cb
	c.mu.Unlock()
}

type demoService struct {
	uuid  string
	chars []*demoCharacteristic
}

func (s *demoService) UUID() string { return s.uuid }

func (s *demoService) Characteristics() ([]Characteristic, error) {
	out := make([]Characteristic, len(s.chars))
	for i, c := range s.chars {
		out[i] = c
	}
	return out, nil
}

type demoCharacteristic struct {
	uuid  string
	props Properties

	mu       sync.Mutex
	value    []byte
	writes   [][]byte
	callback func([]byte)
}

func (c *demoCharacteristic) UUID() string           { return c.uuid }
func (c *demoCharacteristic) Properties() Properties { return c.props }

func (c *demoCharacteristic) Read() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.value...), nil
}

func (c *demoCharacteristic) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = append([]byte(nil), data...)
	c.writes = append(c.writes, append([]byte(nil), data...))
	return nil
}

func (c *demoCharacteristic) Subscribe(cb func([]byte)) error {
	c.mu.Lock()
	c.callback = cb
	c.mu.Unlock()
	return nil
}
