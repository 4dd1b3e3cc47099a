// Package ble defines the Bluetooth port used to talk to piggybank
// peripherals. The controller only sees the interfaces in this file, so the
// whole Bluetooth stack can be swapped for an in-memory fake in tests and in
// demo mode.
package ble

import (
	"context"
	"errors"
	"strings"
)

// Well-known GATT identifiers, in 128-bit form.
const (
	BatteryServiceUUID   = "0000180f-0000-1000-8000-00805f9b34fb"
	BatteryLevelCharUUID = "00002a19-0000-1000-8000-00805f9b34fb"

	DeviceInfoServiceUUID    = "0000180a-0000-1000-8000-00805f9b34fb"
	ManufacturerNameCharUUID = "00002a29-0000-1000-8000-00805f9b34fb"
	ModelNumberCharUUID      = "00002a24-0000-1000-8000-00805f9b34fb"
	SerialNumberCharUUID     = "00002a25-0000-1000-8000-00805f9b34fb"
	HardwareRevisionCharUUID = "00002a27-0000-1000-8000-00805f9b34fb"
	FirmwareRevisionCharUUID = "00002a26-0000-1000-8000-00805f9b34fb"
	SoftwareRevisionCharUUID = "00002a28-0000-1000-8000-00805f9b34fb"

	// Nordic UART service. Piggybank firmware exposes it for command I/O,
	// but it is optional: older boards only carry a vendor characteristic.
	UARTServiceUUID = "6e400001-b5a3-f393-e0a9-e50e24dcca9e"
	UARTRXCharUUID  = "6e400002-b5a3-f393-e0a9-e50e24dcca9e"
	UARTTXCharUUID  = "6e400003-b5a3-f393-e0a9-e50e24dcca9e"
)

var (
	// ErrNoDeviceSelected is returned when discovery ends without a device,
	// either because nothing matched or because the user cancelled.
	ErrNoDeviceSelected = errors.New("ble: no device selected")
	// ErrPermissionDenied is returned when the OS refuses Bluetooth access.
	ErrPermissionDenied = errors.New("ble: bluetooth permission denied")
)

// Filter narrows device discovery. Set AcceptAll to discover without a name
// filter.
type Filter struct {
	NamePrefix       string
	AcceptAll        bool
	OptionalServices []string
}

// Matches reports whether a device advertising the given name passes the
// filter.
func (f Filter) Matches(name string) bool {
	if f.AcceptAll {
		return true
	}
	if f.NamePrefix == "" {
		return false
	}
	return strings.HasPrefix(name, f.NamePrefix)
}

// Device is a discovered BLE peripheral. ID is the platform address and is
// stable for the lifetime of the pairing.
type Device struct {
	ID   string
	Name string
	RSSI int
}

// DisplayName returns the advertised name, or a placeholder when the
// peripheral did not advertise one.
func (d Device) DisplayName() string {
	if d.Name == "" {
		return "Unknown Device"
	}
	return d.Name
}

// Properties are the capability flags of a characteristic.
type Properties struct {
	Read                 bool
	Write                bool
	WriteWithoutResponse bool
	Notify               bool
}

// Writable reports whether the characteristic accepts outgoing data in
// either write mode.
func (p Properties) Writable() bool {
	return p.Write || p.WriteWithoutResponse
}

// Characteristic represents a BLE GATT characteristic.
type Characteristic interface {
	// UUID returns the characteristic UUID.
	UUID() string
	// Properties returns the capability flags.
	Properties() Properties
	// Read reads the current value.
	Read() ([]byte, error)
	// Write sends data to the characteristic.
	Write(data []byte) error
	// Subscribe registers a callback for notifications on this characteristic.
	Subscribe(callback func(data []byte)) error
}

// Service represents a BLE GATT service group.
type Service interface {
	// UUID returns the service UUID.
	UUID() string
	// Characteristics enumerates the characteristics within the service.
	Characteristics() ([]Characteristic, error)
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// Services enumerates all primary services on the peripheral.
	Services() ([]Service, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the connection drops.
	OnDisconnect(callback func())
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// RequestDevice discovers at most one peripheral matching the filter.
	// It blocks until a match is found or ctx expires, in which case it
	// returns ErrNoDeviceSelected.
	RequestDevice(ctx context.Context, filter Filter) (Device, error)
	// Connect establishes a connection to the device with the given ID.
	Connect(ctx context.Context, id string) (Connection, error)
}
