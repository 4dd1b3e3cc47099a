// Package piggy drives discovery of and characteristic I/O with piggybank
// peripherals. It holds the widget state, applies discrete events through an
// explicit transition function, and performs all Bluetooth calls through the
// injected ble.Adapter port.
package piggy

import "piggyctl/internal/ble"

// Status is the connection status of the tracked device. Exactly one device
// is tracked at a time.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusConnected
	StatusFailed
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusFailed:
		return "failed"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// EventKind identifies the discrete events that move the connection status.
type EventKind int

const (
	// EventConnectRequested fires when the user picks a device to connect to.
	EventConnectRequested EventKind = iota
	// EventConnectSucceeded fires when the session is open.
	EventConnectSucceeded
	// EventConnectFailed fires when opening the session fails.
	EventConnectFailed
	// EventDisconnected fires on a platform disconnect or a manual one.
	EventDisconnected
)

// Transition returns the status that follows ev. Events that are not valid
// in the current status leave it unchanged; there is no automatic retry from
// failed or disconnected.
func Transition(s Status, ev EventKind) Status {
	switch ev {
	case EventConnectRequested:
		return StatusConnecting
	case EventConnectSucceeded:
		if s == StatusConnecting {
			return StatusConnected
		}
	case EventConnectFailed:
		if s == StatusConnecting {
			return StatusFailed
		}
	case EventDisconnected:
		if s == StatusConnected || s == StatusConnecting {
			return StatusDisconnected
		}
	}
	return s
}

// CharacteristicInfo describes one discovered characteristic. It is rebuilt
// per connection and discarded on disconnect.
type CharacteristicInfo struct {
	UUID        string
	ServiceUUID string
	Props       ble.Properties
}

// DeviceInfo aggregates what could be read from the peripheral's standard
// services. Every field is optional; peripherals routinely omit whole
// services.
type DeviceInfo struct {
	ServiceUUIDs     []string
	BatteryLevel     *uint8
	Manufacturer     string
	Model            string
	SerialNumber     string
	HardwareRevision string
	FirmwareRevision string
	SoftwareRevision string
}

// BannerLevel tells the presentation layer how to style a transient banner.
type BannerLevel int

const (
	BannerNone BannerLevel = iota
	BannerSuccess
	BannerError
)

// Banner is a transient status message that auto-clears after a fixed delay.
type Banner struct {
	Level BannerLevel
	Text  string
}

// State is a snapshot of the widget state. Copies handed out by the
// controller are safe to keep across updates.
type State struct {
	Status   Status
	Scanning bool
	Sending  bool

	// Devices is the discovered list, deduplicated by ID.
	Devices  []ble.Device
	Selected *ble.Device

	Info            *DeviceInfo
	Characteristics []CharacteristicInfo
	// Target is the characteristic outgoing commands are written to.
	Target *CharacteristicInfo

	Banner Banner
	// Message is the non-transient status line (scan outcomes, connection
	// errors).
	Message string
}

func (s State) clone() State {
	out := s
	out.Devices = append([]ble.Device(nil), s.Devices...)
	out.Characteristics = append([]CharacteristicInfo(nil), s.Characteristics...)
	if s.Selected != nil {
		sel := *s.Selected
		out.Selected = &sel
	}
	if s.Target != nil {
		tgt := *s.Target
		out.Target = &tgt
	}
	if s.Info != nil {
		info := *s.Info
		info.ServiceUUIDs = append([]string(nil), s.Info.ServiceUUIDs...)
		if s.Info.BatteryLevel != nil {
			lvl := *s.Info.BatteryLevel
			info.BatteryLevel = &lvl
		}
		out.Info = &info
	}
	return out
}
