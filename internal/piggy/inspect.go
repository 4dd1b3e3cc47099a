package piggy

import (
	"log/slog"

	"piggyctl/internal/ble"
)

// inspect enumerates services and characteristics on a freshly opened
// session, picks a default write target, and reads the standard values the
// peripheral happens to expose. Results tagged with a stale session token
// are discarded.
func (c *Controller) inspect(conn ble.Connection, token string) {
	services, err := conn.Services()
	if err != nil {
		// The session may still be usable for writes, so don't tear it down.
		slog.Warn("[BLE] service enumeration failed", "error", err)
		return
	}

	info := &DeviceInfo{}
	var chars []CharacteristicInfo
	handles := make(map[string]ble.Characteristic)

	for _, svc := range services {
		info.ServiceUUIDs = append(info.ServiceUUIDs, svc.UUID())
		cs, err := svc.Characteristics()
		if err != nil {
			slog.Warn("[BLE] characteristic enumeration failed", "service", svc.UUID(), "error", err)
			continue
		}
		for _, ch := range cs {
			chars = append(chars, CharacteristicInfo{
				UUID:        ch.UUID(),
				ServiceUUID: svc.UUID(),
				Props:       ch.Properties(),
			})
			handles[ch.UUID()] = ch
		}
	}

	// Default write target: first characteristic that accepts either write
	// mode.
	var (
		target     ble.Characteristic
		targetInfo *CharacteristicInfo
	)
	for i := range chars {
		if chars[i].Props.Writable() {
			target = handles[chars[i].UUID]
			selected := chars[i]
			targetInfo = &selected
			break
		}
	}

	readBattery(handles, info)
	if c.opts.CollectExtendedInfo {
		readDeviceInformation(handles, info)
	}

	c.mu.Lock()
	if c.session != token || c.state.Status != StatusConnected {
		c.mu.Unlock()
		return
	}
	c.state.Info = info
	c.state.Characteristics = chars
	c.state.Target = targetInfo
	c.handles = handles
	c.target = target
	c.mu.Unlock()
	c.notify()
}

// readBattery reads the standard battery level characteristic, a single raw
// byte. Absence of the battery service is normal.
func readBattery(handles map[string]ble.Characteristic, info *DeviceInfo) {
	ch, ok := handles[ble.BatteryLevelCharUUID]
	if !ok {
		return
	}
	value, err := ch.Read()
	if err != nil || len(value) == 0 {
		slog.Debug("[BLE] battery read skipped", "error", err)
		return
	}
	level := value[0]
	info.BatteryLevel = &level
}

// readDeviceInformation reads the six device-information strings. Each read
// stands alone so a missing characteristic never blocks the rest.
func readDeviceInformation(handles map[string]ble.Characteristic, info *DeviceInfo) {
	fields := []struct {
		uuid string
		dst  *string
	}{
		{ble.ManufacturerNameCharUUID, &info.Manufacturer},
		{ble.ModelNumberCharUUID, &info.Model},
		{ble.SerialNumberCharUUID, &info.SerialNumber},
		{ble.HardwareRevisionCharUUID, &info.HardwareRevision},
		{ble.FirmwareRevisionCharUUID, &info.FirmwareRevision},
		{ble.SoftwareRevisionCharUUID, &info.SoftwareRevision},
	}
	for _, f := range fields {
		ch, ok := handles[f.uuid]
		if !ok {
			continue
		}
		value, err := ch.Read()
		if err != nil {
			slog.Debug("[BLE] device info read skipped", "uuid", f.uuid, "error", err)
			continue
		}
		*f.dst = string(value)
	}
}
