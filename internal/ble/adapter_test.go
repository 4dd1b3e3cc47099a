package ble

import (
	"context"
	"errors"
	"testing"
)

func TestFilterMatches(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		device string
		want   bool
	}{
		{"prefix match", Filter{NamePrefix: "piggybank"}, "piggybank-7A", true},
		{"prefix exact", Filter{NamePrefix: "piggybank"}, "piggybank", true},
		{"prefix mismatch", Filter{NamePrefix: "piggybank"}, "toothbrush", false},
		{"prefix is case sensitive", Filter{NamePrefix: "piggybank"}, "Piggybank-7A", false},
		{"accept all matches anything", Filter{AcceptAll: true}, "whatever", true},
		{"accept all matches unnamed", Filter{AcceptAll: true}, "", true},
		{"zero filter matches nothing", Filter{}, "piggybank-7A", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.device); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.device, got, tt.want)
			}
		})
	}
}

func TestDeviceDisplayName(t *testing.T) {
	d := Device{ID: "AA:BB", Name: "piggybank-7A"}
	if got := d.DisplayName(); got != "piggybank-7A" {
		t.Errorf("DisplayName() = %q, want %q", got, "piggybank-7A")
	}
	d.Name = ""
	if got := d.DisplayName(); got != "Unknown Device" {
		t.Errorf("DisplayName() = %q, want %q", got, "Unknown Device")
	}
}

func TestPropertiesWritable(t *testing.T) {
	if (Properties{Read: true}).Writable() {
		t.Error("read-only characteristic reported writable")
	}
	if !(Properties{Write: true}).Writable() {
		t.Error("write characteristic not reported writable")
	}
	if !(Properties{WriteWithoutResponse: true}).Writable() {
		t.Error("write-without-response characteristic not reported writable")
	}
}

func TestIsStandardUUID(t *testing.T) {
	if !IsStandardUUID(BatteryLevelCharUUID) {
		t.Errorf("IsStandardUUID(%q) = false, want true", BatteryLevelCharUUID)
	}
	if IsStandardUUID(UARTRXCharUUID) {
		t.Errorf("IsStandardUUID(%q) = true, want false", UARTRXCharUUID)
	}
}

func TestDemoAdapterImplementsInterfaces(t *testing.T) {
	var _ Adapter = (*DemoAdapter)(nil)
	var _ Connection = (*demoConnection)(nil)
	var _ Service = (*demoService)(nil)
	var _ Characteristic = (*demoCharacteristic)(nil)
}

func TestDemoAdapterRequestDevice(t *testing.T) {
	adapter := NewDemoAdapter()

	dev, err := adapter.RequestDevice(context.Background(), Filter{NamePrefix: "piggybank"})
	if err != nil {
		t.Fatalf("RequestDevice() error = %v", err)
	}
	if dev.Name != "piggybank-7A" {
		t.Errorf("RequestDevice() name = %q, want %q", dev.Name, "piggybank-7A")
	}

	_, err = adapter.RequestDevice(context.Background(), Filter{NamePrefix: "toothbrush"})
	if !errors.Is(err, ErrNoDeviceSelected) {
		t.Errorf("RequestDevice() error = %v, want ErrNoDeviceSelected", err)
	}
}

func TestDemoPeripheralRoundTrip(t *testing.T) {
	adapter := NewDemoAdapter()
	dev, err := adapter.RequestDevice(context.Background(), Filter{AcceptAll: true})
	if err != nil {
		t.Fatalf("RequestDevice() error = %v", err)
	}

	conn, err := adapter.Connect(context.Background(), dev.ID)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	svcs, err := conn.Services()
	if err != nil {
		t.Fatalf("Services() error = %v", err)
	}
	if len(svcs) != 3 {
		t.Fatalf("Services() returned %d services, want 3", len(svcs))
	}

	var battery Characteristic
	for _, svc := range svcs {
		if svc.UUID() != BatteryServiceUUID {
			continue
		}
		chars, err := svc.Characteristics()
		if err != nil {
			t.Fatalf("Characteristics() error = %v", err)
		}
		for _, ch := range chars {
			if ch.UUID() == BatteryLevelCharUUID {
				battery = ch
			}
		}
	}
	if battery == nil {
		t.Fatal("battery level characteristic not found")
	}
	value, err := battery.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(value) != 1 || value[0] != 87 {
		t.Errorf("Read() = %v, want [87]", value)
	}
}

func TestDemoConnectionDisconnectFiresCallback(t *testing.T) {
	adapter := NewDemoAdapter()
	dev, _ := adapter.RequestDevice(context.Background(), Filter{AcceptAll: true})
	conn, err := adapter.Connect(context.Background(), dev.ID)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	fired := false
	conn.OnDisconnect(func() { fired = true })
	if err := conn.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if !fired {
		t.Error("disconnect callback did not fire")
	}
}

func TestClassifyPlatformError(t *testing.T) {
	err := classifyPlatformError(errors.New("org.bluez.Error.NotAuthorized: permission denied"))
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("classifyPlatformError() = %v, want ErrPermissionDenied", err)
	}
	err = classifyPlatformError(errors.New("adapter powered off"))
	if errors.Is(err, ErrPermissionDenied) {
		t.Errorf("classifyPlatformError() = %v, should not be ErrPermissionDenied", err)
	}
}
