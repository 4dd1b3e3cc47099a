package piggy

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"piggyctl/internal/ble"
)

// Options configures the controller behavior. The recognized toggles fold
// the historical widget variants into one component.
type Options struct {
	// NameFilter restricts discovery to devices whose advertised name starts
	// with the prefix. Empty means accept all devices.
	NameFilter string
	// OptionalServices is passed along with discovery requests.
	OptionalServices []string
	// CollectExtendedInfo enables the device-information string reads on top
	// of the battery read.
	CollectExtendedInfo bool

	ScanTimeout      time.Duration
	SuccessBannerTTL time.Duration // delay before a success banner clears
	ErrorBannerTTL   time.Duration // delay before an error banner clears
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		NameFilter:          "piggybank",
		OptionalServices:    []string{ble.BatteryServiceUUID, ble.DeviceInfoServiceUUID, ble.UARTServiceUUID},
		CollectExtendedInfo: true,
		ScanTimeout:         10 * time.Second,
		SuccessBannerTTL:    3 * time.Second,
		ErrorBannerTTL:      5 * time.Second,
	}
}

// Controller owns the widget state. All Bluetooth work goes through the
// injected adapter; all state changes go through Transition and end with a
// subscriber notification. Methods are safe for concurrent use.
type Controller struct {
	adapter ble.Adapter
	opts    Options
	updates chan struct{}

	mu      sync.Mutex
	state   State
	conn    ble.Connection
	handles map[string]ble.Characteristic // live handles, keyed by characteristic UUID
	target  ble.Characteristic
	// session tags the current connection attempt. Async results carrying a
	// stale tag are dropped, so a disconnect that fires mid-enumeration
	// cannot resurrect old state.
	session   string
	bannerGen int
	enabled   bool
}

// NewController creates a controller over the given adapter.
func NewController(adapter ble.Adapter, opts Options) *Controller {
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = 10 * time.Second
	}
	if opts.SuccessBannerTTL <= 0 {
		opts.SuccessBannerTTL = 3 * time.Second
	}
	if opts.ErrorBannerTTL <= 0 {
		opts.ErrorBannerTTL = 5 * time.Second
	}
	return &Controller{
		adapter: adapter,
		opts:    opts,
		updates: make(chan struct{}, 1),
		handles: make(map[string]ble.Characteristic),
	}
}

// Updates returns a channel that receives a token after every state change.
// Consecutive changes coalesce; read State after each receive.
func (c *Controller) Updates() <-chan struct{} {
	return c.updates
}

// State returns a copy of the current widget state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *Controller) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

func (c *Controller) filter() ble.Filter {
	if c.opts.NameFilter == "" {
		return ble.Filter{AcceptAll: true, OptionalServices: c.opts.OptionalServices}
	}
	return ble.Filter{NamePrefix: c.opts.NameFilter, OptionalServices: c.opts.OptionalServices}
}

func (c *Controller) enableAdapter() error {
	c.mu.Lock()
	enabled := c.enabled
	c.mu.Unlock()
	if enabled {
		return nil
	}
	if err := c.adapter.Enable(); err != nil {
		return err
	}
	c.mu.Lock()
	c.enabled = true
	c.mu.Unlock()
	return nil
}

// Scan runs one discovery pass and appends the result to the device list,
// deduplicated by ID. Cancellation and timeout are informational, not errors.
func (c *Controller) Scan(ctx context.Context) {
	c.mu.Lock()
	if c.state.Scanning {
		c.mu.Unlock()
		return
	}
	c.state.Scanning = true
	c.state.Message = ""
	c.mu.Unlock()
	c.notify()

	if err := c.enableAdapter(); err != nil {
		c.mu.Lock()
		c.state.Scanning = false
		c.state.Message = scanErrorMessage(err)
		c.mu.Unlock()
		c.notify()
		return
	}

	sctx, cancel := context.WithTimeout(ctx, c.opts.ScanTimeout)
	defer cancel()
	dev, err := c.adapter.RequestDevice(sctx, c.filter())

	c.mu.Lock()
	c.state.Scanning = false
	if err != nil {
		c.state.Message = scanErrorMessage(err)
	} else if !c.hasDeviceLocked(dev.ID) {
		c.state.Devices = append(c.state.Devices, dev)
		slog.Info("[BLE] device discovered", "id", dev.ID, "name", dev.DisplayName(), "rssi", dev.RSSI)
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) hasDeviceLocked(id string) bool {
	for _, d := range c.state.Devices {
		if d.ID == id {
			return true
		}
	}
	return false
}

func scanErrorMessage(err error) string {
	switch {
	case errors.Is(err, ble.ErrNoDeviceSelected):
		return "No device selected."
	case errors.Is(err, ble.ErrPermissionDenied):
		return "Bluetooth access denied. Allow Bluetooth for this application in system settings, then scan again."
	default:
		return "Scan failed: " + err.Error()
	}
}

// Connect opens a session to a previously discovered device. Selecting a new
// device supersedes the previous session, which is torn down explicitly.
func (c *Controller) Connect(ctx context.Context, id string) {
	c.mu.Lock()
	var dev *ble.Device
	for i := range c.state.Devices {
		if c.state.Devices[i].ID == id {
			dev = &c.state.Devices[i]
			break
		}
	}
	if dev == nil {
		c.state.Message = "Unknown device: " + id
		c.mu.Unlock()
		c.notify()
		return
	}

	prev := c.conn
	token := uuid.NewString()
	c.session = token
	c.conn = nil
	c.target = nil
	c.handles = make(map[string]ble.Characteristic)

	selected := *dev
	c.state.Selected = &selected
	c.state.Info = nil
	c.state.Characteristics = nil
	c.state.Target = nil
	c.state.Message = ""
	c.state.Status = Transition(c.state.Status, EventConnectRequested)
	c.mu.Unlock()
	c.notify()

	if prev != nil {
		_ = prev.Disconnect()
	}

	if err := c.enableAdapter(); err != nil {
		c.failConnect(token, nil, err)
		return
	}

	conn, err := c.adapter.Connect(ctx, id)
	if err != nil {
		c.failConnect(token, conn, err)
		return
	}

	conn.OnDisconnect(func() {
		slog.Info("[BLE] disconnected", "id", id)
		c.applyDisconnect(token)
	})

	c.mu.Lock()
	if c.session != token {
		// Superseded while the session was opening.
		c.mu.Unlock()
		_ = conn.Disconnect()
		return
	}
	c.conn = conn
	c.state.Status = Transition(c.state.Status, EventConnectSucceeded)
	c.mu.Unlock()
	c.notify()

	slog.Info("[BLE] connected", "id", id, "name", selected.DisplayName())
	c.inspect(conn, token)
}

// failConnect records a failed attempt and forces a disconnect of whatever
// half-open session the adapter handed back.
func (c *Controller) failConnect(token string, conn ble.Connection, err error) {
	if conn != nil {
		_ = conn.Disconnect()
	}
	c.mu.Lock()
	if c.session == token {
		c.state.Status = Transition(c.state.Status, EventConnectFailed)
		c.state.Message = "Connection failed: " + err.Error()
	}
	c.mu.Unlock()
	c.notify()
	slog.Warn("[BLE] connect failed", "error", err)
}

// applyDisconnect clears the session state. Stale tokens are ignored so a
// late disconnect from a superseded session cannot clobber the current one.
func (c *Controller) applyDisconnect(token string) {
	c.mu.Lock()
	if c.session != token {
		c.mu.Unlock()
		return
	}
	c.session = ""
	c.conn = nil
	c.target = nil
	c.handles = make(map[string]ble.Characteristic)
	c.state.Status = Transition(c.state.Status, EventDisconnected)
	c.state.Selected = nil
	c.state.Info = nil
	c.state.Characteristics = nil
	c.state.Target = nil
	c.state.Message = "Device disconnected."
	c.mu.Unlock()
	c.notify()
}

// Disconnect tears down the current session on user request.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	token := c.session
	c.mu.Unlock()
	if conn == nil {
		return
	}
	_ = conn.Disconnect()
	c.applyDisconnect(token)
}

// SelectTarget picks the characteristic with the given UUID as the outgoing
// command target. Only writable characteristics are accepted.
func (c *Controller) SelectTarget(charUUID string) {
	c.mu.Lock()
	var changed bool
	for i := range c.state.Characteristics {
		ci := c.state.Characteristics[i]
		if ci.UUID != charUUID || !ci.Props.Writable() {
			continue
		}
		if handle, ok := c.handles[charUUID]; ok {
			c.target = handle
			selected := ci
			c.state.Target = &selected
			changed = true
		}
		break
	}
	c.mu.Unlock()
	if changed {
		c.notify()
	}
}

// SendData encodes value as UTF-8 and writes it once to the selected
// characteristic. With no characteristic selected it reports an error and
// performs no I/O.
func (c *Controller) SendData(value string) {
	c.mu.Lock()
	target := c.target
	if target == nil {
		c.setBannerLocked(Banner{Level: BannerError, Text: "No writable characteristic selected"}, c.opts.ErrorBannerTTL)
		c.mu.Unlock()
		c.notify()
		return
	}
	c.state.Sending = true
	c.mu.Unlock()
	c.notify()

	err := target.Write([]byte(value))

	c.mu.Lock()
	c.state.Sending = false
	if err != nil {
		c.setBannerLocked(Banner{Level: BannerError, Text: "Send failed: " + err.Error()}, c.opts.ErrorBannerTTL)
		slog.Warn("[BLE] write failed", "error", err)
	} else {
		c.setBannerLocked(Banner{Level: BannerSuccess, Text: "Sent: " + value}, c.opts.SuccessBannerTTL)
		slog.Info("[BLE] write ok", "bytes", len(value))
	}
	c.mu.Unlock()
	c.notify()
}

// setBannerLocked installs a transient banner and schedules its one-shot
// clear. The generation counter keeps a late clear from wiping a newer
// banner. Caller must hold mu.
func (c *Controller) setBannerLocked(b Banner, ttl time.Duration) {
	c.bannerGen++
	gen := c.bannerGen
	c.state.Banner = b
	time.AfterFunc(ttl, func() {
		c.mu.Lock()
		if c.bannerGen == gen {
			c.state.Banner = Banner{}
			c.mu.Unlock()
			c.notify()
			return
		}
		c.mu.Unlock()
	})
}

// Close forces a best-effort disconnect of any open session so the platform
// connection is not leaked on teardown.
func (c *Controller) Close() error {
	c.mu.Lock()
	conn := c.conn
	token := c.session
	c.mu.Unlock()
	if conn != nil {
		if err := conn.Disconnect(); err != nil {
			slog.Warn("[BLE] disconnect on close failed", "error", err)
		}
		c.applyDisconnect(token)
	}
	return nil
}
