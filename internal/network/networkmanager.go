// Package network talks to NetworkManager over the system D-Bus to list,
// scan and join Wi-Fi networks.
package network

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bnema/waypick/internal/logger"
	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
)

// ErrNoWifiDevice is returned when NetworkManager manages no Wi-Fi device.
var ErrNoWifiDevice = errors.New("no Wi-Fi device found")

const (
	nmService        = "org.freedesktop.NetworkManager"
	nmPath           = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	nmIface          = "org.freedesktop.NetworkManager"
	deviceIface      = "org.freedesktop.NetworkManager.Device"
	wirelessIface    = "org.freedesktop.NetworkManager.Device.Wireless"
	accessPointIface = "org.freedesktop.NetworkManager.AccessPoint"
	activeIface      = "org.freedesktop.NetworkManager.Connection.Active"
	propertiesIface  = "org.freedesktop.DBus.Properties"

	deviceTypeWifi uint32 = 2
)

// AccessPoint is a visible network.
type AccessPoint struct {
	SSID string
	// Strength is the signal quality in percent.
	Strength int
}

// State is the state of an active connection.
type State uint32

const (
	StateUnknown State = iota
	StateActivating
	StateActivated
	StateDeactivating
	StateDeactivated
)

// Message is the human readable form of s.
func (s State) Message() string {
	switch s {
	case StateActivating:
		return "Connecting..."
	case StateActivated:
		return "Connected"
	case StateDeactivating:
		return "Disconnecting..."
	case StateDeactivated:
		return "Disconnected"
	}
	return "Unknown state"
}

// Final reports whether no further state change is expected.
func (s State) Final() bool {
	return s == StateActivated || s == StateDeactivated
}

// Client is a private system bus connection to NetworkManager.
type Client struct {
	conn *dbus.Conn
	nm   dbus.BusObject
}

// Dial opens a private system bus connection.
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	return &Client{conn: conn, nm: conn.Object(nmService, nmPath)}, nil
}

// Close closes the bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) object(path dbus.ObjectPath) dbus.BusObject {
	return c.conn.Object(nmService, path)
}

func (c *Client) wifiDevices(ctx context.Context) ([]dbus.ObjectPath, error) {
	var devices []dbus.ObjectPath
	if err := c.nm.CallWithContext(ctx, nmIface+".GetDevices", 0).Store(&devices); err != nil {
		return nil, fmt.Errorf("GetDevices: %w", err)
	}
	var wifi []dbus.ObjectPath
	for _, dev := range devices {
		v, err := c.object(dev).GetProperty(deviceIface + ".DeviceType")
		if err != nil {
			logger.Debug("Skipping device", "path", dev, "err", err)
			continue
		}
		if t, ok := v.Value().(uint32); ok && t == deviceTypeWifi {
			wifi = append(wifi, dev)
		}
	}
	if len(wifi) == 0 {
		return nil, ErrNoWifiDevice
	}
	return wifi, nil
}

func (c *Client) accessPoints(ctx context.Context, dev dbus.ObjectPath) ([]dbus.ObjectPath, error) {
	var aps []dbus.ObjectPath
	err := c.object(dev).CallWithContext(ctx, wirelessIface+".GetAllAccessPoints", 0).Store(&aps)
	if err != nil {
		return nil, fmt.Errorf("GetAllAccessPoints on %s: %w", dev, err)
	}
	return aps, nil
}

func (c *Client) accessPoint(path dbus.ObjectPath) (AccessPoint, error) {
	obj := c.object(path)
	ssid, err := obj.GetProperty(accessPointIface + ".Ssid")
	if err != nil {
		return AccessPoint{}, err
	}
	strength, err := obj.GetProperty(accessPointIface + ".Strength")
	if err != nil {
		return AccessPoint{}, err
	}
	return accessPointFrom(ssid.Value(), strength.Value())
}

func accessPointFrom(ssid, strength interface{}) (AccessPoint, error) {
	raw, ok := ssid.([]byte)
	if !ok {
		return AccessPoint{}, fmt.Errorf("unexpected Ssid type %T", ssid)
	}
	s, ok := strength.(byte)
	if !ok {
		return AccessPoint{}, fmt.Errorf("unexpected Strength type %T", strength)
	}
	return AccessPoint{SSID: string(raw), Strength: int(s)}, nil
}

// strongest keeps the best entry per SSID, sorted by SSID. Hidden
// networks are dropped.
func strongest(aps []AccessPoint) []AccessPoint {
	best := make(map[string]int)
	for _, ap := range aps {
		if ap.SSID == "" {
			continue
		}
		if s, ok := best[ap.SSID]; !ok || ap.Strength > s {
			best[ap.SSID] = ap.Strength
		}
	}
	out := make([]AccessPoint, 0, len(best))
	for ssid, s := range best {
		out = append(out, AccessPoint{SSID: ssid, Strength: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SSID < out[j].SSID })
	return out
}

// List returns the access points NetworkManager already knows about,
// without scanning.
func (c *Client) List(ctx context.Context) ([]AccessPoint, error) {
	devices, err := c.wifiDevices(ctx)
	if err != nil {
		return nil, err
	}
	var all []AccessPoint
	for _, dev := range devices {
		paths, err := c.accessPoints(ctx, dev)
		if err != nil {
			logger.Warn("Failed to list access points", "err", err)
			continue
		}
		for _, p := range paths {
			ap, err := c.accessPoint(p)
			if err != nil {
				logger.Debug("Skipping access point", "path", p, "err", err)
				continue
			}
			all = append(all, ap)
		}
	}
	return strongest(all), nil
}

// Scan requests a scan on every Wi-Fi device and calls fn for each access
// point that appears until timeout elapses or ctx is done. fn runs on the
// calling goroutine.
func (c *Client) Scan(ctx context.Context, timeout time.Duration, fn func(AccessPoint)) error {
	devices, err := c.wifiDevices(ctx)
	if err != nil {
		return err
	}

	signals := make(chan *dbus.Signal, 32)
	c.conn.Signal(signals)
	defer c.conn.RemoveSignal(signals)

	for _, dev := range devices {
		opts := []dbus.MatchOption{
			dbus.WithMatchObjectPath(dev),
			dbus.WithMatchInterface(wirelessIface),
			dbus.WithMatchMember("AccessPointAdded"),
		}
		if err := c.conn.AddMatchSignalContext(ctx, opts...); err != nil {
			return fmt.Errorf("failed to watch access points: %w", err)
		}
		defer c.conn.RemoveMatchSignal(opts...)

		err := c.object(dev).CallWithContext(ctx, wirelessIface+".RequestScan", 0, map[string]dbus.Variant{}).Err
		if err != nil {
			// a scan may already be running; its results still arrive
			logger.Warn("RequestScan failed", "device", dev, "err", err)
		}
	}

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(remaining):
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			if sig.Name != wirelessIface+".AccessPointAdded" || len(sig.Body) == 0 {
				continue
			}
			path, ok := sig.Body[0].(dbus.ObjectPath)
			if !ok {
				continue
			}
			ap, err := c.accessPoint(path)
			if err != nil || ap.SSID == "" {
				continue
			}
			fn(ap)
		}
	}
}

// connectionSettings builds the settings dict for AddAndActivateConnection.
func connectionSettings(ssid, password string) map[string]map[string]dbus.Variant {
	settings := map[string]map[string]dbus.Variant{
		"connection": {
			"id":   dbus.MakeVariant(ssid),
			"type": dbus.MakeVariant("802-11-wireless"),
			"uuid": dbus.MakeVariant(uuid.NewString()),
		},
		"802-11-wireless": {
			"ssid": dbus.MakeVariant([]byte(ssid)),
			"mode": dbus.MakeVariant("infrastructure"),
		},
	}
	if password != "" {
		settings["802-11-wireless-security"] = map[string]dbus.Variant{
			"key-mgmt": dbus.MakeVariant("wpa-psk"),
			"psk":      dbus.MakeVariant(password),
		}
	}
	return settings
}

// stateFromSignal extracts State from a PropertiesChanged body.
func stateFromSignal(body []interface{}) (State, bool) {
	if len(body) < 2 {
		return 0, false
	}
	if iface, ok := body[0].(string); !ok || iface != activeIface {
		return 0, false
	}
	changed, ok := body[1].(map[string]dbus.Variant)
	if !ok {
		return 0, false
	}
	v, ok := changed["State"]
	if !ok {
		return 0, false
	}
	s, ok := v.Value().(uint32)
	if !ok {
		return 0, false
	}
	return State(s), true
}

// Connect adds and activates a connection to ssid on the first Wi-Fi
// device, reporting every state change to fn until the connection is
// activated or deactivated. An empty password joins an open network.
func (c *Client) Connect(ctx context.Context, ssid, password string, fn func(State)) error {
	devices, err := c.wifiDevices(ctx)
	if err != nil {
		return err
	}

	signals := make(chan *dbus.Signal, 16)
	c.conn.Signal(signals)
	defer c.conn.RemoveSignal(signals)

	var active, device dbus.ObjectPath
	call := c.nm.CallWithContext(ctx, nmIface+".AddAndActivateConnection", 0,
		connectionSettings(ssid, password), devices[0], dbus.ObjectPath("/"))
	if err := call.Store(&active, &device); err != nil {
		return fmt.Errorf("AddAndActivateConnection: %w", err)
	}
	logger.Debug("Activating connection", "ssid", ssid, "path", active)

	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(active),
		dbus.WithMatchInterface(propertiesIface),
		dbus.WithMatchMember("PropertiesChanged"),
	}
	if err := c.conn.AddMatchSignalContext(ctx, opts...); err != nil {
		return fmt.Errorf("failed to watch connection: %w", err)
	}
	defer c.conn.RemoveMatchSignal(opts...)

	// the state may have moved before the match was in place
	if v, err := c.object(active).GetProperty(activeIface + ".State"); err == nil {
		if s, ok := v.Value().(uint32); ok {
			fn(State(s))
			if State(s).Final() {
				return nil
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-signals:
			if !ok {
				return errors.New("system bus connection closed")
			}
			if sig.Path != active {
				continue
			}
			s, ok := stateFromSignal(sig.Body)
			if !ok {
				continue
			}
			fn(s)
			if s.Final() {
				return nil
			}
		}
	}
}
