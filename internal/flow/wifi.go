package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/waypick/internal/choice"
	"github.com/bnema/waypick/internal/frames"
	"github.com/bnema/waypick/internal/logger"
	"github.com/bnema/waypick/internal/network"
	"github.com/bnema/waypick/internal/ui"
)

// WifiBackend is the part of network.Client the Wi-Fi flow needs.
type WifiBackend interface {
	List(ctx context.Context) ([]network.AccessPoint, error)
	Scan(ctx context.Context, timeout time.Duration, fn func(network.AccessPoint)) error
	Connect(ctx context.Context, ssid, password string, fn func(network.State)) error
}

// WifiStep is the state of the Wi-Fi flow.
type WifiStep int

const (
	SelectNetwork WifiStep = iota
	EnterPassword
	Connecting
)

// connectEvent is a state change or the final error of a connect attempt.
type connectEvent struct {
	state network.State
	err   error
}

// Wifi lists networks while a scan adds more, asks for the passphrase and
// follows the connection. The result is "ssid:password", or just the ssid
// for open networks, once connected.
type Wifi struct {
	ctx         context.Context
	backend     WifiBackend
	scanTimeout time.Duration

	selector *frames.Selector
	password *frames.TextInput
	status   *frames.Status

	step      WifiStep
	ssid      string
	pass      string
	connected bool
	done      bool

	scan    worker
	connect worker
	found   Pending[network.AccessPoint]
	events  Pending[connectEvent]
	notices Pending[string]
}

// NewWifi returns the flow. Call Start before running it.
func NewWifi(ctx context.Context, backend WifiBackend, scanTimeout time.Duration) *Wifi {
	s := frames.NewSelector()
	s.SetPlaceholder("Scanning...")
	return &Wifi{ctx: ctx, backend: backend, scanTimeout: scanTimeout, selector: s}
}

// Start lists known networks and scans for more in the background.
func (w *Wifi) Start() {
	w.scan.start(w.ctx, func(ctx context.Context) {
		known, err := w.backend.List(ctx)
		if err != nil {
			logger.Warn("Failed to list networks", "err", err)
			if errors.Is(err, network.ErrNoWifiDevice) {
				w.notices.Push("No Wi-Fi device")
			}
			return
		}
		for _, ap := range known {
			w.found.Push(ap)
		}
		err = w.backend.Scan(ctx, w.scanTimeout, func(ap network.AccessPoint) {
			if !w.scan.Stopped() {
				w.found.Push(ap)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Scan failed", "err", err)
		}
		logger.Debug("Scan finished")
	})
}

// Close stops the background work and waits for it.
func (w *Wifi) Close() {
	w.scan.Close()
	w.connect.Close()
}

// Step is the current state.
func (w *Wifi) Step() WifiStep { return w.step }

// Networks exposes the list frame.
func (w *Wifi) Networks() *frames.Selector { return w.selector }

// Status exposes the connection status frame, nil before connecting.
func (w *Wifi) Status() *frames.Status { return w.status }

func networkChoice(ap network.AccessPoint) choice.Choice {
	c := choice.New(ap.SSID, fmt.Sprintf("%s (%d%%)", ap.SSID, ap.Strength))
	c.Strength = ap.Strength
	return c
}

// Poll applies scan results and connection updates on the loop goroutine.
func (w *Wifi) Poll() {
	for _, ap := range w.found.Drain() {
		w.selector.Upsert(networkChoice(ap))
	}
	for _, ev := range w.events.Drain() {
		w.applyConnectEvent(ev)
	}
	for _, n := range w.notices.Drain() {
		w.selector.SetPlaceholder(n)
	}
}

func (w *Wifi) applyConnectEvent(ev connectEvent) {
	if w.status == nil {
		return
	}
	switch {
	case ev.err != nil:
		w.status.SetText(fmt.Sprintf("Failed to connect to %s\n%v", w.ssid, ev.err), frames.LevelError)
	case ev.state == network.StateActivated:
		w.connected = true
		w.status.SetText(ev.state.Message(), frames.LevelSuccess)
		w.status.Finish(w.ssid)
	case ev.state == network.StateDeactivated:
		w.status.SetText(fmt.Sprintf("Failed to connect to %s", w.ssid), frames.LevelError)
	default:
		w.status.SetText(ev.state.Message(), frames.LevelInfo)
	}
}

func (w *Wifi) startConnect() {
	ssid, pass := w.ssid, w.pass
	w.connect.start(w.ctx, func(ctx context.Context) {
		err := w.backend.Connect(ctx, ssid, pass, func(s network.State) {
			w.events.Push(connectEvent{state: s})
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			w.events.Push(connectEvent{err: err})
		}
	})
}

func (w *Wifi) CurrentFrame() ui.Frame {
	switch w.step {
	case EnterPassword:
		return w.password
	case Connecting:
		return w.status
	}
	return w.selector
}

func (w *Wifi) HandleResult(r ui.Result) bool {
	switch w.step {
	case SelectNetwork:
		switch r.Action {
		case ui.Submit:
			w.ssid = r.Value
			w.password = frames.NewTextInput("Passphrase for "+w.ssid, true)
			w.step = EnterPassword
		case ui.Cancel:
			w.done = true
		}
	case EnterPassword:
		switch r.Action {
		case ui.Submit:
			w.pass = r.Value
			w.status = frames.NewStatus("Connecting to "+w.ssid+"...", frames.LevelInfo)
			w.step = Connecting
			w.startConnect()
		case ui.Cancel:
			w.step = SelectNetwork
		}
	case Connecting:
		if r.Action != ui.Continue {
			w.done = true
		}
	}
	return !w.done
}

func (w *Wifi) Done() bool { return w.done }

func (w *Wifi) Result() string {
	if !w.connected {
		return ""
	}
	if w.pass == "" {
		return w.ssid
	}
	return w.ssid + ":" + w.pass
}
