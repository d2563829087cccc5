// Package wl owns the compositor connection: global discovery, output
// tracking and the layer-shell overlay surface.
package wl

import (
	"errors"
	"fmt"

	"github.com/bnema/waypick/internal/logger"
	"github.com/rajveermalviya/go-wayland/wayland/client"
)

var (
	// ErrMissingGlobal is returned by Connect when a mandatory global is
	// not advertised.
	ErrMissingGlobal = errors.New("compositor does not advertise a required global")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("wayland session closed")
)

// Namespace identifies our layer surfaces to the compositor.
const Namespace = "waypick"

// Option configures Connect.
type Option func(*Session)

// WithSeatHandler runs fn when the default seat is bound, before any of
// its events are dispatched, so seat listeners never miss capabilities.
// version is the negotiated seat version.
func WithSeatHandler(fn func(seat *client.Seat, version uint32)) Option {
	return func(s *Session) { s.onSeat = fn }
}

// Session is a connection to the compositor plus the globals we bound.
// The globals never change after Connect returns.
type Session struct {
	display    *client.Display
	registry   *client.Registry
	compositor *client.Compositor
	layerShell *LayerShell
	shellVer   uint32
	shm        *client.Shm
	seat       *client.Seat
	seatName   uint32
	seatVer    uint32

	outputs       *outputRegistry
	outputProxies map[uint32]*client.Output
	outputVers    map[uint32]uint32
	scaleChanged  chan int
	onSeat        func(*client.Seat, uint32)
	closed        bool
}

// Connect opens the display named by WAYLAND_DISPLAY, binds the globals
// and waits for the initial burst of output events.
func Connect(opts ...Option) (*Session, error) {
	display, err := client.Connect("")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Wayland display: %w", err)
	}

	s := &Session{
		display:       display,
		outputs:       newOutputRegistry(),
		outputProxies: make(map[uint32]*client.Output),
		outputVers:    make(map[uint32]uint32),
		scaleChanged:  make(chan int, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	display.SetErrorHandler(func(e client.DisplayErrorEvent) {
		logger.Error("Wayland protocol error", "code", e.Code, "message", e.Message)
	})

	registry, err := display.GetRegistry()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to get registry: %w", err)
	}
	s.registry = registry
	registry.SetGlobalHandler(s.handleGlobal)
	registry.SetGlobalRemoveHandler(s.handleGlobalRemove)

	// first roundtrip binds globals, second collects their initial events
	for i := 0; i < 2; i++ {
		if err := s.Roundtrip(); err != nil {
			s.Close()
			return nil, err
		}
	}

	if err := s.checkGlobals(); err != nil {
		s.Close()
		return nil, err
	}

	logger.Debug("Connected to compositor", "outputs", len(s.outputProxies), "max_scale", s.MaxScale())
	return s, nil
}

func (s *Session) checkGlobals() error {
	var missing []string
	if s.compositor == nil {
		missing = append(missing, "wl_compositor")
	}
	if s.layerShell == nil {
		missing = append(missing, LayerShellInterface)
	}
	if s.shm == nil {
		missing = append(missing, "wl_shm")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingGlobal, missing)
	}
	if s.seat == nil {
		logger.Warn("No wl_seat advertised, input will not work")
	}
	return nil
}

func (s *Session) handleGlobal(e client.RegistryGlobalEvent) {
	ctx := s.display.Context()
	var err error

	switch e.Interface {
	case "wl_compositor":
		compositor := client.NewCompositor(ctx)
		if err = s.registry.Bind(e.Name, e.Interface, min(e.Version, 4), compositor); err == nil {
			s.compositor = compositor
		}
	case LayerShellInterface:
		shell := NewLayerShell(ctx)
		version := min(e.Version, 4)
		if err = s.registry.Bind(e.Name, e.Interface, version, shell); err == nil {
			s.layerShell, s.shellVer = shell, version
		}
	case "wl_shm":
		shm := client.NewShm(ctx)
		if err = s.registry.Bind(e.Name, e.Interface, 1, shm); err == nil {
			s.shm = shm
		}
	case "wl_seat":
		if s.seat != nil {
			logger.Debug("Ignoring additional seat", "name", e.Name)
			return
		}
		seat := client.NewSeat(ctx)
		version := min(e.Version, 5)
		if err = s.registry.Bind(e.Name, e.Interface, version, seat); err == nil {
			s.seat, s.seatName, s.seatVer = seat, e.Name, version
			if s.onSeat != nil {
				s.onSeat(seat, version)
			}
		}
	case "wl_output":
		output := client.NewOutput(ctx)
		version := min(e.Version, 4)
		if err = s.registry.Bind(e.Name, e.Interface, version, output); err == nil {
			s.outputVers[e.Name] = version
			s.addOutput(e.Name, output)
		}
	default:
		return
	}

	if err != nil {
		logger.Warn("Failed to bind global", "interface", e.Interface, "error", err)
		return
	}
	logger.Debug("Bound global", "interface", e.Interface, "name", e.Name, "version", e.Version)
}

func (s *Session) addOutput(name uint32, output *client.Output) {
	s.outputs.add(name)
	s.outputProxies[name] = output

	output.SetScaleHandler(func(e client.OutputScaleEvent) {
		if s.outputs.setScale(name, int(e.Factor)) {
			s.notifyScale()
		}
	})
	output.SetModeHandler(func(e client.OutputModeEvent) {
		current := e.Flags&uint32(client.OutputModeCurrent) != 0
		s.outputs.setMode(name, current, int(e.Width), int(e.Height), e.Refresh)
	})
	output.SetNameHandler(func(e client.OutputNameEvent) {
		s.outputs.setName(name, e.Name)
	})
	output.SetDescriptionHandler(func(e client.OutputDescriptionEvent) {
		s.outputs.setDescription(name, e.Description)
	})
}

func (s *Session) handleGlobalRemove(e client.RegistryGlobalRemoveEvent) {
	if output, ok := s.outputProxies[e.Name]; ok {
		delete(s.outputProxies, e.Name)
		if s.outputs.remove(e.Name) {
			s.notifyScale()
		}
		s.releaseOutput(e.Name, output)
		logger.Debug("Output removed", "name", e.Name, "max_scale", s.MaxScale())
		return
	}
	if e.Name == s.seatName && s.seat != nil {
		logger.Warn("Seat removed")
	}
}

func (s *Session) releaseOutput(name uint32, output *client.Output) {
	version := s.outputVers[name]
	delete(s.outputVers, name)
	if !CanRelease("wl_output", version) {
		return
	}
	if err := output.Release(); err != nil {
		logger.Debug("Failed to release output", "error", err)
	}
}

// notifyScale publishes the current max scale, replacing any value the
// loop has not consumed yet.
func (s *Session) notifyScale() {
	scale := s.MaxScale()
	select {
	case <-s.scaleChanged:
	default:
	}
	s.scaleChanged <- scale
}

// ScaleChanged delivers the new max scale after it changes. Only the
// latest value is kept.
func (s *Session) ScaleChanged() <-chan int {
	return s.scaleChanged
}

// MaxScale is the highest scale among known outputs, 1 when there are none.
func (s *Session) MaxScale() int {
	return s.outputs.maxScale()
}

// Outputs returns a snapshot of known outputs.
func (s *Session) Outputs() []Output {
	return s.outputs.list()
}

// Viewport returns the logical size of the primary output.
func (s *Session) Viewport() (int, int) {
	return s.outputs.viewport()
}

// Seat returns the default seat, or nil.
func (s *Session) Seat() *client.Seat {
	return s.seat
}

// Shm returns the shared memory global.
func (s *Session) Shm() *client.Shm {
	return s.shm
}

// Dispatch reads and handles one message, blocking until one arrives.
func (s *Session) Dispatch() error {
	if s.closed {
		return ErrClosed
	}
	if err := s.display.Context().Dispatch(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	return nil
}

// Roundtrip blocks until the compositor has processed every request sent
// so far.
func (s *Session) Roundtrip() error {
	if s.closed {
		return ErrClosed
	}
	callback, err := s.display.Sync()
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	done := false
	callback.SetDoneHandler(func(client.CallbackDoneEvent) {
		done = true
	})
	for !done {
		if err := s.Dispatch(); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the globals and the connection.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	// destroy only exists since version 3
	if s.layerShell != nil && s.shellVer >= 3 {
		if err := s.layerShell.Destroy(); err != nil {
			logger.Debug("Failed to destroy layer shell", "error", err)
		}
	}
	if s.seat != nil && CanRelease("wl_seat", s.seatVer) {
		if err := s.seat.Release(); err != nil {
			logger.Debug("Failed to release seat", "error", err)
		}
	}
	for name, output := range s.outputProxies {
		s.releaseOutput(name, output)
		delete(s.outputProxies, name)
	}
	if err := s.display.Context().Close(); err != nil {
		logger.Debug("Failed to close display", "error", err)
	}
}
