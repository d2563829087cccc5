package wl

import (
	"errors"
	"fmt"

	"github.com/bnema/waypick/internal/logger"
	"github.com/rajveermalviya/go-wayland/wayland/client"
)

// SurfaceState is the overlay surface lifecycle.
type SurfaceState int

const (
	Unconfigured SurfaceState = iota
	Configured
	Closed
)

func (s SurfaceState) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("SurfaceState(%d)", int(s))
	}
}

// Drawable is whatever presents pixels for the surface. Resize takes
// physical pixels.
type Drawable interface {
	Resize(width, height int) error
}

type baseSurface interface {
	Commit() error
	SetBufferScale(scale int32) error
	Destroy() error
}

type layerRole interface {
	SetSize(width, height uint32) error
	SetAnchor(anchor uint32) error
	SetExclusiveZone(zone int32) error
	SetMargin(top, right, bottom, left int32) error
	SetKeyboardInteractivity(mode uint32) error
	AckConfigure(serial uint32) error
	Destroy() error
}

// Surface is a top-left anchored overlay with an exclusive keyboard grab.
// Nothing may be presented on it before Configured reports true.
type Surface struct {
	handle *client.Surface
	base   baseSurface
	role   layerRole

	state      SurfaceState
	configured bool
	shouldExit bool

	width, height int
	scale         int
	x, y          int
}

// CreateSurface creates an overlay at (x, y) with the requested logical
// size. The compositor's configure arrives asynchronously.
func (s *Session) CreateSurface(x, y, width, height int) (*Surface, error) {
	if s.closed {
		return nil, ErrClosed
	}
	handle, err := s.compositor.CreateSurface()
	if err != nil {
		return nil, fmt.Errorf("failed to create surface: %w", err)
	}
	layer, err := s.layerShell.GetLayerSurface(handle, nil, LayerOverlay, Namespace)
	if err != nil {
		_ = handle.Destroy()
		return nil, fmt.Errorf("failed to get layer surface: %w", err)
	}

	surface := newSurface(handle, layer)
	surface.handle = handle
	layer.SetConfigureHandler(func(e LayerSurfaceConfigureEvent) {
		surface.handleConfigure(e.Serial, e.Width, e.Height)
	})
	layer.SetClosedHandler(surface.handleClosed)

	if err := surface.create(x, y, width, height); err != nil {
		surface.Destroy()
		return nil, err
	}
	return surface, nil
}

func newSurface(base baseSurface, role layerRole) *Surface {
	return &Surface{base: base, role: role, scale: 1}
}

func (s *Surface) create(x, y, width, height int) error {
	s.width, s.height = width, height
	s.x, s.y = x, y

	err := errors.Join(
		s.role.SetSize(uint32(width), uint32(height)),
		s.role.SetAnchor(AnchorTop|AnchorLeft),
		s.role.SetMargin(int32(y), 0, 0, int32(x)),
		s.role.SetKeyboardInteractivity(KeyboardInteractivityExclusive),
		s.role.SetExclusiveZone(0),
	)
	if err != nil {
		return fmt.Errorf("failed to configure layer surface: %w", err)
	}
	if err := s.base.Commit(); err != nil {
		return fmt.Errorf("failed to commit surface: %w", err)
	}
	return nil
}

func (s *Surface) handleConfigure(serial, width, height uint32) {
	if width > 0 {
		s.width = int(width)
	}
	if height > 0 {
		s.height = int(height)
	}
	if err := s.role.AckConfigure(serial); err != nil {
		logger.Error("Failed to ack configure", "serial", serial, "error", err)
		return
	}
	if err := s.base.Commit(); err != nil {
		logger.Error("Failed to commit after configure", "error", err)
		return
	}
	s.configured = true
	if s.state == Unconfigured {
		s.state = Configured
	}
	logger.Debug("Surface configured", "serial", serial, "width", s.width, "height", s.height)
}

func (s *Surface) handleClosed() {
	s.state = Closed
	s.shouldExit = true
	logger.Debug("Surface closed by compositor")
}

// Resize requests a new logical size and resizes d to match the current
// buffer scale. It does nothing until the first configure.
func (s *Surface) Resize(width, height int, d Drawable) error {
	if !s.configured {
		return nil
	}
	if err := s.role.SetSize(uint32(width), uint32(height)); err != nil {
		return fmt.Errorf("failed to set size: %w", err)
	}
	if err := s.base.Commit(); err != nil {
		return fmt.Errorf("failed to commit surface: %w", err)
	}
	s.width, s.height = width, height
	if d == nil {
		return nil
	}
	return d.Resize(width*s.scale, height*s.scale)
}

// Reposition moves the surface so it fits inside the viewport.
func (s *Surface) Reposition(x, y, viewportW, viewportH, windowW, windowH int) error {
	x, y = ClampPosition(x, y, viewportW, viewportH, windowW, windowH)
	if err := s.role.SetMargin(int32(y), 0, 0, int32(x)); err != nil {
		return fmt.Errorf("failed to set margin: %w", err)
	}
	if err := s.base.Commit(); err != nil {
		return fmt.Errorf("failed to commit surface: %w", err)
	}
	s.x, s.y = x, y
	return nil
}

// ClampPosition keeps a window of windowW x windowH inside the viewport.
// A window larger than the viewport is pinned to 0.
func ClampPosition(x, y, viewportW, viewportH, windowW, windowH int) (int, int) {
	return clampAxis(x, viewportW-windowW), clampAxis(y, viewportH-windowH)
}

func clampAxis(v, max int) int {
	if v > max {
		v = max
	}
	if v < 0 {
		v = 0
	}
	return v
}

// SetBufferScale applies an integer buffer scale; values below 1 become 1.
func (s *Surface) SetBufferScale(scale int) error {
	if scale < 1 {
		scale = 1
	}
	if err := s.base.SetBufferScale(int32(scale)); err != nil {
		return fmt.Errorf("failed to set buffer scale: %w", err)
	}
	if err := s.base.Commit(); err != nil {
		return fmt.Errorf("failed to commit surface: %w", err)
	}
	s.scale = scale
	return nil
}

// Handle is the underlying wl_surface, nil for test surfaces.
func (s *Surface) Handle() *client.Surface { return s.handle }

func (s *Surface) State() SurfaceState { return s.state }
func (s *Surface) Configured() bool    { return s.configured }
func (s *Surface) ShouldExit() bool    { return s.shouldExit }
func (s *Surface) Scale() int          { return s.scale }

// Size is the negotiated logical size.
func (s *Surface) Size() (int, int) { return s.width, s.height }

// Position is the last applied top-left offset.
func (s *Surface) Position() (int, int) { return s.x, s.y }

// Destroy tears down the role before the surface.
func (s *Surface) Destroy() {
	if s.role != nil {
		if err := s.role.Destroy(); err != nil {
			logger.Debug("Failed to destroy layer surface", "error", err)
		}
		s.role = nil
	}
	if s.base != nil {
		if err := s.base.Destroy(); err != nil {
			logger.Debug("Failed to destroy surface", "error", err)
		}
		s.base = nil
	}
}
