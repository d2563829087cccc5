package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bnema/waypick/internal/gfx"
	"github.com/bnema/waypick/internal/hyprland"
	"github.com/bnema/waypick/internal/input"
	"github.com/bnema/waypick/internal/logger"
	"github.com/bnema/waypick/internal/ui"
	"github.com/bnema/waypick/internal/wl"
	"github.com/bnema/waypick/internal/xkb"
	"github.com/spf13/cobra"
)

// initialHeight is the surface height requested before the first frame
// reports its size.
const initialHeight = 40

// cursorPos asks the compositor where the pointer is.
var cursorPos = func(ctx context.Context) (int, int, error) {
	client, err := hyprland.New()
	if err != nil {
		return 0, 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return client.CursorPos(ctx)
}

// position is the popup's top-left corner: --x/--y when given, otherwise
// the cursor, otherwise the origin.
func position(cmd *cobra.Command) (int, int) {
	flags := cmd.Flags()
	if flags.Changed("x") || flags.Changed("y") {
		return posX, posY
	}
	x, y, err := cursorPos(cmd.Context())
	if err != nil {
		logger.Warn("Cursor position unavailable, using 0,0", "err", err)
		return 0, 0
	}
	logger.Debug("Cursor position", "x", x, "y", y)
	return x, y
}

// popup is one connection to the compositor with its input devices.
type popup struct {
	session  *wl.Session
	compiler *xkb.Compiler
	bridge   *input.Bridge
	surface  *wl.Surface
	binding  *gfx.Binding
}

func openPopup() (*popup, error) {
	compiler, err := xkb.NewCompiler()
	if err != nil {
		return nil, err
	}
	bridge := input.NewBridge(compiler)
	session, err := wl.Connect(wl.WithSeatHandler(bridge.AttachSeat))
	if err != nil {
		bridge.Close()
		compiler.Close()
		return nil, err
	}
	return &popup{session: session, compiler: compiler, bridge: bridge}, nil
}

// Viewport is the logical size of the output the popup appears on.
func (p *popup) Viewport() (int, int) { return p.session.Viewport() }

// run creates the overlay at (x, y) and drives f until it finishes.
func (p *popup) run(f ui.Flow, x, y int) (string, error) {
	w, h := cfg.Window.MinWidth, initialHeight
	surface, err := p.session.CreateSurface(x, y, w, h)
	if err != nil {
		return "", err
	}
	p.surface = surface

	binding, err := gfx.CreateWindowSurface(p.session.Shm(), surface.Handle(), w, h)
	if err != nil {
		return "", fmt.Errorf("failed to create drawable: %w", err)
	}
	p.binding = binding

	fonts, err := gfx.LoadFonts()
	if err != nil {
		return "", err
	}
	loop := ui.NewLoop(p.session, surface, binding, p.bridge, ui.Options{
		Fonts: fonts,
		Theme: cfg.Theme(),
		X:     x,
		Y:     y,
	})
	return loop.RunFlow(f)
}

// Close tears everything down, drawable first and connection last.
func (p *popup) Close() {
	if p.binding != nil {
		p.binding.Close()
	}
	if p.surface != nil {
		p.surface.Destroy()
	}
	p.bridge.Close()
	p.session.Close()
	p.compiler.Close()
}

// flowCloser is implemented by flows that own background workers.
type flowCloser interface {
	Close()
}

// runFlow opens a popup, builds the flow with it and prints the result.
func runFlow(cmd *cobra.Command, build func(p *popup) (ui.Flow, error)) error {
	x, y := position(cmd)
	p, err := openPopup()
	if err != nil {
		return err
	}
	defer p.Close()

	f, err := build(p)
	if err != nil {
		return err
	}
	if c, ok := f.(flowCloser); ok {
		defer c.Close()
	}

	result, err := p.run(f, x, y)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), result)
}

// writeResult prints a non-empty result on its own line.
func writeResult(out io.Writer, result string) error {
	if result == "" {
		logger.Debug("Nothing selected")
		return nil
	}
	w := bufio.NewWriter(out)
	if _, err := fmt.Fprintln(w, result); err != nil {
		return err
	}
	return w.Flush()
}
