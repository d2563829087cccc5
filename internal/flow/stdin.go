package flow

import (
	"context"
	"errors"
	"io"

	"github.com/bnema/waypick/internal/choice"
	"github.com/bnema/waypick/internal/frames"
	"github.com/bnema/waypick/internal/logger"
	"github.com/bnema/waypick/internal/ui"
)

// StdinMenu is a menu whose choices stream in from a reader while the
// user is already picking.
type StdinMenu struct {
	Single
	selector *frames.Selector
	r        io.Reader
	worker   worker
	arrived  Pending[choice.Choice]
}

func NewStdinMenu(r io.Reader) *StdinMenu {
	s := frames.NewSelector()
	s.SetPlaceholder("Waiting for input...")
	m := &StdinMenu{selector: s, r: r}
	m.Single.frame = s
	return m
}

// Start reads choices in the background.
func (m *StdinMenu) Start(ctx context.Context) {
	m.worker.start(ctx, func(ctx context.Context) {
		// a blocked read cannot be interrupted; the reader goroutine is
		// left behind when the worker stops
		errc := make(chan error, 1)
		go func() {
			errc <- choice.ReadLines(ctx, m.r, func(c choice.Choice) {
				if !m.worker.Stopped() {
					m.arrived.Push(c)
				}
			})
		}()
		select {
		case <-ctx.Done():
		case err := <-errc:
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Failed to read choices", "err", err)
			}
		}
	})
}

// Close stops reading.
func (m *StdinMenu) Close() { m.worker.Close() }

// Selector exposes the list.
func (m *StdinMenu) Selector() *frames.Selector { return m.selector }

func (m *StdinMenu) Poll() {
	for _, c := range m.arrived.Drain() {
		m.selector.Add(c)
	}
}

var _ ui.Poller = (*StdinMenu)(nil)
