package gfx

import "github.com/bnema/waypick/internal/logger"

// releaseStack runs cleanups in reverse acquisition order, each at most
// once. Binding teardown order depends on it.
type releaseStack struct {
	steps []releaseStep
}

type releaseStep struct {
	name string
	fn   func() error
}

func (r *releaseStack) push(name string, fn func() error) {
	r.steps = append(r.steps, releaseStep{name: name, fn: fn})
}

func (r *releaseStack) run() {
	for i := len(r.steps) - 1; i >= 0; i-- {
		step := r.steps[i]
		if err := step.fn(); err != nil {
			logger.Debug("Release failed", "resource", step.name, "error", err)
		}
	}
	r.steps = r.steps[:0]
}

func (r *releaseStack) empty() bool {
	return len(r.steps) == 0
}
