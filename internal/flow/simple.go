package flow

import (
	"github.com/bnema/waypick/internal/choice"
	"github.com/bnema/waypick/internal/frames"
	"github.com/bnema/waypick/internal/ui"
)

// Single wraps one frame: Submit finishes with its value, Cancel finishes
// empty.
type Single struct {
	frame  ui.Frame
	done   bool
	result string
}

// NewSingle runs frame on its own.
func NewSingle(frame ui.Frame) *Single {
	return &Single{frame: frame}
}

// NewMenu picks one of choices.
func NewMenu(choices []choice.Choice) *Single {
	return NewSingle(frames.NewSelector(choices...))
}

// NewInput asks for one line of text.
func NewInput(hint string, password bool) *Single {
	return NewSingle(frames.NewTextInput(hint, password))
}

func (s *Single) CurrentFrame() ui.Frame { return s.frame }

func (s *Single) HandleResult(r ui.Result) bool {
	switch r.Action {
	case ui.Submit:
		s.result = r.Value
		s.done = true
	case ui.Cancel:
		s.done = true
	}
	return !s.done
}

func (s *Single) Done() bool { return s.done }

func (s *Single) Result() string { return s.result }
