package flow

import (
	"github.com/bnema/waypick/internal/choice"
	"github.com/bnema/waypick/internal/frames"
	"github.com/bnema/waypick/internal/ui"
)

// Step is the state of a two-step flow.
type Step int

const (
	Selecting Step = iota
	Detail
)

// TwoStep picks a choice, then asks for text about it. Cancel while
// typing goes back to the list. The result is "selection:text".
type TwoStep struct {
	hintPrefix string
	selector   *frames.Selector
	input      *frames.TextInput

	step     Step
	selected string
	value    string
	done     bool
	ok       bool
}

// NewTwoStep builds the hint of the second step as hintPrefix followed by
// the selected id.
func NewTwoStep(choices []choice.Choice, hintPrefix string) *TwoStep {
	return &TwoStep{hintPrefix: hintPrefix, selector: frames.NewSelector(choices...)}
}

// Step is the current state.
func (t *TwoStep) Step() Step { return t.step }

// Hint is the prompt shown in the second step.
func (t *TwoStep) Hint() string {
	if t.input == nil {
		return ""
	}
	return t.input.Hint()
}

func (t *TwoStep) CurrentFrame() ui.Frame {
	if t.step == Detail {
		return t.input
	}
	return t.selector
}

func (t *TwoStep) HandleResult(r ui.Result) bool {
	switch t.step {
	case Selecting:
		switch r.Action {
		case ui.Submit:
			t.selected = r.Value
			t.input = frames.NewTextInput(t.hintPrefix+" "+t.selected, false)
			t.step = Detail
		case ui.Cancel:
			t.done = true
		}
	case Detail:
		switch r.Action {
		case ui.Submit:
			t.value = r.Value
			t.done, t.ok = true, true
		case ui.Cancel:
			t.step = Selecting
		}
	}
	return !t.done
}

func (t *TwoStep) Done() bool { return t.done }

func (t *TwoStep) Result() string {
	if !t.ok {
		return ""
	}
	return t.selected + ":" + t.value
}
