package ui

import (
	"time"

	"github.com/bnema/waypick/internal/input"
)

const maxRepeatBurst = 4

// repeater synthesises key-down events while a key is held, using the
// compositor's repeat rate (keys per second) and delay (ms).
type repeater struct {
	key    input.Key
	text   string
	mods   input.Modifiers
	held   bool
	next   time.Time
	period time.Duration
}

// observe updates the held key from freshly received events.
func (r *repeater) observe(events []input.Event, now time.Time, rate, delay int32) {
	for i, e := range events {
		switch e.Kind {
		case input.KeyDownEvent:
			if e.Key.IsModifier() || rate <= 0 {
				continue
			}
			r.key, r.mods, r.held = e.Key, e.Mods, true
			r.text = ""
			if i+1 < len(events) && events[i+1].Kind == input.TextEvent {
				r.text = events[i+1].Text
			}
			r.next = now.Add(time.Duration(delay) * time.Millisecond)
			r.period = time.Second / time.Duration(rate)
		case input.KeyUpEvent:
			if r.held && e.Key == r.key {
				r.held = false
			}
		case input.ModifiersEvent:
			r.mods = e.Mods
		case input.FocusLostEvent:
			r.held = false
		}
	}
}

// due returns the repeats that fell due by now.
func (r *repeater) due(now time.Time) []input.Event {
	if !r.held || r.period <= 0 {
		return nil
	}
	var out []input.Event
	for n := 0; !now.Before(r.next); n++ {
		if n == maxRepeatBurst {
			// the loop stalled; don't replay the backlog
			r.next = now.Add(r.period)
			break
		}
		out = append(out, input.Event{Kind: input.KeyDownEvent, Key: r.key, Mods: r.mods, Repeat: true})
		if r.text != "" {
			out = append(out, input.Event{Kind: input.TextEvent, Text: r.text, Mods: r.mods, Repeat: true})
		}
		r.next = r.next.Add(r.period)
	}
	return out
}

func (r *repeater) stop() { r.held = false }
