package flow

import (
	"context"
	"strconv"
	"time"

	"github.com/bnema/waypick/internal/audio"
	"github.com/bnema/waypick/internal/choice"
	"github.com/bnema/waypick/internal/frames"
	"github.com/bnema/waypick/internal/logger"
	"github.com/bnema/waypick/internal/ui"
)

const audioTimeout = 3 * time.Second

// AudioBackend is the part of audio.Client the audio flow needs.
type AudioBackend interface {
	Devices(ctx context.Context, kind audio.Kind) ([]audio.Device, error)
	SetDefault(ctx context.Context, kind audio.Kind, name string) error
}

// AudioStep is the state of the audio flow.
type AudioStep int

const (
	SelectKind AudioStep = iota
	SelectDevice
	AudioFailed
)

// Audio picks input or output, then the device to make default. Cancel
// on the device list goes back. The result is "kind:index".
type Audio struct {
	ctx     context.Context
	backend AudioBackend

	kinds   *frames.Selector
	devices *frames.Selector
	status  *frames.Status

	step    AudioStep
	kind    audio.Kind
	byIndex map[string]audio.Device
	result  string
	done    bool
}

func NewAudio(ctx context.Context, backend AudioBackend) *Audio {
	kinds := frames.NewSelector(
		choice.New(string(audio.Input), "Input (Microphones)"),
		choice.New(string(audio.Output), "Output (Speakers/Headphones)"),
	)
	return &Audio{ctx: ctx, backend: backend, kinds: kinds}
}

// Step is the current state.
func (a *Audio) Step() AudioStep { return a.step }

// Devices exposes the device list, nil before a kind is chosen.
func (a *Audio) Devices() *frames.Selector { return a.devices }

func (a *Audio) fail(msg string, err error) {
	logger.Error(msg, "err", err)
	a.status = frames.NewStatus(msg+"\n"+err.Error(), frames.LevelError)
	a.step = AudioFailed
}

func (a *Audio) loadDevices() {
	ctx, cancel := context.WithTimeout(a.ctx, audioTimeout)
	defer cancel()
	devices, err := a.backend.Devices(ctx, a.kind)
	if err != nil {
		a.fail("Failed to list audio devices", err)
		return
	}
	a.devices = frames.NewSelector()
	a.devices.SetPlaceholder("No devices")
	a.byIndex = make(map[string]audio.Device, len(devices))
	for _, d := range devices {
		id := strconv.Itoa(d.Index)
		a.byIndex[id] = d
		c := choice.New(id, d.Label())
		c.Selected = d.Default
		a.devices.Add(c)
	}
	a.step = SelectDevice
}

func (a *Audio) CurrentFrame() ui.Frame {
	switch a.step {
	case SelectDevice:
		return a.devices
	case AudioFailed:
		return a.status
	}
	return a.kinds
}

func (a *Audio) HandleResult(r ui.Result) bool {
	switch a.step {
	case SelectKind:
		switch r.Action {
		case ui.Submit:
			kind, err := audio.ParseKind(r.Value)
			if err != nil {
				a.fail("Unknown device kind", err)
				break
			}
			a.kind = kind
			a.loadDevices()
		case ui.Cancel:
			a.done = true
		}
	case SelectDevice:
		switch r.Action {
		case ui.Submit:
			dev, ok := a.byIndex[r.Value]
			if !ok {
				a.done = true
				break
			}
			ctx, cancel := context.WithTimeout(a.ctx, audioTimeout)
			err := a.backend.SetDefault(ctx, a.kind, dev.Name)
			cancel()
			if err != nil {
				a.fail("Failed to set default device", err)
				break
			}
			logger.Info("Default device changed", "kind", a.kind, "device", dev.Name)
			a.result = string(a.kind) + ":" + r.Value
			a.done = true
		case ui.Cancel:
			a.step = SelectKind
		}
	case AudioFailed:
		if r.Action != ui.Continue {
			a.done = true
		}
	}
	return !a.done
}

func (a *Audio) Done() bool { return a.done }

func (a *Audio) Result() string { return a.result }
