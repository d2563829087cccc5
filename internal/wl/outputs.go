package wl

import "sort"

// Fallback viewport used when no output has reported a current mode.
const (
	DefaultViewportWidth  = 1920
	DefaultViewportHeight = 1080
)

// Output describes one wl_output as last reported by the compositor.
type Output struct {
	GlobalName  uint32 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Scale       int    `json:"scale"`
	Width       int    `json:"width"`  // physical pixels
	Height      int    `json:"height"` // physical pixels
	Refresh     int32  `json:"refresh_mhz"`
}

// LogicalSize is the mode divided by the output scale.
func (o Output) LogicalSize() (int, int) {
	scale := o.Scale
	if scale < 1 {
		scale = 1
	}
	return o.Width / scale, o.Height / scale
}

// outputRegistry tracks outputs by registry name. It does no I/O so the
// scale bookkeeping can be exercised without a compositor.
type outputRegistry struct {
	outputs map[uint32]*Output
}

func newOutputRegistry() *outputRegistry {
	return &outputRegistry{outputs: make(map[uint32]*Output)}
}

func (r *outputRegistry) add(name uint32) *Output {
	o := &Output{GlobalName: name, Scale: 1}
	r.outputs[name] = o
	return o
}

// setScale records a new scale and reports whether the max scale moved.
func (r *outputRegistry) setScale(name uint32, scale int) bool {
	o, ok := r.outputs[name]
	if !ok {
		return false
	}
	if scale < 1 {
		scale = 1
	}
	before := r.maxScale()
	o.Scale = scale
	return r.maxScale() != before
}

// setMode only honours the current mode; preferred and other advertised
// modes are ignored.
func (r *outputRegistry) setMode(name uint32, current bool, width, height int, refresh int32) {
	o, ok := r.outputs[name]
	if !ok || !current {
		return
	}
	o.Width, o.Height, o.Refresh = width, height, refresh
}

func (r *outputRegistry) setName(name uint32, label string) {
	if o, ok := r.outputs[name]; ok {
		o.Name = label
	}
}

func (r *outputRegistry) setDescription(name uint32, desc string) {
	if o, ok := r.outputs[name]; ok {
		o.Description = desc
	}
}

// remove drops an output. It reports true when the removed output held
// the max scale, since the effective max may shrink.
func (r *outputRegistry) remove(name uint32) bool {
	o, ok := r.outputs[name]
	if !ok {
		return false
	}
	wasMax := o.Scale == r.maxScale()
	delete(r.outputs, name)
	return wasMax
}

func (r *outputRegistry) maxScale() int {
	max := 1
	for _, o := range r.outputs {
		if o.Scale > max {
			max = o.Scale
		}
	}
	return max
}

// list returns copies ordered by registry name.
func (r *outputRegistry) list() []Output {
	out := make([]Output, 0, len(r.outputs))
	for _, o := range r.outputs {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GlobalName < out[j].GlobalName })
	return out
}

// viewport is the logical size of the first output with a known mode.
func (r *outputRegistry) viewport() (int, int) {
	for _, o := range r.list() {
		if o.Width > 0 && o.Height > 0 {
			return o.LogicalSize()
		}
	}
	return DefaultViewportWidth, DefaultViewportHeight
}
