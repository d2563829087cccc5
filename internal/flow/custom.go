package flow

import (
	"context"
	"strings"

	"github.com/bnema/waypick/internal/config"
	"github.com/bnema/waypick/internal/custommenu"
	"github.com/bnema/waypick/internal/frames"
	"github.com/bnema/waypick/internal/logger"
	"github.com/bnema/waypick/internal/ui"
)

type menuLevel struct {
	path  string
	frame *frames.Custom
}

// Custom navigates a tree of custom menu files. Submenu paths are relative
// to the file that names them. Cancel and back pop one level; at the root
// they end the flow.
type Custom struct {
	ctx   context.Context
	run   custommenu.Runner
	stack []menuLevel

	done   bool
	result string
}

// NewCustom opens the menu at path. A file that fails to load is shown as
// an error menu.
func NewCustom(ctx context.Context, path string, run custommenu.Runner) *Custom {
	m := &Custom{ctx: ctx, run: run}
	m.push(path)
	return m
}

func (m *Custom) push(path string) {
	if expanded, err := config.ExpandPath(path); err == nil {
		path = expanded
	}
	menu, err := custommenu.Load(path)
	if err != nil {
		logger.Error("Failed to load menu", "path", path, "err", err)
		menu = custommenu.ErrorMenu(path, err)
	}
	m.stack = append(m.stack, menuLevel{path: path, frame: frames.NewCustom(m.ctx, menu, m.run)})
}

// Depth is the number of open levels.
func (m *Custom) Depth() int { return len(m.stack) }

// Path is the file of the current level.
func (m *Custom) Path() string {
	if len(m.stack) == 0 {
		return ""
	}
	return m.stack[len(m.stack)-1].path
}

func (m *Custom) CurrentFrame() ui.Frame {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1].frame
}

func (m *Custom) pop() {
	if len(m.stack) > 1 {
		m.stack = m.stack[:len(m.stack)-1]
		return
	}
	m.done = true
}

func (m *Custom) HandleResult(r ui.Result) bool {
	switch r.Action {
	case ui.Cancel:
		m.pop()
	case ui.Submit:
		switch {
		case r.Value == custommenu.BackMarker:
			m.pop()
		case strings.HasPrefix(r.Value, custommenu.SubmenuPrefix):
			sub := strings.TrimPrefix(r.Value, custommenu.SubmenuPrefix)
			m.push(custommenu.ResolvePath(m.Path(), sub))
		default:
			m.result = r.Value
			m.done = true
		}
	}
	return !m.done
}

func (m *Custom) Done() bool { return m.done }

func (m *Custom) Result() string { return m.result }
