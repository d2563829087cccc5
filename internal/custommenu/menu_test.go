package custommenu

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/waypick/internal/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMenu = `
title: Power
width: 320
sections:
  - type: text
    content: Choose an action
    style: bold
  - type: separator
  - type: button
    label: Lock
    action:
      type: execute
      command: loginctl lock-session
  - type: selectable_list
    items:
      - id: suspend
        label: Suspend
        action: {type: submit, value: suspend}
      - id: reboot
        selected: true
  - type: input
    id: name
    hint: Name
    password: true
    action: {type: submit, value: "hello {value}"}
  - type: checkbox
    id: dnd
    label: Do not disturb
    default: true
    action: {type: execute, command: "dnd {state}", close_on_success: false}
  - type: slider
    id: vol
    label: Volume
    min: 10
    max: 50
    default: 20
    action: {type: execute, command: "vol {value}", trigger: on_release}
  - type: combo
    id: profile
    label: Profile
    items: [quiet, balanced, performance]
    default: 7
    action: {type: submit, value: "{index}"}
  - type: color_picker
    id: accent
  - type: button
    label: More
    action: {type: submenu, path: more.yaml}
shortcuts:
  - key: Ctrl+L
    action: {type: execute, command: loginctl lock-session}
  - key: Escape
    action: {type: back}
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sampleMenu))
	require.NoError(t, err)

	assert.Equal(t, "Power", m.Title)
	assert.Equal(t, 320, m.Width)
	assert.Zero(t, m.Height)
	require.Len(t, m.Widgets, 9, "color_picker is skipped")

	text := m.Widgets[0]
	assert.Equal(t, WidgetText, text.Type)
	assert.True(t, text.Bold)
	assert.Equal(t, ActionCancel, text.Action.Type)

	button := m.Widgets[2]
	assert.Equal(t, ActionExecute, button.Action.Type)
	assert.True(t, button.Action.ClosesOnSuccess())
	assert.Equal(t, TriggerClick, button.Action.Trigger)

	list := m.Widgets[3]
	require.Len(t, list.Items, 2)
	assert.Equal(t, "Suspend", list.Items[0].Label)
	assert.Equal(t, "reboot", list.Items[1].Label)
	assert.True(t, list.Items[1].Selected)
	assert.Equal(t, ActionCancel, list.Items[1].Action.Type)

	in := m.Widgets[4]
	assert.True(t, in.Password)
	assert.Equal(t, "Name", in.Hint)

	box := m.Widgets[5]
	assert.True(t, box.Checked)
	assert.False(t, box.Action.ClosesOnSuccess())

	slider := m.Widgets[6]
	assert.Equal(t, 10.0, slider.Min)
	assert.Equal(t, 50.0, slider.Max)
	assert.Equal(t, 20.0, slider.Value)
	assert.Equal(t, TriggerRelease, slider.Action.Trigger)

	combo := m.Widgets[7]
	assert.Equal(t, []string{"quiet", "balanced", "performance"}, combo.Options)
	assert.Equal(t, 2, combo.Index, "default is clamped")

	assert.Equal(t, "more.yaml", m.Widgets[8].Action.Path)

	require.Len(t, m.Shortcuts, 2)
	assert.Equal(t, KeyCombo{Key: input.KeyL, Ctrl: true}, m.Shortcuts[0].Combo)
	assert.Equal(t, ActionBack, m.Shortcuts[1].Action.Type)
}

func TestParseDefaults(t *testing.T) {
	m, err := Parse([]byte("sections:\n  - type: slider\n    id: s\n"))
	require.NoError(t, err)
	assert.Equal(t, "Custom Menu", m.Title)
	require.Len(t, m.Widgets, 1)
	assert.Equal(t, 0.0, m.Widgets[0].Min)
	assert.Equal(t, 100.0, m.Widgets[0].Max)
	assert.Equal(t, 0.0, m.Widgets[0].Value)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "sections: [\n"},
		{"execute without command", "sections:\n  - type: button\n    action: {type: execute}\n"},
		{"submenu without path", "sections:\n  - type: button\n    action: {type: submenu}\n"},
		{"unknown action", "sections:\n  - type: button\n    action: {type: explode}\n"},
		{"unknown trigger", "sections:\n  - type: slider\n    action: {type: submit, trigger: sometimes}\n"},
		{"bad shortcut", "shortcuts:\n  - key: Hyper+Q\n    action: {type: cancel}\n"},
		{"bad checkbox default", "sections:\n  - type: checkbox\n    default: [1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParseKeyCombo(t *testing.T) {
	tests := []struct {
		in   string
		want KeyCombo
		ok   bool
	}{
		{"Escape", KeyCombo{Key: input.KeyEscape}, true},
		{"Enter", KeyCombo{Key: input.KeyEnter}, true},
		{"q", KeyCombo{Key: input.KeyQ}, true},
		{"Ctrl+Shift+R", KeyCombo{Key: input.KeyR, Ctrl: true, Shift: true}, true},
		{"alt+x", KeyCombo{Key: input.KeyX, Alt: true}, true},
		{"Ctrl+", KeyCombo{}, false},
		{"Meta+A", KeyCombo{}, false},
		{"Ctrl+Nope", KeyCombo{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKeyCombo(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleMenu), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, m.Path)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestErrorMenu(t *testing.T) {
	m := ErrorMenu("/tmp/x.yaml", errors.New("boom"))
	require.NotEmpty(t, m.Widgets)
	assert.Equal(t, "Failed to load config: /tmp/x.yaml", m.Widgets[0].Content)
	assert.True(t, m.Widgets[0].Bold)
}

func TestReplaceTokens(t *testing.T) {
	got := ReplaceTokens("set {value} at {index} ({state}) {value}", Tokens{Value: "v", Index: "2", State: "on"})
	assert.Equal(t, "set v at 2 (on) v", got)
	assert.Equal(t, "plain", ReplaceTokens("plain", Tokens{}))
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/etc/menus/sub.yaml", ResolvePath("/etc/menus/main.yaml", "sub.yaml"))
	assert.Equal(t, "/abs.yaml", ResolvePath("/etc/menus/main.yaml", "/abs.yaml"))
	assert.Equal(t, "~/x.yaml", ResolvePath("/etc/menus/main.yaml", "~/x.yaml"))
	assert.Equal(t, "sub.yaml", ResolvePath("", "sub.yaml"))
}

func TestExec(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, Exec(ctx, "true"))

	err := Exec(ctx, "echo oops >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oops")
}
