// Package custommenu loads user-defined menus from YAML files.
package custommenu

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/waypick/internal/input"
	"github.com/bnema/waypick/internal/logger"
	"gopkg.in/yaml.v3"
)

// Result markers a menu submits to navigate instead of finishing.
const (
	SubmenuPrefix = "__SUBMENU__:"
	BackMarker    = "__BACK__"
)

const defaultTitle = "Custom Menu"

// ActionType is what a widget does when activated.
type ActionType string

const (
	ActionExecute ActionType = "execute"
	ActionSubmit  ActionType = "submit"
	ActionCancel  ActionType = "cancel"
	ActionSubmenu ActionType = "submenu"
	ActionBack    ActionType = "back"
)

// Trigger says when a value widget runs its action.
type Trigger string

const (
	TriggerClick   Trigger = "on_click"
	TriggerChange  Trigger = "on_change"
	TriggerRelease Trigger = "on_release"
)

// Action is a widget's behaviour. A missing action cancels.
type Action struct {
	Type           ActionType `yaml:"type"`
	Command        string     `yaml:"command"`
	Value          string     `yaml:"value"`
	Path           string     `yaml:"path"`
	CloseOnSuccess *bool      `yaml:"close_on_success"`
	Trigger        Trigger    `yaml:"trigger"`
}

// ClosesOnSuccess reports whether a successful command ends the menu.
// It defaults to true.
func (a Action) ClosesOnSuccess() bool {
	return a.CloseOnSuccess == nil || *a.CloseOnSuccess
}

func (a *Action) validate() error {
	switch a.Type {
	case "":
		a.Type = ActionCancel
	case ActionExecute:
		if a.Command == "" {
			return errors.New("execute action needs a command")
		}
	case ActionSubmenu:
		if a.Path == "" {
			return errors.New("submenu action needs a path")
		}
	case ActionSubmit, ActionCancel, ActionBack:
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	switch a.Trigger {
	case "":
		a.Trigger = TriggerClick
	case TriggerClick, TriggerChange, TriggerRelease:
	default:
		return fmt.Errorf("unknown trigger %q", a.Trigger)
	}
	return nil
}

// WidgetType names a section kind.
type WidgetType string

const (
	WidgetText      WidgetType = "text"
	WidgetSeparator WidgetType = "separator"
	WidgetButton    WidgetType = "button"
	WidgetList      WidgetType = "selectable_list"
	WidgetInput     WidgetType = "input"
	WidgetCheckbox  WidgetType = "checkbox"
	WidgetSlider    WidgetType = "slider"
	WidgetCombo     WidgetType = "combo"
)

// Item is one entry of a selectable list.
type Item struct {
	ID       string `yaml:"id"`
	Label    string `yaml:"label"`
	Selected bool   `yaml:"selected"`
	Action   Action `yaml:"action"`
}

// Widget is one section of a menu. Which fields apply depends on Type.
type Widget struct {
	Type     WidgetType
	ID       string
	Content  string
	Bold     bool
	Italic   bool
	Label    string
	Hint     string
	Password bool
	Items    []Item
	Options  []string
	Checked  bool
	Min, Max float64
	Value    float64
	Index    int
	Action   Action
}

// rawWidget mirrors the YAML; items and default change shape by type.
type rawWidget struct {
	Type     WidgetType `yaml:"type"`
	ID       string     `yaml:"id"`
	Content  string     `yaml:"content"`
	Style    string     `yaml:"style"`
	Label    string     `yaml:"label"`
	Hint     string     `yaml:"hint"`
	Password bool       `yaml:"password"`
	Items    yaml.Node  `yaml:"items"`
	Default  yaml.Node  `yaml:"default"`
	Min      *float64   `yaml:"min"`
	Max      *float64   `yaml:"max"`
	Action   Action     `yaml:"action"`
}

func (w *Widget) UnmarshalYAML(node *yaml.Node) error {
	var raw rawWidget
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*w = Widget{
		Type:     raw.Type,
		ID:       raw.ID,
		Content:  raw.Content,
		Bold:     raw.Style == "bold",
		Italic:   raw.Style == "italic",
		Label:    raw.Label,
		Hint:     raw.Hint,
		Password: raw.Password,
		Action:   raw.Action,
		Max:      100,
	}
	hasDefault := !raw.Default.IsZero()

	switch raw.Type {
	case WidgetText, WidgetSeparator, WidgetButton, WidgetInput:
	case WidgetList:
		if !raw.Items.IsZero() {
			if err := raw.Items.Decode(&w.Items); err != nil {
				return fmt.Errorf("line %d: items: %w", node.Line, err)
			}
		}
	case WidgetCombo:
		if !raw.Items.IsZero() {
			if err := raw.Items.Decode(&w.Options); err != nil {
				return fmt.Errorf("line %d: items: %w", node.Line, err)
			}
		}
		if hasDefault {
			if err := raw.Default.Decode(&w.Index); err != nil {
				return fmt.Errorf("line %d: default: %w", node.Line, err)
			}
		}
	case WidgetCheckbox:
		if hasDefault {
			if err := raw.Default.Decode(&w.Checked); err != nil {
				return fmt.Errorf("line %d: default: %w", node.Line, err)
			}
		}
	case WidgetSlider:
		if raw.Min != nil {
			w.Min = *raw.Min
		}
		if raw.Max != nil {
			w.Max = *raw.Max
		}
		w.Value = w.Min
		if hasDefault {
			if err := raw.Default.Decode(&w.Value); err != nil {
				return fmt.Errorf("line %d: default: %w", node.Line, err)
			}
		}
	default:
		// unknown types are skipped by Load
		return nil
	}
	return nil
}

// KeyCombo is a parsed shortcut such as "Ctrl+R".
type KeyCombo struct {
	Key              input.Key
	Ctrl, Shift, Alt bool
}

// ParseKeyCombo reads "[Ctrl+][Shift+][Alt+]Key". Modifier names are
// case-insensitive.
func ParseKeyCombo(s string) (KeyCombo, error) {
	var kc KeyCombo
	parts := strings.Split(s, "+")
	for _, mod := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(mod)) {
		case "ctrl", "control":
			kc.Ctrl = true
		case "shift":
			kc.Shift = true
		case "alt":
			kc.Alt = true
		default:
			return KeyCombo{}, fmt.Errorf("unknown modifier %q in %q", mod, s)
		}
	}
	key, ok := input.KeyByName(strings.TrimSpace(parts[len(parts)-1]))
	if !ok {
		return KeyCombo{}, fmt.Errorf("unknown key in %q", s)
	}
	kc.Key = key
	return kc, nil
}

// Shortcut runs Action when Combo is pressed.
type Shortcut struct {
	Combo  KeyCombo
	Action Action
}

type rawShortcut struct {
	Key    string `yaml:"key"`
	Action Action `yaml:"action"`
}

// Menu is a parsed menu file.
type Menu struct {
	Title     string
	Width     int
	Height    int
	Widgets   []Widget
	Shortcuts []Shortcut
	// Path is the file the menu was loaded from.
	Path string
}

type rawMenu struct {
	Title     string        `yaml:"title"`
	Width     int           `yaml:"width"`
	Height    int           `yaml:"height"`
	Sections  []Widget      `yaml:"sections"`
	Shortcuts []rawShortcut `yaml:"shortcuts"`
}

// Parse decodes a menu document.
func Parse(data []byte) (*Menu, error) {
	var raw rawMenu
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse menu: %w", err)
	}

	m := &Menu{Title: raw.Title, Width: raw.Width, Height: raw.Height}
	if m.Title == "" {
		m.Title = defaultTitle
	}

	for i, w := range raw.Sections {
		switch w.Type {
		case WidgetText, WidgetSeparator, WidgetButton, WidgetList, WidgetInput,
			WidgetCheckbox, WidgetSlider, WidgetCombo:
		default:
			logger.Warn("Skipping unknown menu widget", "type", w.Type, "index", i)
			continue
		}
		if err := w.Action.validate(); err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		for j := range w.Items {
			if err := w.Items[j].Action.validate(); err != nil {
				return nil, fmt.Errorf("section %d item %d: %w", i, j, err)
			}
			if w.Items[j].Label == "" {
				w.Items[j].Label = w.Items[j].ID
			}
		}
		if w.Type == WidgetCombo && len(w.Options) > 0 {
			w.Index = min(max(w.Index, 0), len(w.Options)-1)
		}
		m.Widgets = append(m.Widgets, w)
	}

	for i, s := range raw.Shortcuts {
		combo, err := ParseKeyCombo(s.Key)
		if err != nil {
			return nil, fmt.Errorf("shortcut %d: %w", i, err)
		}
		if err := s.Action.validate(); err != nil {
			return nil, fmt.Errorf("shortcut %d: %w", i, err)
		}
		m.Shortcuts = append(m.Shortcuts, Shortcut{Combo: combo, Action: s.Action})
	}
	return m, nil
}

// Load reads and parses the menu at path.
func Load(path string) (*Menu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// ErrorMenu is shown in place of a menu that failed to load.
func ErrorMenu(path string, err error) *Menu {
	return &Menu{
		Title: defaultTitle,
		Path:  path,
		Widgets: []Widget{
			{Type: WidgetText, Bold: true, Content: "Failed to load config: " + path},
			{Type: WidgetText, Content: err.Error()},
		},
	}
}
