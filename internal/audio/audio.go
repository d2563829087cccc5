// Package audio lists PulseAudio/PipeWire devices and switches the default
// sink or source through pactl.
package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Kind selects sinks or sources.
type Kind string

const (
	Output Kind = "output"
	Input  Kind = "input"
)

// ParseKind accepts "output" or "input".
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Output, Input:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown device kind %q", s)
}

func (k Kind) noun() string {
	if k == Input {
		return "source"
	}
	return "sink"
}

// Device is one sink or source.
type Device struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     bool   `json:"-"`
}

// Label is what the picker shows.
func (d Device) Label() string {
	if d.Description != "" {
		return d.Description
	}
	return d.Name
}

// Runner runs a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// Client drives pactl.
type Client struct {
	run Runner
}

// NewClient uses pactl from PATH. A nil runner executes commands for real.
func NewClient(run Runner) *Client {
	if run == nil {
		run = execRunner
	}
	return &Client{run: run}
}

// Devices lists sinks or sources with the current default marked. Monitor
// sources are left out.
func (c *Client) Devices(ctx context.Context, kind Kind) ([]Device, error) {
	out, err := c.run(ctx, "pactl", "-f", "json", "list", kind.noun()+"s")
	if err != nil {
		return nil, err
	}
	var all []Device
	if err := json.Unmarshal(out, &all); err != nil {
		return nil, fmt.Errorf("failed to parse pactl output: %w", err)
	}

	def, err := c.run(ctx, "pactl", "get-default-"+kind.noun())
	if err != nil {
		return nil, err
	}
	defName := strings.TrimSpace(string(def))

	devices := all[:0]
	for _, d := range all {
		if kind == Input && strings.HasSuffix(d.Name, ".monitor") {
			continue
		}
		d.Default = d.Name == defName
		devices = append(devices, d)
	}
	return devices, nil
}

// SetDefault makes the named device the default sink or source.
func (c *Client) SetDefault(ctx context.Context, kind Kind, name string) error {
	_, err := c.run(ctx, "pactl", "set-default-"+kind.noun(), name)
	return err
}
