// Package hyprland queries the Hyprland IPC socket.
package hyprland

import (
	"context"
	"errors"
	"fmt"
	"os"

	hypr "github.com/thiagokokada/hyprland-go"
	"github.com/thiagokokada/hyprland-go/helpers"
)

// ErrNotRunning is returned when the environment names no Hyprland instance.
var ErrNotRunning = errors.New("hyprland is not running")

// Client sends requests to one Hyprland instance.
type Client struct {
	rc *hypr.RequestClient
}

// SocketPath returns the request socket of the running instance.
func SocketPath() (string, error) {
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") == "" {
		return "", ErrNotRunning
	}
	return helpers.GetSocket(helpers.RequestSocket)
}

// New returns a client for the running instance.
func New() (*Client, error) {
	path, err := SocketPath()
	if err != nil {
		return nil, err
	}
	return NewWithSocket(path), nil
}

// NewWithSocket talks to the socket at path.
func NewWithSocket(path string) *Client {
	return &Client{rc: hypr.NewClient(path)}
}

// CursorPos returns the cursor position in global logical coordinates.
// The request socket has no deadlines of its own, so ctx bounds the wait.
func (c *Client) CursorPos(ctx context.Context) (x, y int, err error) {
	type reply struct {
		pos hypr.CursorPos
		err error
	}
	done := make(chan reply, 1)
	go func() {
		pos, err := c.rc.CursorPos()
		done <- reply{pos, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return 0, 0, fmt.Errorf("failed to query cursor position: %w", r.err)
		}
		return r.pos.X, r.pos.Y, nil
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	}
}
