package custommenu

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Tokens are the values a widget substitutes into its action.
type Tokens struct {
	Value string
	Index string
	State string
}

// ReplaceTokens expands {value}, {index} and {state} in s.
func ReplaceTokens(s string, t Tokens) string {
	return strings.NewReplacer(
		"{value}", t.Value,
		"{index}", t.Index,
		"{state}", t.State,
	).Replace(s)
}

// Runner executes a shell command.
type Runner func(ctx context.Context, command string) error

// Exec runs command with sh -c. Stderr is folded into the error.
func Exec(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%q: %w: %s", command, err, msg)
		}
		return fmt.Errorf("%q: %w", command, err)
	}
	return nil
}

// ResolvePath makes a submenu path relative to the directory of the menu
// that referenced it. Absolute paths and ~ are left to the caller.
func ResolvePath(from, path string) string {
	if filepath.IsAbs(path) || strings.HasPrefix(path, "~") || from == "" {
		return path
	}
	return filepath.Join(filepath.Dir(from), path)
}
