// Package choice parses menu entries given on the command line or stdin.
package choice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Choice is one selectable entry.
type Choice struct {
	ID      string
	Display string
	// Selected marks the entry that starts highlighted.
	Selected bool
	// Strength orders discovered entries such as wifi networks, -1 when
	// unknown.
	Strength int
}

// New returns a choice with no strength.
func New(id, display string) Choice {
	if display == "" {
		display = id
	}
	return Choice{ID: id, Display: display, Strength: -1}
}

// Parse reads "id[:display][*]". A trailing '*' preselects the entry and
// the id ends at the first colon.
func Parse(line string) Choice {
	s := line
	selected := false
	if strings.HasSuffix(s, "*") {
		selected = true
		s = s[:len(s)-1]
	}
	id, display, found := strings.Cut(s, ":")
	if !found {
		display = id
	}
	return Choice{ID: id, Display: display, Selected: selected, Strength: -1}
}

// ParseAll parses every argument.
func ParseAll(args []string) []Choice {
	out := make([]Choice, 0, len(args))
	for _, a := range args {
		out = append(out, Parse(a))
	}
	return out
}

// ReadLines parses r line by line and calls fn for each non-empty line
// until EOF or ctx is done.
func ReadLines(ctx context.Context, r io.Reader, fn func(Choice)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fn(Parse(line))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read choices: %w", err)
	}
	return nil
}

func (c Choice) String() string {
	s := c.ID
	if c.Display != c.ID {
		s += ":" + c.Display
	}
	if c.Selected {
		s += "*"
	}
	return s
}
