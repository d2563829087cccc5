package cmd

import (
	"errors"
	"os"

	"github.com/bnema/waypick/internal/choice"
	"github.com/bnema/waypick/internal/flow"
	"github.com/bnema/waypick/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errNoChoices = errors.New("no choices given; pass them as arguments or pipe them on stdin")

var hintPrefix string

// stdinIsTerminal reports whether nothing can be piped in.
var stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

var inputCmd = &cobra.Command{
	Use:   "input [hint]",
	Short: "Ask for a line of text",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlow(cmd, func(*popup) (ui.Flow, error) {
			return flow.NewInput(hintArg(args, "Input"), false), nil
		})
	},
}

var passwordCmd = &cobra.Command{
	Use:   "password [hint]",
	Short: "Ask for a secret; typed text is masked",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlow(cmd, func(*popup) (ui.Flow, error) {
			return flow.NewInput(hintArg(args, "Password"), true), nil
		})
	},
}

var promptCmd = &cobra.Command{
	Use:   "prompt <choice>...",
	Short: "Pick a choice, then type a value for it",
	Long: `Shows a menu, then a text input for the picked entry. Prints
"id:value". Escape in the input goes back to the menu.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlow(cmd, func(*popup) (ui.Flow, error) {
			return flow.NewTwoStep(choice.ParseAll(args), hintPrefix), nil
		})
	},
}

func init() {
	promptCmd.Flags().StringVar(&hintPrefix, "hint-prefix", "Enter value for", "text shown before the picked entry in the input")

	rootCmd.AddCommand(inputCmd)
	rootCmd.AddCommand(passwordCmd)
	rootCmd.AddCommand(promptCmd)
}

func hintArg(args []string, def string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return def
}

// runMenu shows the choices from args, or streams them from stdin.
func runMenu(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && stdinIsTerminal() {
		return errNoChoices
	}
	return runFlow(cmd, func(*popup) (ui.Flow, error) {
		return menuFlow(cmd, args), nil
	})
}

func menuFlow(cmd *cobra.Command, args []string) ui.Flow {
	if len(args) > 0 {
		return flow.NewMenu(choice.ParseAll(args))
	}
	m := flow.NewStdinMenu(cmd.InOrStdin())
	m.Start(cmd.Context())
	return m
}
