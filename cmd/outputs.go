package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/bnema/waypick/internal/wl"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// OutputsInfo is the JSON form of the outputs command.
type OutputsInfo struct {
	Outputs  []wl.Output `json:"outputs"`
	MaxScale int         `json:"max_scale"`
}

var jsonOutput bool

var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "Show the outputs the compositor reports",
	Long:  `Connects to the compositor and lists every output with its mode and scale.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := wl.Connect()
		if err != nil {
			return err
		}
		defer session.Close()

		info := OutputsInfo{Outputs: session.Outputs(), MaxScale: session.MaxScale()}
		if jsonOutput {
			return writeOutputsJSON(cmd.OutOrStdout(), info)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), renderOutputs(info))
		return err
	},
}

func init() {
	outputsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.AddCommand(outputsCmd)
}

func writeOutputsJSON(w io.Writer, info OutputsInfo) error {
	if info.Outputs == nil {
		info.Outputs = []wl.Output{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

// renderOutputs draws the outputs as a table with the max scale below it.
func renderOutputs(info OutputsInfo) string {
	if len(info.Outputs) == 0 {
		return subtleStyle.Render("No outputs reported")
	}
	rows := make([][]string, 0, len(info.Outputs))
	for _, o := range info.Outputs {
		lw, lh := o.LogicalSize()
		rows = append(rows, []string{
			o.Name,
			o.Description,
			fmt.Sprintf("%dx%d@%.2f", o.Width, o.Height, float64(o.Refresh)/1000),
			strconv.Itoa(o.Scale),
			fmt.Sprintf("%dx%d", lw, lh),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorSubtle)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return keyStyle
			default:
				return cellStyle
			}
		}).
		Headers("NAME", "DESCRIPTION", "MODE", "SCALE", "LOGICAL").
		Rows(rows...)

	return t.String() + "\n" + subtleStyle.Render(fmt.Sprintf("Max scale: %d", info.MaxScale))
}
