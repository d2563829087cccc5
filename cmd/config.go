package cmd

import (
	"fmt"
	"strconv"

	"github.com/bnema/waypick/internal/config"
	"github.com/bnema/waypick/internal/logger"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage waypick configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), renderConfig(activeConfigPath(), cfg))
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), activeConfigPath())
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		path := activeConfigPath()
		if err := config.Save(path, force); err != nil {
			return err
		}
		logger.Info("Configuration initialized", "path", path)
		_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().Bool("force", false, "Force overwrite existing configuration")
	rootCmd.AddCommand(configCmd)
}

func activeConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

func renderConfig(path string, c *config.Config) string {
	level := c.Logging.LogLevel
	if level == "" {
		level = "warn"
	}
	rows := [][]string{
		{"logging.log_level", level},
		{"window.font_size", strconv.FormatFloat(c.Window.FontSize, 'g', -1, 64)},
		{"window.padding", strconv.Itoa(c.Window.Padding)},
		{"window.min_width", strconv.Itoa(c.Window.MinWidth)},
		{"window.max_rows", strconv.Itoa(c.Window.MaxRows)},
		{"wifi.scan_timeout", strconv.Itoa(c.Wifi.ScanTimeout)},
		{"wallpaper.directory", c.Wallpaper.Directory},
		{"wallpaper.thumbnail_size", strconv.Itoa(c.Wallpaper.ThumbnailSize)},
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
		Headers("KEY", "VALUE").
		Rows(rows...)

	return subtleStyle.Render("Config file: "+path) + "\n" + t.String()
}
