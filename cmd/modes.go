package cmd

import (
	"time"

	"github.com/bnema/waypick/internal/audio"
	"github.com/bnema/waypick/internal/flow"
	"github.com/bnema/waypick/internal/logger"
	"github.com/bnema/waypick/internal/network"
	"github.com/bnema/waypick/internal/ui"
	"github.com/spf13/cobra"
)

var wifiCmd = &cobra.Command{
	Use:   "wifi",
	Short: "Pick a Wi-Fi network and connect to it",
	Long: `Lists known networks while a scan finds more, asks for the passphrase
and connects through NetworkManager. Prints "ssid:password", or the ssid
alone for open networks, once connected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := network.Dial()
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Debug("Failed to close system bus", "err", err)
			}
		}()

		timeout := time.Duration(cfg.Wifi.ScanTimeout) * time.Second
		return runFlow(cmd, func(*popup) (ui.Flow, error) {
			w := flow.NewWifi(cmd.Context(), client, timeout)
			w.Start()
			return w, nil
		})
	},
}

var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Pick the default audio input or output",
	Long:  `Changes the default sink or source with pactl. Prints "kind:index".`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlow(cmd, func(*popup) (ui.Flow, error) {
			return flow.NewAudio(cmd.Context(), audio.NewClient(nil)), nil
		})
	},
}

var customCmd = &cobra.Command{
	Use:   "custom <file>",
	Short: "Show a menu described by a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlow(cmd, func(*popup) (ui.Flow, error) {
			return flow.NewCustom(cmd.Context(), args[0], nil), nil
		})
	},
}

func init() {
	rootCmd.AddCommand(wifiCmd)
	rootCmd.AddCommand(audioCmd)
	rootCmd.AddCommand(customCmd)
}
