package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/waypick/internal/config"
	"github.com/bnema/waypick/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	configPath string
	verbose    bool
	quiet      bool
	posX, posY int

	cfg = config.Default()

	rootCmd = &cobra.Command{
		Use:   "waypick [choice...]",
		Short: "waypick - popup menus for Wayland",
		Long: `waypick shows a small popup at the mouse cursor and prints what was picked.

Choices are given as arguments or one per line on stdin, written as
id[:display][*]. A trailing * preselects the entry. Nothing is printed
when the popup is cancelled.`,
		Example: `  waypick "lock:Lock screen" "suspend:Suspend*" poweroff
  printf "a\nb\n" | waypick
  waypick input "Your name"`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              runMenu,
	}
)

// Execute runs the root command. SIGINT and SIGTERM cancel its context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	flags.BoolVarP(&quiet, "quiet", "q", false, "only log errors")
	flags.IntVar(&posX, "x", 0, "popup x position (default: cursor)")
	flags.IntVar(&posY, "y", 0, "popup y position (default: cursor)")
}

// setup loads the config and fixes the log level for the whole run.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded
	logger.Configure(logger.Options{
		Level:   cfg.Logging.LogLevel,
		Verbose: verbose,
		Quiet:   quiet,
		Output:  cmd.ErrOrStderr(),
	})
	return nil
}
