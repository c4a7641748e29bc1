// ouiwatch is a terminal dashboard for a Wi-Fi probe detection service.
//
// Usage:
//
//	ouiwatch                 Open the dashboard
//	ouiwatch status          Print the service status
//	ouiwatch lists           Print active and inactive watch lists
//	ouiwatch pause           Toggle pause and print the new state
//	ouiwatch restart         Restart the scan process and wait for it
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ouiwatch/ouiwatch/internal/app"
)

var (
	configPath string
	prefsPath  string
	poll       time.Duration
	verbose    bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ouiwatch: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "ouiwatch",
	Short:             "Terminal dashboard for a Wi-Fi probe detection service",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `ouiwatch watches the device log of a probe detection service and
manages its watch lists and scan settings.

Without a subcommand it opens the dashboard.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cmd.Context(), options())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/ouiwatch/config.toml)")
	rootCmd.PersistentFlags().StringVar(&prefsPath, "prefs", "", "preferences file (default ~/.config/ouiwatch/prefs.toml)")
	rootCmd.PersistentFlags().DurationVar(&poll, "poll", 0, "device and status refresh interval (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newStatusCmd(),
		newListsCmd(),
		newPauseCmd(),
		newRestartCmd(),
	)
}

func options() app.Options {
	return app.Options{
		ConfigPath: configPath,
		PrefsPath:  prefsPath,
		Poll:       poll,
		Verbose:    verbose,
	}
}
