package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ouiwatch/ouiwatch/internal/app"
	"github.com/ouiwatch/ouiwatch/internal/settings"
)

// withServices runs fn against a fully wired set of services.
func withServices(fn func(svc *app.Services) error) error {
	svc, err := app.Setup(options())
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	return fn(svc)
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the service status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(svc *app.Services) error {
				ctx := cmd.Context()
				status, err := svc.Client.FetchStatus(ctx)
				if err != nil {
					return fmt.Errorf("fetch status: %w", err)
				}
				iface := "ACTIVE"
				if !status.InterfaceUp {
					iface = "DOWN"
				}
				fmt.Printf("Service:   %s\n", svc.Client.BaseURL())
				fmt.Printf("Cycle:     %05d\n", status.CycleCount)
				fmt.Printf("Interface: %s\n", iface)
				fmt.Printf("Capture:   %ds\n", status.CaptureTime)
				fmt.Printf("Channels:  %s\n", status.Channels.Summary())

				if cur, err := svc.Client.FetchSettings(ctx); err == nil {
					fmt.Printf("Device:    %s\n", cur.Interface)
				}
				return nil
			})
		},
	}
}

func newListsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Print active and inactive watch lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(svc *app.Services) error {
				membership, err := svc.Client.FetchListsStatus(cmd.Context())
				if err != nil {
					return fmt.Errorf("fetch lists: %w", err)
				}
				fmt.Println("Active:   " + joinOrNone(membership.Active))
				fmt.Println("Inactive: " + joinOrNone(membership.Inactive))
				return nil
			})
		},
	}
}

func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Toggle pause and print the new state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(svc *app.Services) error {
				// The client, not Actions: resuming must not start a refresh
				// this process would exit under.
				paused, err := svc.Client.TogglePause(cmd.Context())
				if err != nil {
					return fmt.Errorf("toggle pause: %w", err)
				}
				if paused {
					fmt.Println("Monitoring paused")
				} else {
					fmt.Println("Monitoring resumed")
				}
				return nil
			})
		},
	}
}

func newRestartCmd() *cobra.Command {
	var attempts int
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the scan process and wait until it answers again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(svc *app.Services) error {
				if attempts > 0 {
					svc.Actions.Restarter().MaxAttempts = attempts
				}
				fmt.Println("Initiating restart...")
				state, err := svc.Actions.Restart(cmd.Context())
				if err != nil {
					return fmt.Errorf("restart: %w", err)
				}
				if state == settings.StateGaveUp {
					return errors.New("service did not come back; it may need a manual restart")
				}
				fmt.Println("Service restarted successfully")
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&attempts, "attempts", settings.DefaultMaxAttempts, "liveness probes before giving up")
	return cmd
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
