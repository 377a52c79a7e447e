package main

import (
	"github.com/chris/bloom/internal/service"
	"github.com/spf13/cobra"
)

func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage bloom as a background service",
	}

	actions := []struct {
		name, short string
		fn          func() error
	}{
		{"install", "Install the binary and register the service", service.Install},
		{"uninstall", "Unregister the service and remove the binary", service.Uninstall},
		{"start", "Start the service", service.Start},
		{"stop", "Stop the service", service.Stop},
		{"restart", "Restart the service", service.Restart},
		{"status", "Show service status", service.Status},
		{"logs", "Follow the service logs", service.Logs},
	}
	for _, a := range actions {
		fn := a.fn
		cmd.AddCommand(&cobra.Command{
			Use:   a.name,
			Short: a.short,
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return fn() },
		})
	}
	return cmd
}
