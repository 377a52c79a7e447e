package main

import (
	"fmt"
	"time"

	"github.com/chris/bloom/internal/broadcast"
	"github.com/chris/bloom/internal/console"
	"github.com/chris/bloom/internal/discord"
	"github.com/spf13/cobra"
)

func newBroadcastCmd(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Send today's tip to every stored profile now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Config.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			store, err := app.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			completer, err := app.newCompleter()
			if err != nil {
				return err
			}
			delay, err := tipDelay(app, dryRun)
			if err != nil {
				return err
			}

			var out broadcast.Sender
			switch {
			case dryRun:
				out = console.New("", cmd.OutOrStdout())
			case app.Config.DiscordToken == "":
				return fmt.Errorf("DISCORD_BOT_TOKEN is required to broadcast; use --dry-run to print tips instead")
			default:
				// Direct messages go over REST; no gateway connection is needed.
				bot, err := discord.NewBot(app.Config.DiscordToken)
				if err != nil {
					return err
				}
				out = bot
			}

			rep, err := broadcast.New(store, completer, out, delay).Run(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "broadcast %s: %d sent, %d failed in %s\n",
				rep.RunID, rep.Sent(), rep.Failed(), rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond))
			for _, res := range rep.Results {
				if res.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", res.UserID, res.Err)
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print tips to stdout instead of sending them")
	return cmd
}

// tipDelay is the pause between recipients; a dry run has nobody to protect
// from rate limits.
func tipDelay(app *App, dryRun bool) (time.Duration, error) {
	delay, err := app.Config.Delay()
	if err != nil {
		return 0, err
	}
	if dryRun {
		return 0, nil
	}
	return delay, nil
}
