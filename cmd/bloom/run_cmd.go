package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chris/bloom/internal/broadcast"
	"github.com/chris/bloom/internal/console"
	"github.com/chris/bloom/internal/dialogue"
	"github.com/chris/bloom/internal/discord"
	"github.com/chris/bloom/internal/llm"
	"github.com/chris/bloom/internal/profile"
	"github.com/chris/bloom/internal/scheduler"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newRunCmd(app *App) *cobra.Command {
	var consoleUser string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve the bot on Discord, or in this terminal when no token is set",
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if app.Config.DiscordToken != "" {
				return runBot(ctx, app, store, completer)
			}
			return runConsole(ctx, app, store, completer, consoleUser)
		},
	}

	cmd.Flags().StringVar(&consoleUser, "user", "local", "user id for the terminal session")
	return cmd
}

func runBot(ctx context.Context, app *App, store *profile.Store, completer *llm.Completer) error {
	bot, err := discord.NewBot(app.Config.DiscordToken)
	if err != nil {
		return err
	}
	if err := bot.Open(ctx, dialogue.NewMachine(store, completer, bot)); err != nil {
		return err
	}
	defer bot.Close()

	sched, err := startTips(ctx, app, store, completer, bot)
	if err != nil {
		return err
	}
	defer sched.Stop()

	log.Println("bot is running. Press Ctrl+C to exit.")
	<-ctx.Done()
	log.Println("shutting down.")
	return nil
}

func runConsole(ctx context.Context, app *App, store *profile.Store, completer *llm.Completer, userID string) error {
	term := console.New(userID, app.Out)
	machine := dialogue.NewMachine(store, completer, term)

	// Stored profiles may belong to Discord users; only the terminal user
	// can be reached from here.
	sched, err := startTips(ctx, app, store, completer, term, broadcast.OnlyUsers(userID))
	if err != nil {
		return err
	}
	defer sched.Stop()

	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	if interactive {
		fmt.Fprintln(app.Out, "No DISCORD_BOT_TOKEN set; chatting here. Type /help, or exit to quit.")
	}
	err = term.Run(ctx, os.Stdin, machine, interactive)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// startTips schedules the daily tip broadcast over out.
func startTips(ctx context.Context, app *App, store *profile.Store, completer *llm.Completer, out broadcast.Sender, opts ...broadcast.Option) (*scheduler.Scheduler, error) {
	delay, err := app.Config.Delay()
	if err != nil {
		return nil, err
	}
	sched, err := scheduler.New(ctx, app.Config.TipCron, broadcast.New(store, completer, out, delay, opts...))
	if err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}
