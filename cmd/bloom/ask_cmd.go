package main

import (
	"fmt"
	"strings"

	"github.com/chris/bloom/internal/prompt"
	"github.com/spf13/cobra"
)

func newAskCmd(app *App) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question, personalized with a stored profile",
		Long: "Ask one question and print the reply. With --user the stored profile for\n" +
			"that user personalizes the prompt; without it the question is sent as is.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Config.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			completer, err := app.newCompleter()
			if err != nil {
				return err
			}

			req := prompt.BuildAsk(nil, strings.Join(args, " "))
			if userID != "" {
				store, err := app.openStore()
				if err != nil {
					return err
				}
				defer store.Close()

				p, ok, err := store.Load(cmd.Context(), userID)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintf(cmd.ErrOrStderr(), "no profile for %s; asking without one\n", userID)
				}
				req = prompt.BuildAsk(p, strings.Join(args, " "))
			}

			reply, err := completer.Complete(cmd.Context(), req.System, req.User)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id whose profile personalizes the question")
	return cmd
}
