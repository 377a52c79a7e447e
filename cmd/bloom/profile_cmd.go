package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/chris/bloom/internal/dialogue"
	"github.com/chris/bloom/internal/profile"
	"github.com/spf13/cobra"
)

func newProfileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect stored profiles",
	}
	cmd.AddCommand(newProfileShowCmd(app), newProfileListCmd(app))
	return cmd
}

func newProfileShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show one user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			p, ok, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no profile for %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), dialogue.RenderProfile(p, time.Now()))
			return nil
		},
	}
}

func newProfileListCmd(app *App) *cobra.Command {
	var where []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List profiles, optionally filtered by attribute",
		Example: "  bloom profile list\n" +
			"  bloom profile list --where gender=Female --where stage=\"2nd Trimester\"",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := parseWhere(where)
			if err != nil {
				return err
			}
			store, err := app.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Find(cmd.Context(), criteria)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "no matching profiles")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintln(out, formatEntry(e))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&where, "where", nil, "key=value filter; repeat to require several")
	return cmd
}

// parseWhere turns key=value flags into Store.Find criteria.
func parseWhere(pairs []string) (map[string]string, error) {
	criteria := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --where %q: want key=value", pair)
		}
		criteria[k] = strings.TrimSpace(v)
	}
	return criteria, nil
}

func formatEntry(e profile.Entry) string {
	parts := make([]string, 0, len(profile.Fields))
	for _, f := range profile.Fields {
		if v := e.Profile.Get(f); v != "" {
			parts = append(parts, f+"="+v)
		}
	}
	return e.UserID + "\t" + strings.Join(parts, " ")
}
