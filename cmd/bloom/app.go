package main

import (
	"fmt"
	"io"

	"github.com/chris/bloom/config"
	"github.com/chris/bloom/internal/db"
	"github.com/chris/bloom/internal/llm"
	"github.com/chris/bloom/internal/profile"
	"github.com/spf13/cobra"
)

// App carries configuration and output shared by every command.
type App struct {
	Config *config.Config
	Out    io.Writer
}

// openStore opens the profile store on the configured medium.
func (a *App) openStore() (*profile.Store, error) {
	if err := a.Config.ValidateStore(); err != nil {
		return nil, err
	}
	switch a.Config.StoreBackend {
	case "sqlite":
		database, err := db.Open(a.Config.StorePath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return profile.NewStore(database), nil
	default:
		f, err := profile.OpenJSONFile(a.Config.StorePath)
		if err != nil {
			return nil, err
		}
		return profile.NewStore(f), nil
	}
}

func (a *App) newCompleter() (*llm.Completer, error) {
	timeout, err := a.Config.Timeout()
	if err != nil {
		return nil, err
	}
	client, err := llm.NewClient(a.Config.Provider())
	if err != nil {
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}
	return llm.NewCompleter(client, a.Config.LLMProvider, timeout), nil
}

func newRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "bloom",
		Short:         "Parenting assistant bot: profile collection, questions and daily tips",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(app.Out)

	root.AddCommand(
		newRunCmd(app),
		newAskCmd(app),
		newProfileCmd(app),
		newBroadcastCmd(app),
		newServiceCmd(),
	)
	return root
}
