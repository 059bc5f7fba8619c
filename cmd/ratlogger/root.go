package main

import (
	"errors"
	"ratlogger/internal/config"
	"ratlogger/internal/platform/logging"

	"github.com/spf13/cobra"
)

type cli struct {
	app *app

	logLevel string
}

func rootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "ratlogger",
		Short:         "RatLogger map client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Override the configured log level")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if c.logLevel != "" {
			cfg.Logging.Level = c.logLevel
		}
		logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		c.app = a
		return nil
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if c.app == nil {
			return nil
		}
		return c.app.Close()
	}

	root.AddCommand(
		c.loginCommand(),
		c.registerCommand(),
		c.logoutCommand(),
		c.whoamiCommand(),
		c.watchCommand(),
		c.reportCommand(),
		c.mineCommand(),
		c.nearbyCommand(),
		c.statsCommand(),
		c.leaderboardCommand(),
		c.achievementsCommand(),
	)

	return root
}

var errNotLoggedIn = errors.New("not logged in; run `ratlogger login` first")
