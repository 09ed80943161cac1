package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tnicklin/thimble-bot/config"
	"github.com/tnicklin/thimble-bot/setup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := setup.Options{Env: config.Env()}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Generate bot configuration files",
		Long: "Interactively generates configuration for the environment in $" + config.EnvVar + ".\n" +
			"Production writes a single file to temp/ for moving to " + config.ProductionPath + ";\n" +
			"other environments write one file per section to config/<env>/.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := setup.New(setup.Params{
				Prompter: setup.SurveyPrompter{},
				Out:      cmd.OutOrStdout(),
				Options:  opts,
			})
			return w.Run(cmd.Context())
		},
	}

	cmd.SetOut(os.Stdout)
	flags := cmd.Flags()
	flags.BoolVarP(&opts.StatusTracker, "statustracker", "s", false, "also configure the StatusTracker")
	flags.BoolVarP(&opts.MovieTracker, "movietracker", "m", false, "also configure the MovieTracker")
	flags.BoolVar(&opts.Force, "force", false, "overwrite an existing configuration directory")
	flags.BoolVar(&opts.CheckDB, "check-db", false, "try connecting to the database after entering its settings")
	flags.StringVar(&opts.Root, "root", ".", "directory to write config/<env>/ under")
	flags.StringVar(&opts.Env, "env", opts.Env, "configuration environment")

	return cmd
}
