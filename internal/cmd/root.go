// Package cmd implements the radfixtures command line.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFiles  []string
	logLevel  string
	logFormat string
}

// NewRootCommand builds the radfixtures command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "radfixtures",
		Short: "Generate synthetic radiation test datasets",
		Long: `radfixtures generates reproducible synthetic radiation test records
(TID, SEE and DDD campaigns), blanks a configured fraction of numeric cells,
and writes the result to CSV, JSON Lines, PostgreSQL or Snowflake.

Configuration comes from the environment and an optional .env file; flags
override both.

Example:
  radfixtures generate --rows 100000 --seed 42
  radfixtures generate --sink postgres --workers 0
  radfixtures schema snowflake`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "env files to load (default is $ENV_FILE or .env)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: json or console (overrides LOG_FORMAT)")

	rootCmd.AddCommand(newGenerateCommand(opts))
	rootCmd.AddCommand(newSchemaCommand())

	return rootCmd
}

// Execute runs the command tree with ctx
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
