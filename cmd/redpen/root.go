package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/redpen/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
	logFormat    string
)

var rootCmd = &cobra.Command{
	Use:   "redpen",
	Short: "LLM-powered copy-editing for book chapters",
	Long: `Redpen copy-edits book chapters with a language model.

Chapters are packed into token-budgeted batches and sent to an
OpenAI-compatible backend by a pool of workers. The model answers with
compact line-level edit commands that are applied deterministically,
so every change can be reviewed as a diff before export.

  redpen plan ./chapters        # show how chapters will be batched
  redpen run ./chapters         # edit every pending chapter
  redpen status ./chapters      # per-chapter progress
  redpen diff ./chapters ch03   # review one chapter's edits
  redpen export ./chapters      # write the edited chapters`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.redpen/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "redpen home directory (default: ~/.redpen)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "text", "output format: text, yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn or error",
	)
	rootCmd.PersistentFlags().StringVar(
		&logFormat, "log-format", "text", "log format: text or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(
		planCmd,
		runCmd,
		statusCmd,
		diffCmd,
		retryCmd,
		exportCmd,
		testConnectionCmd,
		configCmd,
		promptsCmd,
		versionCmd,
	)
}
