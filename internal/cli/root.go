// Package cli holds the thalassa command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

type globalFlags struct {
	logLevel  string
	logFile   string
	answerURL string
}

// NewRootCommand builds the command tree. Running the root command without a
// subcommand starts the terminal view.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "thalassa",
		Short: "Thalassa - Sakarya University AI Assistant chat client",
		Long: `Thalassa is a chat client for the Thalassa question-answering service.
It forwards your messages to the answer service and renders the conversation,
either in the terminal or in a browser page served locally.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags)
		},
	}

	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error), overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "log file path, overrides LOG_FILE")
	root.PersistentFlags().StringVar(&flags.answerURL, "answer-url", "", "answer service base URL, overrides ANSWER_BASE_URL")

	root.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	root.AddCommand(
		newTUICommand(flags),
		newWebCommand(flags),
		newAskCommand(flags),
	)
	return root
}

// Execute runs the command tree with ctx, which is cancelled on SIGINT/SIGTERM.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
