package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/thalassa/internal/client/answer"
)

// newAskCommand sends a single question, bypassing the chat session. Useful to
// check that the answer service is reachable.
func newAskCommand(flags *globalFlags) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Send one question to the answer service and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				return fmt.Errorf("question must not be empty")
			}

			a, err := bootstrap(flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			resp, err := a.answers.Ask(cmd.Context(), answer.Request{Query: query, SessionID: sessionID})
			if err != nil {
				return fmt.Errorf("ask %s: %w", a.answers.BaseURL(), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Answer)
			if resp.SessionID != "" {
				fmt.Fprintf(out, "session_id: %s\n", resp.SessionID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session-id", "", "continue an existing answer-service session")
	return cmd
}
