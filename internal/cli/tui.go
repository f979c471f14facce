package cli

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/thalassa/internal/tui"
)

func newTUICommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Chat in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags)
		},
	}
}

func runTUI(cmd *cobra.Command, flags *globalFlags) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return errors.New("the terminal view needs an interactive terminal; try `thalassa web` or `thalassa ask`")
	}

	a, err := bootstrap(flags, true)
	if err != nil {
		return err
	}
	defer a.close()

	session := a.newSession()
	defer session.Close()

	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()

	model := tui.New(session, updates, tui.Options{
		MaxMessageLength: a.cfg.Chat.MaxMessageLength,
		WelcomeTimeout:   a.cfg.Chat.WelcomeTimeout,
		Markdown:         a.cfg.Chat.Markdown,
	})

	a.log.Info().Str("answer_url", a.answers.BaseURL()).Msg("starting terminal view")

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal view: %w", err)
	}
	return nil
}
