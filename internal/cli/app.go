package cli

import (
	"fmt"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/thalassa/internal/client/answer"
	"github.com/zhouzirui/thalassa/internal/config"
	"github.com/zhouzirui/thalassa/internal/logger"
	chatservice "github.com/zhouzirui/thalassa/internal/service/chat"
)

// app bundles what every command needs after startup.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	answers *answer.Client
}

// bootstrap loads .env and configuration, sets up logging and builds the
// answer client. quiet keeps logs off the terminal.
func bootstrap(flags *globalFlags, quiet bool) (*app, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFile != "" {
		cfg.Log.File = flags.logFile
	}
	if flags.answerURL != "" {
		cfg.Answer.BaseURL = flags.answerURL
	}

	l, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Pretty: cfg.Log.Pretty,
		Quiet:  quiet,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	if envErr != nil {
		l.Debug().Err(envErr).Msg("no .env file loaded, using process environment only")
	}

	answers, err := answer.NewClient(cfg.Answer.BaseURL,
		answer.WithTimeout(cfg.Answer.Timeout),
		answer.WithLogger(l.Component("answer")),
	)
	if err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to create answer client: %w", err)
	}

	return &app{cfg: cfg, log: l, answers: answers}, nil
}

// newSession creates a chat session wired to the answer service.
func (a *app) newSession() *chatservice.Session {
	return chatservice.NewSession(a.answers, chatservice.Config{
		Debounce: a.cfg.Chat.Debounce,
		Logger:   a.log.Component("session"),
	})
}

func (a *app) close() {
	_ = a.log.Close()
}
