package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/thalassa/internal/handler"
	chathandler "github.com/zhouzirui/thalassa/internal/handler/chat"
)

func newWebCommand(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the chat page for a browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(flags, false)
			if err != nil {
				return err
			}
			defer a.close()

			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			chatHandler := chathandler.New(func() chathandler.Session {
				return a.newSession()
			}, chathandler.Options{
				MaxMessageLength: a.cfg.Chat.MaxMessageLength,
				WelcomeTimeout:   a.cfg.Chat.WelcomeTimeout,
			}, a.log.Component("chat"))

			srv := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           handler.NewRouter(chatHandler, a.log.Component("http")),
				ReadHeaderTimeout: 5 * time.Second,
				IdleTimeout:       120 * time.Second,
			}
			srv.RegisterOnShutdown(chatHandler.Shutdown)

			a.log.Info().
				Str("addr", srv.Addr).
				Str("answer_url", a.answers.BaseURL()).
				Msg("Thalassa web view listening")
			return runServer(cmd.Context(), srv)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides PORT")
	return cmd
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
