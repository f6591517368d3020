package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/simonferquel/pipehost/internal/config"
	"github.com/simonferquel/pipehost/pkg/pipe"
)

func newServeCmd() *cobra.Command {
	var (
		configPath      string
		name            string
		currentUserOnly bool
		messageMode     bool
		logUser         bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Create a pipe endpoint and echo connected clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}
			if name != "" {
				cfg.Pipe.Name = name
			}
			if cfg.Pipe.Name == "" {
				cfg.Pipe.Name = "pipehost-" + uuid.NewString()
			}
			if currentUserOnly {
				cfg.Pipe.CurrentUserOnly = true
			}
			if messageMode {
				cfg.Pipe.Mode = "message"
			}
			setupLogging(cfg.Logging)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logUser)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", getenvDefault("PIPEHOST_CONFIG", ""), "Path to yaml config")
	cmd.Flags().StringVar(&name, "name", "", "Short pipe name (overrides config)")
	cmd.Flags().BoolVar(&currentUserOnly, "current-user-only", false, "Restrict the pipe to the current user")
	cmd.Flags().BoolVar(&messageMode, "message", false, "Use message transmission mode")
	cmd.Flags().BoolVar(&logUser, "log-user", false, "Log the impersonated client username")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logUser bool) error {
	pc, err := cfg.Pipe.ToPipeConfig()
	if err != nil {
		return err
	}
	ep, err := pipe.Create(cfg.Pipe.Name, pc)
	if err != nil {
		return fmt.Errorf("create endpoint: %w", err)
	}
	defer ep.Close()
	slog.Info("listening", "path", ep.Path(), "mode", cfg.Pipe.Mode)

	for {
		if err := ep.WaitForConnectionContext(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				slog.Info("shutting down")
				return nil
			}
			return fmt.Errorf("wait for connection: %w", err)
		}
		slog.Info("client connected", "state", ep.State())
		echo(ep, logUser)
		if err := ep.Disconnect(); err != nil {
			slog.Warn("disconnect failed", "error", err)
		}
		slog.Info("client disconnected", "state", ep.State())
	}
}

// echo copies client bytes back until the client goes away. After the first
// read the client identity is available; log it on request.
func echo(ep *pipe.Endpoint, logUser bool) {
	buf := make([]byte, 32*1024)
	logged := false
	for {
		n, err := ep.Read(buf)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Warn("read failed", "error", err)
			}
			return
		}
		if logUser && !logged {
			logged = true
			if user, err := ep.ImpersonatedUserName(); err != nil {
				slog.Warn("username lookup failed", "error", err)
			} else {
				slog.Info("client identity", "user", user)
			}
		}
		if _, err := ep.Write(buf[:n]); err != nil {
			slog.Warn("write failed", "error", err)
			return
		}
	}
}
