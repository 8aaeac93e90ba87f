package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/caro-backend/internal/config"
	"github.com/rocketscienceinc/caro-backend/internal/transport/rest"
	"github.com/rocketscienceinc/caro-backend/internal/transport/tcp"
	"github.com/rocketscienceinc/caro-backend/internal/usecase"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	gameManager := usecase.NewGameManager(logger, conf.Game.MoveTimeout)

	gameServer := tcp.New(logger, gameManager)
	gameManager.SetNotifier(gameServer)

	statusServer := rest.New(logger, gameManager)

	// run HTTP status server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP status server", "port", conf.HTTPPort)
		if httpErr := statusServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP status server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run TCP game server
	gameErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting game server", "addr", conf.Game.GetGameAddr())
		if gameErr := gameServer.Start(ctx, conf.Game.GetGameAddr()); gameErr != nil {
			log.Error("game server error", "error", gameErr)
			gameErrCh <- gameErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP status server error: %w", err)
	case err := <-gameErrCh:
		return fmt.Errorf("game server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
