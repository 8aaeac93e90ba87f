package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"

	"github.com/rocketscienceinc/caro-backend/internal/usecase"
)

type statsProvider interface {
	Stats() usecase.Stats
}

// Server is the ops sidecar: liveness ping and a status snapshot of the
// game registries. It holds no game state of its own.
type Server struct {
	logger *slog.Logger
	stats  statsProvider
}

func New(logger *slog.Logger, stats statsProvider) *Server {
	return &Server{
		logger: logger,
		stats:  stats,
	}
}

// Start - starts the HTTP status server and shuts it down when the
// context is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	log := that.logger.With("method", "Start")

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(httplog.RequestLogger(that.logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
	}))

	router.Get("/ping", that.handlePing)
	router.Get("/api/status", that.handleStatus)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down status server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(that.stats.Stats()); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
