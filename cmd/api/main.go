package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/5kresetlol-glitch/messenger-server/internal/config"
	"github.com/5kresetlol-glitch/messenger-server/internal/handler"
	chathandler "github.com/5kresetlol-glitch/messenger-server/internal/handler/chat"
	chatservice "github.com/5kresetlol-glitch/messenger-server/internal/service/chat"
	"github.com/5kresetlol-glitch/messenger-server/internal/storage"
	"github.com/5kresetlol-glitch/messenger-server/pkg/logx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootLog := logx.New(logx.Config{})

	if err := godotenv.Load(); err != nil {
		// Not fatal: production deployments configure the process
		// environment directly.
		bootLog.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logx.New(logx.Config{Level: cfg.LogLevel, Console: cfg.LogConsole})

	store, err := storage.Open(storage.Config{
		URL:         cfg.DatabaseURL,
		BusyTimeout: cfg.DatabaseBusyTimeout,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open message store")
	}
	defer store.Close()

	hub := chatservice.NewHub(chatservice.NewRegistry(), log)

	router := handler.NewRouter(hub, store, log, chathandler.Options{
		HistoryLimit:      cfg.HistoryLimit,
		SendQueueSize:     cfg.SendQueueSize,
		MessageRatePerSec: cfg.MessageRatePerSec,
		MessageBurst:      cfg.MessageBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", cfg.Addr()).Msg("messenger server listening")
	if err := runServer(ctx, srv, hub, log); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server stopped")
}

func runServer(ctx context.Context, srv *http.Server, hub *chatservice.Hub, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		hub.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
