package main

import (
	"chat-relay/errors"
	"chat-relay/infrastructure/api"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component, serves until a signal arrives, then shuts down in reverse order.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Message store
	store, db, err := openStore(config, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}()
	}
	if config.SeedSampleMessages {
		samples, err := repositories.SampleMessages()
		if err != nil {
			return fmt.Errorf("sample messages: %w", err)
		}
		if err := store.Import(samples...); err != nil {
			return fmt.Errorf("seeding store: %w", err)
		}
		log.Info(fmt.Sprintf("%d sample messages seeded", len(samples)))
	}

	users, err := repositories.NewUserRepository(config.UsersFile)
	if err != nil {
		return fmt.Errorf("user directory: %w", err)
	}

	// 3. Relay state, supervision & orchestration
	options := []runtime.CoordinatorOption{runtime.WithMaxContentLength(config.MaxContentLength)}
	if config.ModerationEnabled {
		moderator, err := newModerator(config, log)
		if err != nil {
			return err
		}
		options = append(options, runtime.WithCensor(moderator))
	}
	coordinator := runtime.NewCoordinator(log, store, runtime.NewRegistry(), options...)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(log, sup, coordinator, config.BufferSize)
	if config.StatsInterval > 0 {
		orchestrator.Add(workers.NewStatsReporter(log, orchestrator, config.StatsInterval))
	}

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestratorDone := make(chan struct{})
	go func() {
		defer close(orchestratorDone)
		if err := orchestrator.Start(ctx); err != nil {
			log.Error("Orchestrator failed", "error", err)
		}
	}()

	// 5. HTTP & websocket server
	chat := services.NewChatService(log, orchestrator, users, config.EnforceSessionSender)
	socket := ws.NewHandler(log, chat, ws.Options{
		BufferSize:   config.ConnectionBufferSize,
		WriteTimeout: config.WriteTimeout,
		PongTimeout:  config.PongTimeout,
		PingInterval: config.PingInterval,
		MaxFrameSize: config.MaxFrameSize,
	})
	if !strings.EqualFold(config.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	routerOptions := []api.RouterOption{}
	if db != nil {
		routerOptions = append(routerOptions, api.WithInspect(db))
	}
	router := api.NewRouter(log, chat, socket, api.Settings{
		GroupingWindow:   config.GroupingWindow,
		TimestampDivider: config.TimestampDivider,
	}, routerOptions...)
	server := &http.Server{Addr: config.Address(), Handler: router}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", config.Address(), "store", config.StoreBackend, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case serveErr = <-errChan:
	}

	// 7. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.WriteTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	orchestrator.Stop()
	<-orchestratorDone
	log.Info("Program stopped cleanly")
	return serveErr
}

// openStore returns the badger handle too when the store is backed by it, so the caller can close it.
func openStore(config internal.Config, log *slog.Logger) (repositories.IMessageRepository, *badger.DB, error) {
	switch config.StoreBackend {
	case internal.StoreBadger:
		db, err := repositories.OpenInMemoryDB()
		if err != nil {
			return nil, nil, fmt.Errorf("database opening failed: %w", err)
		}
		return repositories.NewBadgerMessageRepository(db, log, nil), db, nil
	default:
		return repositories.NewMemoryMessageRepository(log, nil), nil, nil
	}
}

func newModerator(config internal.Config, log *slog.Logger) (*moderation.LanguageModerator, error) {
	data, err := moderation.NewCensoredLoader(nil).LoadAll("censored")
	if err != nil {
		return nil, fmt.Errorf("censored words: %w", err)
	}
	log.Info(fmt.Sprintf("%d censored files loaded [%s]", len(data.Languages), strings.Join(data.Languages, ",")))
	log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	replacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return nil, err
	}
	return moderation.NewLanguageModerator(data, replacement, log)
}
