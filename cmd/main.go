package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pairchat/internal"
	"pairchat/repositories"
	"pairchat/runtime"
	"pairchat/runtime/workers"
	"pairchat/server"
	"pairchat/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so deferred cleanup always executes
// before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if config.InspectPort > 0 {
		internal.StartInspectServer(db, log, config.InspectPort)
	}

	// 3. Repositories
	userRepository, err := repositories.NewUserRepository(db, log)
	if err != nil {
		return err
	}
	defer func() { _ = userRepository.Release() }()

	messageRepository, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return err
	}
	defer func() { _ = messageRepository.Release() }()

	roomRepository := repositories.NewRoomRepository(db, log)

	// 4. Supervision & Orchestration
	// A corrupt persisted directory aborts startup here: serving with
	// an inconsistent directory is not an option.
	sup := workers.NewSupervisor(log, config.RestartInterval)
	registry := runtime.NewRegistry()
	orchestrator, err := runtime.NewOrchestrator(
		log, sup, registry, roomRepository, userRepository, messageRepository,
		config.SnapshotBufferSize,
	)
	if err != nil {
		return fmt.Errorf("orchestrator failed to start: %w", err)
	}

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator.Start(ctx)

	// 6. WebSocket server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	chatService := services.NewChatService(orchestrator)
	app := server.NewApp(log, ctx, address, config.SendBufferSize, registry, chatService)

	err = app.Run()

	// 7. Final cleanup
	orchestrator.Stop()
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("Program stopped cleanly")
	return nil
}
