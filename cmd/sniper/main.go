package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/snipelabs/sniper/internal/auctionhouse"
	"github.com/snipelabs/sniper/internal/bidding"
	"github.com/snipelabs/sniper/internal/config"
	"github.com/snipelabs/sniper/internal/eventlog"
	"github.com/snipelabs/sniper/internal/persistence"
	"github.com/snipelabs/sniper/internal/progress"
	"github.com/snipelabs/sniper/internal/service"
	"github.com/snipelabs/sniper/internal/ui"
	"github.com/snipelabs/sniper/migrations"
)

// stores groups one backend's implementations of every persistence
// concern; exactly one backend is active per process.
type stores struct {
	persistence persistence.Persistence
	log         interface {
		eventlog.Reader
		eventlog.Writer
	}
	progress progress.Tracker
	bidding  bidding.StateStore
}

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load environment variables (local overrides .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Unable to load config", "error", err)
		os.Exit(1)
	}

	st, cleanupStores, err := buildStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("Unable to initialize persistence", "error", err)
		os.Exit(1)
	}
	defer cleanupStores()

	client, cleanupClient, err := buildClient(cfg, logger)
	if err != nil {
		logger.Error("Unable to initialize auction house client", "error", err)
		os.Exit(1)
	}
	defer cleanupClient()

	control := service.NewControl(st.persistence, st.progress, logger)

	engine := bidding.NewEngine(st.bidding, st.log, cfg.OpeningBid)
	sender := auctionhouse.NewSender(client)
	receiver := auctionhouse.NewReceiver(client, st.persistence, st.log, logger)
	uiServer := ui.NewServer(cfg.HTTPAddr, st.persistence, st.log, logger)

	handles := []*service.Handle{
		control.SpawnLogFollower(engine, st.log),
		control.SpawnLogFollower(sender, st.log),
		control.SpawnLoop(auctionhouse.ReceiverServiceName, receiver),
		control.SpawnLoop(ui.ServiceName, uiServer),
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down...")
		control.StopAll()
	}()

	var failures []error
	for _, h := range handles {
		if err := h.Join(); err != nil {
			failures = append(failures, err)
		}
	}

	if err := errors.Join(failures...); err != nil {
		logger.Error("Worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Clean shutdown")
}

func buildStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("Using in-memory persistence")
		return &stores{
			persistence: persistence.NewMemory(),
			log:         eventlog.NewMemoryLog(),
			progress:    progress.NewMemoryTracker(),
			bidding:     bidding.NewMemoryStateStore(),
		}, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("Postgres Connected")

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return &stores{
		persistence: persistence.NewPostgres(pool),
		log:         eventlog.NewPostgresLog(),
		progress:    progress.NewPostgresTracker(),
		bidding:     bidding.NewPostgresStateStore(),
	}, pool.Close, nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}

func buildClient(cfg *config.Config, logger *slog.Logger) (auctionhouse.Client, func(), error) {
	if cfg.AMQPURL == "" {
		logger.Info("Using stub auction house client")
		return auctionhouse.NewStubClient(), func() {}, nil
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, nil, err
	}
	client, err := auctionhouse.NewAMQPClient(conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	logger.Info("RabbitMQ Connected")

	cleanup := func() {
		_ = client.Close()
		_ = conn.Close()
	}
	return client, cleanup, nil
}
