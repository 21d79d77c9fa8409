package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/kdsapi"
	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/adapter/postgres"
	"github.com/YelzhanWeb/kitchen-display/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/kitchen-display/internal/adapter/simulation"
	"github.com/YelzhanWeb/kitchen-display/internal/app/board"
	"github.com/YelzhanWeb/kitchen-display/internal/app/history"
	"github.com/YelzhanWeb/kitchen-display/internal/config"
	"github.com/YelzhanWeb/kitchen-display/internal/events"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
	"golang.org/x/sync/errgroup"

	amqpAdapter "github.com/YelzhanWeb/kitchen-display/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/kitchen-display/internal/adapter/http"
)

func main() {
	// Parse command-line flags
	mode := flag.String("mode", "board", "Service mode: board, notification-subscriber")
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	port := flag.Int("port", 0, "HTTP port (overrides http.port)")
	simulate := flag.Bool("simulate", false, "Use the in-process order source instead of the KDS API")
	simLatency := flag.Duration("sim-latency", 200*time.Millisecond, "Artificial latency of the simulated order source")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.HTTP.Port = *port
	}

	// Initialize logger
	lgr := logger.New(*mode, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Route to appropriate service
	switch *mode {
	case "board":
		err = runBoard(ctx, cfg, lgr, *simulate, *simLatency)

	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		lgr.Error("service_failed", "Service stopped with error", "shutdown", nil, err)
		os.Exit(1)
	}
	lgr.Info("service_stopped", "Service stopped", "shutdown", nil)
}

func runBoard(ctx context.Context, cfg *config.Config, lgr logger.Logger, simulate bool, simLatency time.Duration) error {
	storeMode, err := board.ParseMode(cfg.Store.Mode)
	if err != nil {
		return err
	}

	// Order source
	var gateway interfaces.OrderGateway
	if simulate {
		gateway = simulation.NewGateway(simLatency)
	} else {
		gateway = kdsapi.NewClient(cfg.Gateway, &http.Client{Timeout: cfg.Gateway.Timeout}, lgr)
	}

	dispatcher := events.NewDispatcher(lgr)
	boardService := board.NewService(gateway, dispatcher, lgr, board.WithMode(storeMode))

	// Optional status log
	var statusLog interfaces.StatusLogRepository
	if cfg.Database.Enabled {
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		defer db.Close()

		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		statusLog = postgres.NewStatusLogRepository(db)

		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		})
	}

	// Optional notifications
	var publisher interfaces.MessagePublisher
	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
		if err != nil {
			return err
		}
		defer mqConn.Close()
		publisher = rabbitmq.NewPublisher(mqConn)

		lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
			"host": cfg.RabbitMQ.Host,
		})
	}

	historyService := history.NewService(statusLog, publisher, lgr)
	unsubscribe := dispatcher.Subscribe(historyService.HandleEvent)
	defer unsubscribe()

	var historyHandler *httpAdapter.HistoryHandler
	if statusLog != nil {
		historyHandler = httpAdapter.NewHistoryHandler(historyService, lgr)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      httpAdapter.NewRouter(httpAdapter.NewBoardHandler(boardService, lgr), historyHandler, lgr),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("Kitchen board started on port %d", cfg.HTTP.Port), "startup", map[string]interface{}{
		"port":          cfg.HTTP.Port,
		"store_mode":    storeMode.String(),
		"poll_interval": cfg.Store.PollInterval.String(),
		"simulate":      simulate,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return boardService.Run(gctx, cfg.Store.PollInterval)
	})

	g.Go(func() error {
		return historyService.Run(gctx)
	})

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		lgr.Info("shutdown_initiated", "Shutting down kitchen board", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		return err
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	consumer := rabbitmq.NewConsumer(mqConn, lgr)
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	err = consumer.ConsumeNotifications(ctx, notificationHandler.HandleNotification)
	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
	return err
}
