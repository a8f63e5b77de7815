package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/cache"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/client"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/config"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/handler"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/middleware"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/notifier"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/repository"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize exchange clients and the manager routing across them
	exchangeClients := []client.ExchangeClient{
		client.NewBinanceClient(logger),
		client.NewBybitClient(logger),
		client.NewOKXClient(logger),
	}
	symbolCache := cache.NewSymbolCache(cfg.Cache.SymbolTTL)
	manager := service.NewExchangeManager(exchangeClients, symbolCache, logger)

	// Initialize services
	datafeed := service.NewDatafeedService(manager, logger)
	chartStore := service.NewChartStateStore()

	// Initialize the trigger store
	triggerRepo, err := repository.NewTriggerRepository(cfg.Triggers.StorePath, logger)
	if err != nil {
		logger.Fatal("Failed to open trigger store", zap.Error(err))
	}

	// Initialize notifiers; Kafka publication is enabled only when brokers
	// are configured
	var alerts notifier.Notifier = notifier.NewLogNotifier(logger)
	var kafkaNotifier *notifier.KafkaNotifier
	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		kafkaNotifier = notifier.NewKafkaNotifier(brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID, logger)
		alerts = notifier.NewMultiNotifier(logger, notifier.NewLogNotifier(logger), kafkaNotifier)
		logger.Info("Kafka trigger alerts enabled", zap.Strings("brokers", brokers))
	}

	// Initialize the trigger engine over caller-supplied accessors
	engine := service.NewTriggerEngine(
		service.TriggerEngineOptions{
			PollInterval: cfg.Triggers.PollInterval,
			Cooldown:     cfg.Triggers.Cooldown,
			Tolerance:    cfg.Triggers.Tolerance,
		},
		service.TriggerAccessors{
			Chart: func() service.ChartHandle {
				if !chartStore.Ready() {
					return nil
				}
				return chartStore
			},
			Price: func() (float64, bool) {
				if !chartStore.Ready() {
					return 0, false
				}
				return datafeed.LastPrice(chartStore.Symbol())
			},
			Triggers: triggerRepo.List,
		},
		func(trigger model.Trigger, price, target float64, firedAt time.Time) {
			if err := triggerRepo.MarkTriggered(trigger.ID, firedAt); err != nil {
				logger.Error("Failed to persist trigger firing",
					zap.String("triggerId", trigger.ID),
					zap.Error(err))
			}

			notifyCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			alerts.Notify(notifyCtx, notifier.TriggerEvent{
				TriggerID: trigger.ID,
				Name:      trigger.Name,
				Type:      trigger.Type,
				Condition: trigger.Condition,
				Action:    trigger.Action.Type,
				Symbol:    trigger.Symbol,
				Price:     price,
				Target:    target,
				FiredAt:   firedAt,
			})
		},
		logger,
	)
	engine.Start()
	defer engine.Stop()

	// Initialize handlers
	datafeedHandler := handler.NewDatafeedHandler(datafeed, manager, logger)
	chartHandler := handler.NewChartHandler(chartStore, logger)
	triggerHandler := handler.NewTriggerHandler(triggerRepo, logger)

	// Set up HTTP server with Gin
	router := setupRouter(datafeedHandler, chartHandler, triggerHandler, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	engine.Stop()
	if kafkaNotifier != nil {
		kafkaNotifier.Close()
	}

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func createLogger(level string) (*zap.Logger, error) {
	// Parse log level
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Create logger config
	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func setupRouter(
	datafeedHandler *handler.DatafeedHandler,
	chartHandler *handler.ChartHandler,
	triggerHandler *handler.TriggerHandler,
	logger *zap.Logger,
) *gin.Engine {
	handler.RegisterValidations()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		datafeed := v1.Group("/datafeed")
		{
			datafeed.GET("/config", datafeedHandler.GetConfig)
			datafeed.GET("/search", datafeedHandler.SearchSymbols)
			datafeed.GET("/symbols", datafeedHandler.ResolveSymbol)
			datafeed.GET("/history", datafeedHandler.GetHistory)
			datafeed.GET("/stream", datafeedHandler.Stream)
		}

		chart := v1.Group("/chart")
		{
			chart.POST("/state", chartHandler.UpdateState)
			chart.GET("/context", chartHandler.GetContext)
		}

		triggers := v1.Group("/triggers")
		{
			triggers.GET("", triggerHandler.ListTriggers)
			triggers.POST("", triggerHandler.CreateTrigger)
			triggers.POST("/:id/toggle", triggerHandler.ToggleTrigger)
			triggers.DELETE("/:id", triggerHandler.DeleteTrigger)
		}
	}

	return router
}
