package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zatekoja/omnichannel-engine/internal/adapters/cache"
	"github.com/zatekoja/omnichannel-engine/internal/adapters/database"
	"github.com/zatekoja/omnichannel-engine/internal/adapters/events"
	"github.com/zatekoja/omnichannel-engine/internal/adapters/scheduling"
	"github.com/zatekoja/omnichannel-engine/internal/adapters/settings"
	"github.com/zatekoja/omnichannel-engine/internal/application/hooks"
	"github.com/zatekoja/omnichannel-engine/internal/application/services"
	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/domain/providers"
	"github.com/zatekoja/omnichannel-engine/internal/domain/repositories"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/clients/redis"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/observability"
	"github.com/zatekoja/omnichannel-engine/pkg/config"
	apperrors "github.com/zatekoja/omnichannel-engine/pkg/errors"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment, cfg.LogLevel)
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		// The engine can run without Redis: no caching, no inquiry events.
		logger.Warn().Err(err).Msg("Failed to initialize Redis client, continuing without it")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	// Initialize adapters
	businessHourAdapter := database.NewBusinessHourAdapter(pgClient)
	agentAdapter := database.NewAgentAdapter(pgClient)
	inquiryAdapter := database.NewInquiryAdapter(pgClient)
	roomAdapter := database.NewRoomAdapter(pgClient)
	visitorAdapter := database.NewVisitorAdapter(pgClient)

	var departmentAdapter repositories.DepartmentRepository = database.NewDepartmentAdapter(pgClient)
	if cacheProvider != nil {
		departmentAdapter = database.NewCachedDepartmentAdapter(departmentAdapter, cacheProvider, metrics)
	}

	settingsStore := settings.NewMemoryStoreFromConfig(cfg.Livechat)
	scheduler := scheduling.NewCronScheduler()
	defer scheduler.Stop()

	// Initialize services
	availability := services.NewAgentAvailabilityService(agentAdapter, departmentAdapter)
	manager, err := services.NewBusinessHourManager(
		scheduler,
		businessHourAdapter,
		settingsStore.GetString(providers.SettingBusinessHourType),
		services.NewSingleBusinessHourBehavior(businessHourAdapter, availability, metrics),
		services.NewMultipleBusinessHourBehavior(businessHourAdapter, departmentAdapter, availability, metrics),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize business hour manager")
	}

	businessHourService := services.NewBusinessHourService(businessHourAdapter, manager)
	if err := businessHourService.CreateDefaultBusinessHourIfNotExists(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to seed default business hour")
	}

	queueService := services.NewInquiryQueueService(inquiryAdapter, settingsStore, eventBus, metrics)
	registry := hooks.NewRegistry()
	routingService := services.NewRoutingService(
		registry,
		inquiryAdapter,
		departmentAdapter,
		agentAdapter,
		roomAdapter,
		visitorAdapter,
		queueService,
		settingsStore,
		metrics,
	)
	// Ready inquiries are announced on the shared updates channel; each
	// announcement triggers one routing pass.
	if eventBus != nil {
		updates, err := eventBus.Subscribe(ctx, providers.EventChannelInquiryUpdates)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to subscribe to inquiry updates")
		}
		go routeReadyInquiries(ctx, updates, inquiryAdapter, routingService)
	} else {
		logger.Warn().Msg("Routing consumer disabled (Redis not available)")
	}

	// The watchers fire once at registration, which brings the manager to
	// the configured state: started when business hours are enabled.
	manager.RegisterSettingsWatchers(settingsStore)

	logger.Info().
		Str("environment", cfg.Environment).
		Bool("business_hours", settingsStore.GetBool(providers.SettingBusinessHoursEnabled)).
		Bool("waiting_queue", settingsStore.GetBool(providers.SettingWaitingQueue)).
		Msg("Omnichannel engine started")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Engine shutting down")

	if err := manager.StopManager(ctx); err != nil {
		logger.Error().Err(err).Msg("Error stopping business hour manager")
	}
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing event bus")
		}
	}

	logger.Info().Msg("Engine stopped")
}

// routeReadyInquiries runs a routing pass for every ready announcement until
// the context is cancelled or the subscription closes.
func routeReadyInquiries(
	ctx context.Context,
	updates <-chan *entities.InquiryEvent,
	inquiries repositories.InquiryRepository,
	router *services.RoutingService,
) {
	logger := observability.GetLogger()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-updates:
			if !ok {
				return
			}
			if event == nil || event.Type != entities.InquiryEventReady {
				continue
			}
			inquiry, err := inquiries.GetByID(ctx, event.InquiryID)
			if err != nil {
				if apperrors.IsNotFound(err) {
					continue
				}
				logger.Error().Err(err).Str("inquiry_id", event.InquiryID).Msg("Failed to load inquiry for routing")
				continue
			}
			if _, err := router.Route(ctx, inquiry); err != nil {
				logger.Error().Err(err).Str("inquiry_id", inquiry.ID).Msg("Routing pass failed")
			}
		}
	}
}
