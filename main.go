package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"collection-service/config"
	"collection-service/database"
	"collection-service/handlers"
	"collection-service/middleware"
	"collection-service/rabbitmq"
	"collection-service/services"
	"collection-service/store"
	"collection-service/utils"
	"collection-service/version"
)

const (
	EndPointHealth        = "/health"
	EndPointVersion       = "/version"
	EndPointCollections   = "/collections"
	EndPointBrowse        = "/collections/browse"
	EndPointCollection    = "/collections/:id"
	EndPointAccept        = "/collections/:id/accept"
	EndPointComplete      = "/collections/:id/complete"
	EndPointCancel        = "/collections/:id/cancel"
	EndPointRating        = "/collections/:id/rating"
	EndPointNotifications = "/notifications"
	EndPointMarkRead      = "/notifications/:id/read"
	EndPointWebSocket     = "/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found, using system environment variables")
	}

	cfg := config.Load()

	log.Info("Starting the collection service...")

	// Optional MySQL persistence behind the in-memory store.
	var persist *database.CollectionDB
	if cfg.DBEnabled {
		db, err := utils.DBConnect(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := database.InitSchema(db); err != nil {
			log.Fatalf("Failed to initialize database schema: %v", err)
		}
		persist = database.NewCollectionDB(db)
	} else {
		log.Warn("DB_ENABLED is false, running with in-memory state only")
	}

	collectionStore := store.NewStore(persistOrNil(persist))

	hub := services.NewWebSocketHub()
	go hub.Start()

	notifier := services.NewNotifier(notifierPersistOrNil(persist), hub)
	collectionStore.Subscribe(notifier.OnTransition)

	// Completed collections feed the ranking/points accumulator through
	// RabbitMQ when configured.
	if cfg.AMQPURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
		collectionStore.Subscribe(publisher.OnTransition)
		log.Infof("Publishing completed-collection events to exchange %s", cfg.AMQPExchange)
	} else {
		log.Warn("AMQP_URL not set, completed-collection events disabled")
	}

	collectorService := services.NewCollectorService(collectionStore)
	ratingService := services.NewRatingService(collectionStore, ratingPersistOrNil(persist))

	ctx := context.Background()
	if err := collectionStore.Load(ctx); err != nil {
		log.Fatalf("Failed to load collections: %v", err)
	}
	if err := notifier.Load(ctx); err != nil {
		log.Fatalf("Failed to load notifications: %v", err)
	}
	if err := ratingService.Load(ctx); err != nil {
		log.Fatalf("Failed to load ratings: %v", err)
	}

	collectionHandler := handlers.NewCollectionHandler(collectionStore, collectorService, notifier, ratingService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET(EndPointHealth, collectionHandler.HealthCheck)
	router.GET(EndPointVersion, func(c *gin.Context) {
		c.JSON(200, version.Get("collection-service"))
	})

	auth := middleware.AuthMiddleware(cfg)

	apiV3 := router.Group("/api/v3")
	{
		apiV3.POST(EndPointCollections, auth, collectionHandler.CreateCollection)
		apiV3.GET(EndPointCollections, collectionHandler.ListCollections)
		apiV3.GET(EndPointBrowse, collectionHandler.BrowseCollections)
		apiV3.GET(EndPointCollection, collectionHandler.GetCollection)
		apiV3.POST(EndPointAccept, auth, collectionHandler.AcceptCollection)
		apiV3.POST(EndPointComplete, auth, collectionHandler.CompleteCollection)
		apiV3.POST(EndPointCancel, auth, collectionHandler.CancelCollection)
		apiV3.POST(EndPointRating, auth, collectionHandler.RateCollection)
		apiV3.GET(EndPointNotifications, auth, collectionHandler.ListNotifications)
		apiV3.POST(EndPointMarkRead, auth, collectionHandler.MarkNotificationRead)
	}

	router.GET(EndPointWebSocket, auth, wsHandler.ListenStatusUpdates)

	serverPort, err := strconv.Atoi(cfg.Port)
	if err != nil {
		log.Fatalf("Invalid PORT configuration: %v", err)
	}

	log.Infof("Collection service starting on port %d", serverPort)
	if err := router.Run(fmt.Sprintf(":%d", serverPort)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// The *database.CollectionDB nil pointer must not leak into non-nil
// interface values, hence the explicit nil checks.
func persistOrNil(db *database.CollectionDB) store.Persistence {
	if db == nil {
		return nil
	}
	return db
}

func notifierPersistOrNil(db *database.CollectionDB) services.NotificationPersistence {
	if db == nil {
		return nil
	}
	return db
}

func ratingPersistOrNil(db *database.CollectionDB) services.RatingPersistence {
	if db == nil {
		return nil
	}
	return db
}
