package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/thekade/nopolin-appointments/internal/cache"
	"github.com/thekade/nopolin-appointments/internal/config"
	"github.com/thekade/nopolin-appointments/internal/database"
	"github.com/thekade/nopolin-appointments/internal/events"
	"github.com/thekade/nopolin-appointments/internal/server"
	"github.com/thekade/nopolin-appointments/pkg/logger"
)

func main() {
	var migrate bool
	flag.BoolVar(&migrate, "migrate", false, "Run database migrations")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Initialize(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}

	if migrate {
		if err := database.RunMigrations(db); err != nil {
			log.Fatal("Failed to run migrations", "error", err)
		}
		log.Info("Database migrations completed successfully")
		return
	}

	cacheService := cache.NewCache(cfg.CacheSize, cfg.CacheTTL)

	var pub events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatal("Failed to connect to event broker", "error", err)
		}
		pub = amqpPub
	}

	srv := server.New(cfg, db, cacheService, pub, log)

	log.Info("Starting appointment service",
		"host", cfg.Host,
		"port", cfg.Port,
		"db_driver", cfg.DBDriver,
	)

	if err := srv.Run(); err != nil {
		log.Fatal("Server failed to start", "error", err)
	}
}
