package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/expocenter/stand-reservation/internal/config"
	"github.com/expocenter/stand-reservation/internal/database"
	"github.com/expocenter/stand-reservation/internal/handler"
	"github.com/expocenter/stand-reservation/internal/notifier"
	"github.com/expocenter/stand-reservation/internal/queue"
	"github.com/expocenter/stand-reservation/internal/repository"
	"github.com/expocenter/stand-reservation/internal/reservation"
	"github.com/expocenter/stand-reservation/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	// Claim store backend. MySQL in production; the in-memory store
	// keeps single-binary dev setups free of infrastructure.
	var (
		claims repository.ClaimStore
		stands repository.StandCatalog
	)
	switch cfg.DBDriver {
	case "memory":
		mem := repository.NewMemoryClaimStore()
		claims = mem
		stands = repository.NewMemoryStandRepo(mem)
		log.Printf("claim store: in-memory (driver=memory)")
	default:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		claims = repository.NewMySQLClaimStore(db)
		stands = repository.NewMySQLStandRepo(db)
	}

	// Redis backs the limiter, the catalog cache and the cross-instance
	// event bridge. A nil client disables all three gracefully.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting, caching and the event bridge are disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := notifier.NewHub(64)
	var events notifier.Publisher = hub
	if rdb != nil {
		host, _ := os.Hostname()
		bridge := notifier.NewBridge(hub, rdb, "stand-claim-events", fmt.Sprintf("%s-%d", host, os.Getpid()))
		go bridge.Run(ctx)
		events = bridge
	}

	coord := reservation.NewCoordinator(claims, events, cfg.HoldTTL, cfg.HoldTTLMax)

	sweeper := reservation.NewSweeper(claims, events, cfg.SweepInterval)
	go sweeper.Run(ctx)

	// The consumer stands in for the CRM layer: it drains submitted
	// applications into logs/applications.log.
	go func() {
		if err := queue.StartApplicationConsumer(); err != nil {
			log.Printf("application-consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterPublic(e,
		handler.NewCatalogHandler(stands, claims),
		handler.NewEventsHandler(hub),
		rdb, rlCfg, cacheCfg)
	router.RegisterExhibitor(e, handler.NewReservationHandler(coord, stands), rdb, rlCfg)
	router.RegisterAdmin(e,
		handler.NewAuthHandler(cfg.JWTSecret, cfg.AdminEmail, cfg.AdminPassHash, cfg.AccessTTLMin),
		handler.NewAdminHandler(stands, claims, coord, rdb, cacheCfg.Prefix),
		cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, driver=%s, hold_ttl=%s, sweep=%s)",
		addr, cfg.Env, cfg.DBDriver, cfg.HoldTTL, cfg.SweepInterval)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
