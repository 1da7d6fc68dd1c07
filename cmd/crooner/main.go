package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/crooner-app/crooner/internal/infrastructure/configs"
	"github.com/crooner-app/crooner/internal/infrastructure/logging"
	"github.com/crooner-app/crooner/internal/infrastructure/metrics"
	"github.com/crooner-app/crooner/internal/infrastructure/ratelimiter"
	"github.com/crooner-app/crooner/internal/infrastructure/ws"
	"github.com/crooner-app/crooner/internal/persistence/sqlite"
	"github.com/crooner-app/crooner/internal/presentation/api"
	healthHandler "github.com/crooner-app/crooner/internal/presentation/handler/health"
	roomHandler "github.com/crooner-app/crooner/internal/presentation/handler/rooms"
	"github.com/crooner-app/crooner/internal/queue"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.Logging)
	defer logger.Sync()

	db, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		logger.Fatalw("could not open store", "path", cfg.Store.Path, "error", err)
	}
	defer db.Close()
	logger.Infow("store opened", "path", db.Path())

	queueRepo := sqlite.NewQueueRepository(db)
	lookups := sqlite.NewLookupRepository(db)

	m := metrics.New(prometheus.DefaultRegisterer)

	roomManager := ws.NewRoomManager(logger)
	core := ws.NewCore(roomManager, queueRepo, m, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go core.Run(ctx)

	gate := queue.NewGate(lookups)
	commands := queue.NewHandler(queue.NewStore(queueRepo, lookups), gate, core, m, logger)

	rooms := roomHandler.NewHandler(lookups, lookups, queueRepo, roomManager, core, commands, logger)
	health := healthHandler.NewHandler()

	rateLimiter := ratelimiter.NewFixedWindow(cfg.RateLimiter.Limit, cfg.RateLimiter.Window)
	defer rateLimiter.Close()

	app := api.NewApplication(*cfg, rooms, health, logger, rateLimiter)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	logger.Fatal(app.Run(mux))
}
