package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/danchikt/my-messenger/internal/config"
	"github.com/danchikt/my-messenger/internal/db"
	clog "github.com/danchikt/my-messenger/internal/log"
	"github.com/danchikt/my-messenger/internal/notify"
	"github.com/danchikt/my-messenger/internal/server"
	"github.com/danchikt/my-messenger/internal/store"
	"github.com/danchikt/my-messenger/internal/ws"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	clog.Init(cfg.Env)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	gdb, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue, err := notify.NewQueue(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("notify queue")
	}
	defer queue.Close()

	worker, err := notify.NewWorker(cfg.RedisURL, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("notify worker")
	}
	go func() {
		if err := worker.Run(ctx); err != nil {
			log.Error().Err(err).Msg("notify worker run")
		}
	}()

	stores := store.New(gdb)
	registry := ws.NewRegistry()
	router := ws.NewRouter(registry, ws.Deps{
		Users:    stores.Users,
		Friends:  stores.Friends,
		Messages: stores.Messages,
		Channel:  stores.Channel,
		Groups:   stores.Groups,
		Polls:    stores.Polls,
		Social:   stores.Social,
		Notifier: queue,
	}, cfg)

	sweeper := ws.NewSweeper(stores.Messages, stores.Social,
		time.Duration(cfg.SweepIntervalSeconds)*time.Second)
	go sweeper.Run(ctx)

	r := server.SetupRouter(cfg, gdb, stores, router)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server run")
	}
}
