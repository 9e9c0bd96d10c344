package main

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"play_grabar/internal/adapters/gplay"
	"play_grabar/internal/adapters/observability"
	redisad "play_grabar/internal/adapters/redis"
	"play_grabar/internal/app"
	"play_grabar/internal/shared"
	"play_grabar/internal/storage/jsonfile"
	mysqlrepo "play_grabar/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	if len(cfg.Apps) == 0 {
		log.Fatal().Msg("GRAB_APPS is empty; nothing to grab")
	}

	cutoff := midnight(time.Now().UTC())
	if cfg.Since != "" {
		t, err := time.Parse(cfg.DateLayout, cfg.Since)
		if err != nil {
			log.Fatal().Str("since", cfg.Since).Err(err).Msg("invalid GRAB_SINCE")
		}
		cutoff = t
	}

	log.Info().
		Str("base", cfg.PlayBase).
		Int("workers", cfg.Workers).
		Strs("apps", cfg.Apps).
		Strs("langs", cfg.Languages).
		Time("cutoff", cutoff).
		Msg("grab starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := gplay.New(cfg.PlayBase, cfg.PlayRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Play client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	sink := jsonfile.New(cfg.ResultDir)
	grab := app.NewGrabService(app.NewFetchService(client), repo, sink, cache, cfg.OutLayout)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, id := range cfg.Apps {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(appID string) {
			defer wg.Done()
			defer sem.Release(int64(1))

			n, err := grab.GrabApp(ctx, appID, cfg.Languages, cutoff, cfg.PageSize)
			if err != nil {
				log.Warn().Str("app", appID).Err(err).Msg("grab failed")
				return
			}
			log.Info().Str("app", appID).Int("records", n).Msg("grab ok")
		}(id)
	}

	wg.Wait()
	log.Info().Msg("grab completed")
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
