package main

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"play_grabar/internal/adapters/gplay"
	server "play_grabar/internal/adapters/http_server"
	"play_grabar/internal/adapters/observability"
	redisad "play_grabar/internal/adapters/redis"
	"play_grabar/internal/adapters/webhook"
	"play_grabar/internal/app"
	"play_grabar/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// deps
	client, err := gplay.New(cfg.PlayBase, cfg.PlayRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Play client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	fetch := app.NewFetchService(client)
	q := app.NewQueryService(fetch, cache, cfg.CacheTTL, cfg.OutLayout)
	notify := webhook.New(15 * time.Second)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:          q,
		Notify:     notify,
		DateLayout: cfg.DateLayout,
		PageSize:   cfg.PageSize,
		Languages:  cfg.Languages,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
