package main

import (
	"context"

	"greenhouse/internal/platform/config"
	"greenhouse/internal/platform/logger"
	phttp "greenhouse/internal/platform/net/http"
	"greenhouse/internal/platform/store"

	"greenhouse/internal/services/api"
)

func main() {
	// service-scoped config for HTTP etc (GREENHOUSE_API_*)
	root := config.New()
	apiCfg := root.Prefix("GREENHOUSE_API_")

	pgCfg := root.Prefix("SERVICE_PGSQL_") // pgCfg lives under SERVICE_PGSQL_*
	kvCfg := root.Prefix("SERVICE_REDIS_") // kvCfg lives under SERVICE_REDIS_*

	// bring up logging early
	l := logger.Get()

	// open the platform store (postgres + redis kv)
	st, err := store.Open(
		context.Background(),
		store.Config{
			AppName: "greenhouse",
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", true),
			},
			KV: store.KVConfig{
				Enabled:   kvCfg.MayBool("ENABLED", true),
				Addr:      kvCfg.MayString("ADDR", "localhost:6379"),
				DB:        kvCfg.MayInt("DB", 0),
				Password:  kvCfg.MayString("PASSWORD", ""),
				OpTimeout: kvCfg.MayDuration("OP_TIMEOUT", 0),
			},
		},
		store.WithLogger(*logger.Get()),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// a dead pg is fatal; a dead kv only degrades caching and rate limiting
	if err := st.Guard(context.Background()); err != nil {
		l.Panic().Err(err).Msg("store guard failed")
	}

	// http server (reads GREENHOUSE_API_PORT)
	srv := phttp.NewServer(apiCfg)

	// mount our API
	api.Mount(
		srv.Router(),
		api.Options{
			Config: apiCfg,
			Store:  st,
			Logger: *l,
		},
	)

	// run
	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
