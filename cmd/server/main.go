// flatbridge-server serves the flat file / ClickHouse boundary.
//
// Usage:
//
//	flatbridge-server [-config path] [-port 8000] [-driver clickhouse] [-dsn DSN]
//	flatbridge-server token <subject>
//
// The token form prints a bearer token signed with SECRET_KEY and exits.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dracory/flatbridge"
	"github.com/dracory/flatbridge/shared/auth"
	"github.com/dracory/flatbridge/shared/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	args := os.Args[1:]
	issue := len(args) > 0 && args[0] == "token"
	if issue {
		args = args[1:]
	}

	subject := ""
	if issue {
		if len(args) == 0 {
			log.Fatal().Msg("usage: flatbridge-server token <subject>")
		}
		subject, args = args[0], args[1:]
	}

	cfg, err := flatbridge.LoadConfig(args)
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	if issue {
		token, err := auth.New(cfg.SecretKey, cfg.AccessTokenExpire).Issue(subject)
		if err != nil {
			log.Fatal().Err(err).Msg("issue token")
		}
		fmt.Println(token)
		return
	}

	if cfg.SecretKey == flatbridge.DefaultSecretKey {
		log.Warn().Msg("SECRET_KEY is the built-in development value; set it before exposing the server")
	}

	st, err := store.Open(cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store open failed")
	}
	defer st.Close()

	app := flatbridge.New(cfg, st)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      app.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("driver", st.Dialect()).
			Int64("max_upload_mb", cfg.MaxUploadMB).
			Msg("flatbridge started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("stopped")
}
