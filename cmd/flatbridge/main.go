// flatbridge is the command line console of a flatbridge server.
//
// Usage:
//
//	flatbridge [--server URL] [--token T] <tables|schema|preview|query|export|ingest|ping|login|logout>
//
// Set FLATBRIDGE_DEBUG=1 for debug logs on stderr.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/dracory/env"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"github.com/dracory/flatbridge/internal/cli"
)

func main() {
	level := zerolog.WarnLevel
	if env.GetStringOrDefault("FLATBRIDGE_DEBUG", "") != "" {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := cli.NewRootCmd(cli.WithLogger(logger))
	if err := root.ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err)
		stop()
		os.Exit(1)
	}
}
