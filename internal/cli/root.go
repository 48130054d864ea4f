// Package cli is the flatbridge console command line: a thin cobra front end
// over the console workflows.
package cli

import (
	"errors"
	"time"

	"github.com/dracory/env"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dracory/flatbridge/console"
	"github.com/dracory/flatbridge/remote"
)

// Env keys read for flag defaults.
const (
	EnvServer = "FLATBRIDGE_SERVER"
	EnvToken  = "FLATBRIDGE_TOKEN"
)

// DefaultServer is the boundary address used when nothing is configured.
const DefaultServer = "http://localhost:8000"

type options struct {
	tokens TokenStore
	logger zerolog.Logger
}

// Option configures the root command.
type Option func(*options)

// WithTokenStore replaces the OS keychain.
func WithTokenStore(ts TokenStore) Option {
	return func(o *options) { o.tokens = ts }
}

// WithLogger sets the logger attached to every command context.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// session is what every subcommand works against. It is built once flags
// are parsed.
type session struct {
	opts    options
	server  string
	token   string
	timeout time.Duration
	maxMB   int64
	outDir  string

	console *console.Console
}

// NewRootCmd builds the flatbridge command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	s := &session{opts: options{logger: zerolog.Nop()}}
	for _, o := range opts {
		o(&s.opts)
	}
	if s.opts.tokens == nil {
		s.opts.tokens = NewKeyringStore()
	}

	env.Load(".env")

	root := &cobra.Command{
		Use:           "flatbridge",
		Short:         "Move data between ClickHouse tables and flat files",
		Long:          `flatbridge talks to a flatbridge server to list tables, run queries, export tables to CSV/XLSX and ingest flat files into tables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(s.opts.logger.WithContext(cmd.Context()))
			return s.connect()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&s.server, "server", env.GetStringOrDefault(EnvServer, DefaultServer), "flatbridge server URL (env "+EnvServer+")")
	pf.StringVar(&s.token, "token", env.GetStringOrDefault(EnvToken, ""), "bearer token (env "+EnvToken+"; defaults to the stored login)")
	pf.DurationVar(&s.timeout, "timeout", console.DefaultOperationTimeout, "deadline of each operation")
	pf.Int64Var(&s.maxMB, "max-file-mb", console.DefaultMaxFileBytes>>20, "largest file read for ingest, in MiB")
	pf.StringVarP(&s.outDir, "out", "o", ".", "directory exported files are saved to")

	root.AddCommand(
		newTablesCmd(s),
		newSchemaCmd(s),
		newQueryCmd(s),
		newPreviewCmd(s),
		newExportCmd(s),
		newIngestCmd(s),
		newPingCmd(s),
		newLoginCmd(s),
		newLogoutCmd(s),
	)
	return root
}

// connect builds the remote client and console from the parsed flags. A
// missing token is not an error here; the server answers 401.
func (s *session) connect() error {
	token := s.token
	if token == "" {
		stored, err := s.opts.tokens.Load()
		switch {
		case err == nil:
			token = stored
		case errors.Is(err, ErrNoToken):
		default:
			s.opts.logger.Debug().Err(err).Msg("token store unavailable")
		}
	}

	client := remote.New(s.server, "", remote.WithTimeout(s.timeout+5*time.Second))
	// the profile's token is the one the console authenticates with
	profile := console.DefaultProfile().WithToken(token)
	s.console = console.New(client, profile, console.Config{
		OperationTimeout: s.timeout,
		MaxFileBytes:     s.maxMB << 20,
		Saver:            console.DirSaver{Dir: s.outDir},
	})
	return nil
}
