package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldsync/internal/config"
	"github.com/roach88/fieldsync/internal/forms"
	"github.com/roach88/fieldsync/internal/kv"
	"github.com/roach88/fieldsync/internal/remote"
	"github.com/roach88/fieldsync/internal/store"
)

// session is the state shared by commands that touch the local database.
type session struct {
	cfg    config.Config
	logger *slog.Logger
	medium *kv.SQLite
	store  *store.Store
	out    *OutputFormatter
}

// resolveConfig loads configuration and applies the global flag overrides.
func (o *RootOptions) resolveConfig() (config.Config, error) {
	cfg, err := config.Load(o.EnvFile)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load configuration", withCode(ErrCodeConfig, err))
	}
	if o.DB != "" {
		cfg.DB = o.DB
	}
	if o.APIURL != "" {
		cfg.APIURL = o.APIURL
	}
	return cfg, nil
}

// newLogger returns a text logger on w, at Debug level when verbose.
func (o *RootOptions) newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openSession resolves configuration and opens the local store. The caller
// must call close.
func (o *RootOptions) openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := o.resolveConfig()
	if err != nil {
		return nil, err
	}
	logger := o.newLogger(cmd.ErrOrStderr())

	logger.Debug("opening database", "path", cfg.DB)
	medium, err := kv.Open(cfg.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", withCode(ErrCodeOpenDB, err))
	}

	return &session{
		cfg:    cfg,
		logger: logger,
		medium: medium,
		store:  store.New(medium, store.WithKeyPrefix(cfg.KeyPrefix), store.WithLogger(logger)),
		out:    o.formatter(cmd),
	}, nil
}

func (s *session) close() {
	if err := s.medium.Close(); err != nil {
		s.logger.Warn("failed to close database", "error", err)
	}
}

// remoteClient returns a client for the configured API, or nil when no API
// URL is configured.
func (s *session) remoteClient() *remote.Client {
	if s.cfg.APIURL == "" {
		return nil
	}
	return remote.NewClient(s.cfg.APIURL,
		remote.WithTimeout(s.cfg.HTTPTimeout),
		remote.WithLogger(s.logger),
	)
}

// submitter builds the form workflow over the session store, wired to the
// remote API when one is configured.
func (s *session) submitter() (*forms.Submitter, error) {
	schema, err := forms.LoadSchema()
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to load form schema", err)
	}
	opts := []forms.SubmitterOption{forms.WithLogger(s.logger)}
	if c := s.remoteClient(); c != nil {
		opts = append(opts, forms.WithRemote(c))
	}
	return forms.NewSubmitter(s.store, schema, opts...), nil
}

// parseRecordType validates a record type argument.
func parseRecordType(arg string) (store.RecordType, error) {
	t := store.RecordType(arg)
	if err := t.Validate(); err != nil {
		return "", WrapExitError(ExitCommandError, "invalid record type", withCode(ErrCodeBadInput, err))
	}
	return t, nil
}

// operationFailed wraps a failed store or form operation.
func operationFailed(message string, err error) error {
	return WrapExitError(ExitFailure, message, err)
}
