package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldsync/internal/devserver"
	"github.com/roach88/fieldsync/internal/record"
	"github.com/roach88/fieldsync/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local stand-in for the remote API",
		Long: `Run a development server implementing the remote API routes.

Received records are kept in the same database as the local store, under
the "server:" key prefix, so both sides can be inspected. Aggregator names
are unique server-wide and retried submissions carrying a known
Idempotency-Key are not stored twice.

The server stops on SIGINT or SIGTERM.

Example:
  fieldsync serve --db ./dev.db --addr 127.0.0.1:8080
  fieldsync submit farmer --file farmer.json --api-url http://127.0.0.1:8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from FIELDSYNC_ADDR or :8080)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	sess, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	addr := sess.cfg.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	serverStore := store.New(sess.medium, store.WithKeyPrefix(devserver.KeyPrefix), store.WithLogger(sess.logger))
	srv := devserver.New(serverStore, sess.logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return WrapExitError(ExitFailure, "dev server failed", err)
	}
	sess.logger.Info("dev server stopped")
	return nil
}

// AggregatorsOptions holds flags for the aggregators command.
type AggregatorsOptions struct {
	*RootOptions
}

// NewAggregatorsCommand creates the aggregators command.
func NewAggregatorsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AggregatorsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "aggregators",
		Short: "Fetch the aggregator list from the remote API",
		Long: `Fetch every aggregator known to the remote API.

Unlike "list aggregator", which shows what was saved on this device, this
asks the server, so it includes aggregators registered elsewhere.

Example:
  fieldsync aggregators --api-url http://127.0.0.1:8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregators(opts, cmd)
		},
	}

	return cmd
}

func runAggregators(opts *AggregatorsOptions, cmd *cobra.Command) error {
	cfg, err := opts.resolveConfig()
	if err != nil {
		return err
	}
	if cfg.APIURL == "" {
		return NewExitError(ExitCommandError, "no remote API configured (set --api-url or FIELDSYNC_API_URL)")
	}
	sess := &session{cfg: cfg, logger: opts.newLogger(cmd.ErrOrStderr()), out: opts.formatter(cmd)}

	res := sess.remoteClient().ListAggregators(cmd.Context())
	if !res.Success {
		return operationFailed("failed to fetch aggregators", withCode(ErrCodeRemote, errors.New(res.Error)))
	}

	v, err := record.UnmarshalValue(res.Data)
	if err != nil {
		return operationFailed("failed to fetch aggregators", withCode(ErrCodeRemote, err))
	}
	arr, ok := v.(record.Array)
	if !ok {
		return operationFailed("failed to fetch aggregators",
			withCode(ErrCodeRemote, fmt.Errorf("expected array, got %s", record.KindName(v))))
	}

	lines := make([]string, 0, len(arr))
	for _, elem := range arr {
		obj, ok := elem.(record.Object)
		if !ok {
			continue
		}
		name, _ := obj.StringField("aggregatorName")
		lines = append(lines, name)
	}
	text := fmt.Sprintf("%d aggregators", len(arr))
	for _, name := range lines {
		text += "\n  " + name
	}
	return sess.out.Success(res.Data, text)
}
