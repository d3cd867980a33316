package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldsync/internal/export"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <record-type>",
		Short: "Export a local log as CSV",
		Long: `Export a local log as CSV, one row per record in log order.

Columns: index, record_type, submission_id, name, latitude, longitude,
digest, payload. The payload column holds the full record as JSON.
Output is always CSV; --format does not apply.

Examples:
  fieldsync export farmer
  fieldsync export aggregator -o aggregators.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func runExport(opts *ExportOptions, recordType string, cmd *cobra.Command) error {
	t, err := parseRecordType(recordType)
	if err != nil {
		return err
	}

	sess, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	log, err := sess.store.ListAll(cmd.Context(), t)
	if err != nil {
		return operationFailed("export failed", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to create %s", opts.Output), err)
		}
		defer f.Close()
		w = f
	}

	if err := export.WriteCSV(w, t, log); err != nil {
		return operationFailed("export failed", err)
	}
	if opts.Output != "" {
		sess.logger.Info("export written", "record_type", t, "records", len(log), "path", opts.Output)
	}
	return nil
}
