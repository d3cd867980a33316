package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldsync/internal/record"
	"github.com/roach88/fieldsync/internal/store"
)

// AppendOptions holds flags for the append command.
type AppendOptions struct {
	*RootOptions
	Data string
	File string
}

// NewAppendCommand creates the append command.
func NewAppendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AppendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "append <record-type>",
		Short: "Append a raw record to a local log",
		Long: `Append a JSON object to the local log of a record type.

No form validation, uniqueness check or remote submission is done; the
record is stored exactly as given. Integers and decimals keep their kind:
5 and 5.0 are stored differently.

Example:
  fieldsync append farmer --data '{"name":"Achieng","farmSize":2.5}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppend(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "", "record as inline JSON object")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read record JSON from file (- for stdin)")

	return cmd
}

func runAppend(opts *AppendOptions, recordType string, cmd *cobra.Command) error {
	t, err := parseRecordType(recordType)
	if err != nil {
		return err
	}
	data, err := readInput(opts.Data, opts.File, cmd.InOrStdin())
	if err != nil {
		return err
	}
	rec, err := parseRecord(data)
	if err != nil {
		return err
	}

	sess, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	if err := sess.store.Append(cmd.Context(), t, rec); err != nil {
		return operationFailed("append failed", err)
	}

	n, err := sess.store.Count(cmd.Context(), t)
	if err != nil {
		return operationFailed("append succeeded but the log could not be re-read", err)
	}
	return sess.out.Success(map[string]any{"recordType": t, "length": n},
		fmt.Sprintf("✓ appended to %s (%d records)", t, n))
}

func parseRecord(data []byte) (record.Record, error) {
	v, err := record.UnmarshalValue(data)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid record JSON", withCode(ErrCodeBadInput, err))
	}
	obj, ok := v.(record.Object)
	if !ok {
		return nil, WrapExitError(ExitCommandError, "invalid record JSON",
			withCode(ErrCodeBadInput, fmt.Errorf("expected object, got %s", record.KindName(v))))
	}
	return obj, nil
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list [record-type]",
		Short: "List a local log, or the record types that have one",
		Long: `List the records of a local log, oldest first, one JSON object per line.

Without an argument, lists the record types that have a stored log.

Examples:
  fieldsync list
  fieldsync list aggregator
  fieldsync list farmer --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runListTypes(opts, cmd)
			}
			return runList(opts, args[0], cmd)
		},
	}

	return cmd
}

func runListTypes(opts *ListOptions, cmd *cobra.Command) error {
	sess, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	types, err := sess.store.RecordTypes(cmd.Context())
	if err != nil {
		return operationFailed("list failed", err)
	}

	lines := make([]string, len(types))
	for i, t := range types {
		lines[i] = string(t)
	}
	text := strings.Join(lines, "\n")
	if len(types) == 0 {
		text = "No submissions stored."
	}
	return sess.out.Success(types, text)
}

func runList(opts *ListOptions, recordType string, cmd *cobra.Command) error {
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
		return operationFailed("list failed", err)
	}

	text, err := logText(t, log)
	if err != nil {
		return operationFailed("list failed", err)
	}
	return sess.out.Success(log, text)
}

func logText(t store.RecordType, log []record.Record) (string, error) {
	if len(log) == 0 {
		return fmt.Sprintf("No %s submissions stored.", t), nil
	}
	lines := make([]string, len(log))
	for i, rec := range log {
		data, err := record.MarshalValue(rec)
		if err != nil {
			return "", fmt.Errorf("record %d: %w", i, err)
		}
		lines[i] = string(data)
	}
	return strings.Join(lines, "\n"), nil
}

// ExistsOptions holds flags for the exists command.
type ExistsOptions struct {
	*RootOptions
	Field     string
	Value     string
	ValueJSON string
}

// NewExistsCommand creates the exists command.
func NewExistsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExistsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exists <record-type>",
		Short: "Check whether a local record has a field value",
		Long: `Report whether any record in a local log has field equal to a value.

Strings match after Unicode NFC normalization. Use --value-json for
non-string values; 41 and 41.0 are different values.

Only records saved on this device are seen.

Examples:
  fieldsync exists aggregator --field aggregatorName --value "Acme Produce"
  fieldsync exists farmer --field age --value-json 41`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExists(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Field, "field", "", "field name to match")
	cmd.Flags().StringVar(&opts.Value, "value", "", "string value to match")
	cmd.Flags().StringVar(&opts.ValueJSON, "value-json", "", "JSON value to match")
	_ = cmd.MarkFlagRequired("field")
	cmd.MarkFlagsMutuallyExclusive("value", "value-json")
	cmd.MarkFlagsOneRequired("value", "value-json")

	return cmd
}

func runExists(opts *ExistsOptions, recordType string, cmd *cobra.Command) error {
	t, err := parseRecordType(recordType)
	if err != nil {
		return err
	}

	var value record.Value = record.String(opts.Value)
	if cmd.Flags().Changed("value-json") {
		value, err = record.UnmarshalValue([]byte(opts.ValueJSON))
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --value-json", withCode(ErrCodeBadInput, err))
		}
	}

	sess, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	found, err := sess.store.ExistsWithKey(cmd.Context(), t, opts.Field, value)
	if err != nil {
		return operationFailed("exists failed", err)
	}
	return sess.out.Success(map[string]bool{"exists": found}, fmt.Sprintf("%t", found))
}
