package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldsync/internal/forms"
)

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions
	Data string
	File string
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit <form-type>",
		Short: "Validate a form, save it locally and send it to the remote API",
		Long: `Validate a filled-in form and save it to the local log.

The form is a JSON document with the fields of one of the forms:
aggregator, farmer-group, farmer or training-session. It is validated,
stamped with a submission ID and time, and appended to the local log.
Only then is it sent to the remote API, if one is configured. A failed
remote submission leaves the local record in place; use resubmit to
retry it.

Exit codes:
  0 - Record saved locally (the remote outcome is reported, not fatal)
  1 - Form rejected or local save failed; nothing was written
  2 - Command error (bad arguments, unreadable input)

Examples:
  fieldsync submit farmer --file farmer.json
  fieldsync submit aggregator --data '{"aggregatorName":"Acme", ...}'
  cat group.json | fieldsync submit farmer-group --file -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "", "form as inline JSON")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read form JSON from file (- for stdin)")

	return cmd
}

func runSubmit(opts *SubmitOptions, formType string, cmd *cobra.Command) error {
	t, err := parseRecordType(formType)
	if err != nil {
		return err
	}
	data, err := readInput(opts.Data, opts.File, cmd.InOrStdin())
	if err != nil {
		return err
	}

	f, err := forms.Decode(t, data)
	if err != nil {
		return operationFailed(fmt.Sprintf("invalid %s form", t), err)
	}

	sess, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	sub, err := sess.submitter()
	if err != nil {
		return err
	}

	outcome, err := sub.Submit(cmd.Context(), f)
	if err != nil {
		return operationFailed(fmt.Sprintf("%s not saved", t), err)
	}

	return sess.out.Success(outcome, submitText(outcome))
}

func submitText(o forms.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ %s %s saved locally", o.RecordType, o.SubmissionID)
	switch {
	case !o.RemoteAttempted:
		b.WriteString("\n  remote: not configured")
	case o.Remote.Success:
		fmt.Fprintf(&b, "\n  remote: accepted (status %d)", o.Remote.StatusCode)
	default:
		fmt.Fprintf(&b, "\n  remote: failed: %s", o.Remote.Error)
		fmt.Fprintf(&b, "\n  retry with: fieldsync resubmit %s %s", o.RecordType, o.SubmissionID)
	}
	return b.String()
}

// ResubmitOptions holds flags for the resubmit command.
type ResubmitOptions struct {
	*RootOptions
}

// NewResubmitCommand creates the resubmit command.
func NewResubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resubmit <record-type> <submission-id>",
		Short: "Send a locally saved record to the remote API again",
		Long: `Send a locally saved record to the remote API again.

The record is looked up by submissionId and posted unchanged, with its
submission ID as the idempotency key so the server can recognise a
retry of a submission it already accepted.

Example:
  fieldsync resubmit farmer 01928c3e-5c2a-7f10-9a1b-6b1f2c3d4e5f --api-url http://localhost:8080`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResubmit(opts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runResubmit(opts *ResubmitOptions, recordType, id string, cmd *cobra.Command) error {
	t, err := parseRecordType(recordType)
	if err != nil {
		return err
	}

	sess, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	sub, err := sess.submitter()
	if err != nil {
		return err
	}

	res, err := sub.Resubmit(cmd.Context(), t, id)
	if err != nil {
		code := ExitFailure
		if errors.Is(err, forms.ErrNoRemote) {
			code = ExitCommandError
		}
		return WrapExitError(code, "resubmit failed", err)
	}
	if !res.Success {
		return operationFailed("remote API rejected the record", withCode(ErrCodeRemote, errors.New(res.Error)))
	}

	text := fmt.Sprintf("✓ %s %s accepted by remote API (status %d)", t, id, res.StatusCode)
	return sess.out.Success(res, text)
}
