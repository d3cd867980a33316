package harness

import (
	"github.com/roach88/fieldsync/internal/record"
	"github.com/roach88/fieldsync/internal/store"
)

// KindOK marks a step that succeeded.
const KindOK = "OK"

// Form workflow outcomes reported as step kinds.
const (
	KindFormValidation = "FORM_VALIDATION"
	KindDuplicateName  = "DUPLICATE_NAME"
)

// StepOutcome records how one step ended.
type StepOutcome struct {
	Op         string `json:"op"`
	RecordType string `json:"record_type,omitempty"`

	// Kind is KindOK, a store.Kind, or a form workflow kind. For
	// concurrent_append it is the first failure, if any.
	Kind string `json:"kind"`

	Error string `json:"error,omitempty"`
}

// LogState is the final content of one log. Exactly one of Records and
// Corrupt is set.
type LogState struct {
	Records []record.Record `json:"records,omitempty"`
	Corrupt *string         `json:"corrupt,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	Steps  []StepOutcome `json:"steps"`
	Errors []string      `json:"errors,omitempty"`

	// Logs holds the final state of every log the scenario touched.
	Logs map[store.RecordType]LogState `json:"logs"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepOutcome{},
		Errors: []string{},
		Logs:   make(map[store.RecordType]LogState),
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
