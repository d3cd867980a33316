package forms

import (
	"errors"
	"fmt"
	"strings"
)

// Field problem codes.
const (
	CodeRequired   = "F101" // required field missing or blank
	CodeEmptyItem  = "F102" // list entry with a blank field
	CodeNotNumber  = "F103" // numeric field does not parse
	CodeGeoRange   = "F104" // coordinate out of range
	CodeBadChoice  = "F105" // value not among the allowed options
	CodeSchema     = "F110" // rejected by the form schema
	CodeUnknownKey = "F111" // unknown field in submitted JSON
)

// ErrDuplicateName is returned when an aggregator name is already present in
// the local aggregator log.
var ErrDuplicateName = errors.New("aggregator name must be unique")

// ErrUnknownForm is returned for a record type with no form.
var ErrUnknownForm = errors.New("unknown form type")

// ErrNotFound is returned by Resubmit when no local record has the ID.
var ErrNotFound = errors.New("submission not found")

// ErrNoRemote is returned by Resubmit when the submitter has no remote client.
var ErrNoRemote = errors.New("no remote client configured")

// FieldError is one problem with one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationError lists every problem found in a form. Validation does not
// fail fast.
type ValidationError struct {
	Form   string       `json:"form"`
	Fields []FieldError `json:"fields"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%s form is invalid: %s", e.Form, strings.Join(parts, "; "))
}

// Has reports whether any problem concerns field. Nested paths match on
// their last element or on the full dotted path.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field || strings.HasSuffix(f.Field, "."+field) {
			return true
		}
	}
	return false
}

// IsValidation reports whether err is a form ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// problems accumulates FieldErrors for one form.
type problems struct {
	form   string
	fields []FieldError
}

func (p *problems) add(field, code, format string, args ...any) {
	p.fields = append(p.fields, FieldError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (p *problems) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		p.add(field, CodeRequired, "is required")
	}
}

func (p *problems) err() error {
	if len(p.fields) == 0 {
		return nil
	}
	return &ValidationError{Form: p.form, Fields: p.fields}
}
