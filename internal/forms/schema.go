package forms

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/fieldsync/internal/record"
	"github.com/roach88/fieldsync/internal/store"
)

//go:embed schema.cue
var schemaSource string

var definitions = map[store.RecordType]string{
	store.Aggregator:      "#Aggregator",
	store.FarmerGroup:     "#FarmerGroup",
	store.Farmer:          "#Farmer",
	store.TrainingSession: "#TrainingSession",
}

// Schema checks built records against the CUE definitions in schema.cue.
//
// Thread-safety: cue values are not safe for concurrent use, so Check
// serializes callers.
type Schema struct {
	mu   sync.Mutex
	ctx  *cue.Context
	root cue.Value
}

// LoadSchema compiles the embedded form schema.
func LoadSchema() (*Schema, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile form schema: %w", err)
	}
	return &Schema{ctx: ctx, root: root}, nil
}

// Check validates rec as a complete record of type t. Problems come back as
// a *ValidationError.
func (s *Schema) Check(t store.RecordType, rec record.Record) error {
	name, ok := definitions[t]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownForm, t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	def := s.root.LookupPath(cue.ParsePath(name))
	if !def.Exists() {
		return fmt.Errorf("form schema has no definition %s", name)
	}

	v := s.ctx.Encode(record.ToAny(rec))
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return schemaError(string(t), name, err)
	}
	return nil
}

// schemaError converts CUE errors into field problems. Paths are reported
// relative to the record.
func schemaError(form, def string, err error) error {
	verr := &ValidationError{Form: form}
	seen := make(map[string]bool)
	for _, e := range cueerrors.Errors(err) {
		path := e.Path()
		if len(path) > 0 && path[0] == def {
			path = path[1:]
		}
		field := strings.Join(path, ".")
		if field == "" {
			field = "$"
		}
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if seen[field+msg] {
			continue
		}
		seen[field+msg] = true
		verr.Fields = append(verr.Fields, FieldError{Field: field, Message: msg, Code: CodeSchema})
	}
	if len(verr.Fields) == 0 {
		verr.Fields = []FieldError{{Field: "$", Message: err.Error(), Code: CodeSchema}}
	}
	return verr
}
