package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fieldsync/internal/record"
)

// GoldenDir is where RunWithGolden keeps snapshots, relative to the test's
// package directory.
const GoldenDir = "testdata/golden"

// Snapshot renders a result as indented canonical JSON: the scenario name,
// each step's outcome kind, and the final content of every touched log.
// Object keys are sorted, so equal results give equal bytes.
func Snapshot(name string, result *Result) ([]byte, error) {
	steps := make(record.Array, len(result.Steps))
	for i, s := range result.Steps {
		step := record.Object{"op": record.String(s.Op), "kind": record.String(s.Kind)}
		if s.RecordType != "" {
			step["record_type"] = record.String(s.RecordType)
		}
		steps[i] = step
	}

	logs := record.Object{}
	for _, t := range result.touchedTypes() {
		state := result.Logs[t]
		if state.Corrupt != nil {
			logs[string(t)] = record.Object{"corrupt": record.String(*state.Corrupt)}
			continue
		}
		arr := make(record.Array, len(state.Records))
		for i, rec := range state.Records {
			arr[i] = rec
		}
		logs[string(t)] = arr
	}

	compact, err := record.MarshalValue(record.Object{
		"scenario": record.String(name),
		"steps":    steps,
		"logs":     logs,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("indent snapshot: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Scenarios with concurrent_append steps store records in a nondeterministic
// order and should be checked with assertions instead.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	data, err := Snapshot(scenario.Name, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return result, nil
}

// WriteGolden writes result's snapshot to path, creating its directory.
func WriteGolden(path string, scenario *Scenario, result *Result) error {
	data, err := Snapshot(scenario.Name, result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether result's snapshot matches the file at path
// byte for byte.
func CompareGolden(path string, scenario *Scenario, result *Result) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	got, err := Snapshot(scenario.Name, result)
	if err != nil {
		return false, err
	}
	return bytes.Equal(want, got), nil
}
