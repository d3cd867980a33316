package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldsync/internal/record"
	"github.com/roach88/fieldsync/internal/store"
)

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }

func TestRun_AppendAndFailures(t *testing.T) {
	scenario := &Scenario{
		Name:        "append_and_fail",
		Description: "appends around an injected write failure",
		Steps: []Step{
			{Op: OpAppend, RecordType: "farmer", Record: map[string]any{"name": "A"}},
			{Op: OpFailWrites, Message: "disk full"},
			{Op: OpAppend, RecordType: "farmer", Record: map[string]any{"name": "B"}},
			{Op: OpHeal},
			{Op: OpAppend, RecordType: "farmer", Record: map[string]any{"name": "C"}},
		},
		Assertions: []Assertion{
			{Type: AssertLogCount, RecordType: "farmer", Count: intPtr(2)},
			{Type: AssertErrorKind, Step: intPtr(2), Kind: "IO_FAILURE"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Steps, 5)
	assert.Equal(t, KindOK, result.Steps[0].Kind)
	assert.Equal(t, "IO_FAILURE", result.Steps[2].Kind)
	assert.Contains(t, result.Steps[2].Error, "disk full")

	state := result.Logs[store.Farmer]
	assert.Nil(t, state.Corrupt)
	require.Len(t, state.Records, 2)
	assert.Equal(t, record.String("C"), state.Records[1]["name"])
}

func TestRun_FailedAssertionsAreReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_count",
		Description: "count does not match",
		Steps: []Step{
			{Op: OpAppend, RecordType: "farmer", Record: map[string]any{"name": "A"}},
		},
		Assertions: []Assertion{
			{Type: AssertLogCount, RecordType: "farmer", Count: intPtr(3)},
			{Type: AssertExists, RecordType: "farmer", Field: "name", Value: "A"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[0], "3 records in farmer")
}

func TestRun_FailedReadsHealedBeforeAssertions(t *testing.T) {
	scenario := &Scenario{
		Name:        "read_failure",
		Description: "reads fail while injected",
		Steps: []Step{
			{Op: OpAppend, RecordType: "farmer", Record: map[string]any{"name": "A"}},
			{Op: OpFailReads},
			{Op: OpAppend, RecordType: "farmer", Record: map[string]any{"name": "B"}},
		},
		Assertions: []Assertion{
			{Type: AssertErrorKind, Step: intPtr(2), Kind: "IO_FAILURE"},
			{Type: AssertLogCount, RecordType: "farmer", Count: intPtr(1)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_CorruptLogIsPreserved(t *testing.T) {
	raw := "not json"
	scenario := &Scenario{
		Name:        "corrupt",
		Description: "corrupt log",
		Steps: []Step{
			{Op: OpCorrupt, RecordType: "farmer", Raw: &raw},
			{Op: OpAppend, RecordType: "farmer", Record: map[string]any{"name": "A"}},
		},
		Assertions: []Assertion{
			{Type: AssertErrorKind, Step: intPtr(1), Kind: "CORRUPT_LOG"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	state := result.Logs[store.Farmer]
	require.NotNil(t, state.Corrupt)
	assert.Equal(t, "not json", *state.Corrupt)
}

func TestRun_SubmitUsesDeterministicStamps(t *testing.T) {
	scenario := &Scenario{
		Name:        "submit_group",
		Description: "farmer group submission",
		Steps: []Step{
			{Op: OpSubmit, RecordType: "farmer-group", Form: map[string]any{
				"groupName":          "Upendo",
				"groupLocation":      "Kisumu",
				"selectedAggregator": "Acme Produce",
			}},
		},
		Assertions: []Assertion{
			{Type: AssertExists, RecordType: "farmer-group", Field: "submissionId", Value: "sub-0001"},
			{Type: AssertExists, RecordType: "farmer-group", Field: "selectedGroupType", Value: "Vulnerable and Marginalized"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	recs := result.Logs[store.FarmerGroup].Records
	require.Len(t, recs, 1)
	assert.Equal(t, record.String("2024-01-15T09:30:00Z"), recs[0]["submittedAt"])
	assert.Equal(t, record.Null{}, recs[0]["groupGeoLocation"])
}

func TestRun_UnknownFormTypeIsAnError(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_form",
		Description: "no such form",
		Steps: []Step{
			{Op: OpSubmit, RecordType: "livestock", Form: map[string]any{"name": "x"}},
		},
		Assertions: []Assertion{
			{Type: AssertErrorKind, Step: intPtr(0), Kind: "ERROR"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.Steps[0].Error, "livestock")
}

func TestRun_ConcurrentAppendScenario(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "concurrent_appends.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Logs[store.Farmer].Records, 8)
}

func TestRun_KeyPrefix(t *testing.T) {
	scenario := &Scenario{
		Name:        "prefixed",
		Description: "custom prefix",
		KeyPrefix:   "qa:",
		Steps: []Step{
			{Op: OpAppend, RecordType: "farmer", Record: map[string]any{"name": "A"}},
		},
		Assertions: []Assertion{
			{Type: AssertExists, RecordType: "farmer", Field: "name", Value: "B", Expect: boolPtr(false)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "ERROR", kindOf(assert.AnError))
}
