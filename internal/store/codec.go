package store

import (
	"fmt"

	"github.com/roach88/fieldsync/internal/record"
)

// encodeLog serializes a log as a JSON array of objects.
func encodeLog(log []record.Record) (string, error) {
	arr := make(record.Array, len(log))
	for i, r := range log {
		arr[i] = r
	}
	data, err := record.MarshalValue(arr)
	if err != nil {
		return "", fmt.Errorf("encode log: %w", err)
	}
	return string(data), nil
}

// decodeLog parses a stored log. Anything other than a JSON array of
// objects is rejected; nothing is skipped or repaired.
func decodeLog(data string) ([]record.Record, error) {
	v, err := record.UnmarshalValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("decode log: %w", err)
	}
	arr, ok := v.(record.Array)
	if !ok {
		return nil, fmt.Errorf("decode log: expected array, got %s", record.KindName(v))
	}
	log := make([]record.Record, len(arr))
	for i, elem := range arr {
		obj, ok := elem.(record.Object)
		if !ok {
			return nil, fmt.Errorf("decode log: element %d is %s, want object", i, record.KindName(elem))
		}
		log[i] = obj
	}
	return log, nil
}
