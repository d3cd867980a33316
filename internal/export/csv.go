// Package export writes submission logs out as CSV for spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"

	"github.com/roach88/fieldsync/internal/record"
	"github.com/roach88/fieldsync/internal/store"
)

// Row is one exported record. Latitude and Longitude are blank when the
// record has no location.
type Row struct {
	Index        int      `csv:"index"`
	RecordType   string   `csv:"record_type"`
	SubmissionID string   `csv:"submission_id"`
	Name         string   `csv:"name"`
	Latitude     *float64 `csv:"latitude,omitempty"`
	Longitude    *float64 `csv:"longitude,omitempty"`
	Digest       string   `csv:"digest"`
	Payload      string   `csv:"payload"`
}

// nameFields and geoFields are tried in order; the first present wins.
var (
	nameFields = []string{"aggregatorName", "groupName", "name"}
	geoFields  = []string{"aggregatorGeoLocation", "groupGeoLocation", "farmGeoLocation", "sessionGeoLocation"}
)

// Rows converts a log into export rows, preserving order.
func Rows(t store.RecordType, log []record.Record) ([]Row, error) {
	rows := make([]Row, 0, len(log))
	for i, rec := range log {
		payload, err := record.MarshalValue(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		digest, err := record.Digest(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		row := Row{
			Index:      i,
			RecordType: string(t),
			Digest:     digest,
			Payload:    string(payload),
		}
		row.SubmissionID, _ = rec.StringField("submissionId")
		for _, f := range nameFields {
			if name, ok := rec.StringField(f); ok {
				row.Name = name
				break
			}
		}
		for _, f := range geoFields {
			if geo, ok := record.GeoFromValue(rec[f]); ok {
				row.Latitude = &geo.Latitude
				row.Longitude = &geo.Longitude
				break
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteCSV writes log as CSV with a header row, even when log is empty.
func WriteCSV(w io.Writer, t store.RecordType, log []record.Record) error {
	rows, err := Rows(t, log)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(Row{}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("write row %d: %w", row.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
