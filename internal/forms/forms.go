// Package forms holds the four data-collection forms and the workflow that
// turns a filled-in form into a stored record.
//
// A form is validated before anything is written, built into a record
// stamped with a submission ID and time, checked against its schema, saved
// to the local store, and only then offered to the remote API.
package forms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/fieldsync/internal/record"
	"github.com/roach88/fieldsync/internal/store"
)

// Group types offered for a farmer group.
const (
	GroupVulnerable     = "Vulnerable and Marginalized"
	GroupCommonInterest = "Common Interest"
)

// GroupTypes lists the allowed farmer group types; the first is the default.
var GroupTypes = []string{GroupVulnerable, GroupCommonInterest}

// TimeLayout formats the training session's default time of day.
const TimeLayout = "15:04"

// Form is a filled-in data-collection form.
type Form interface {
	// RecordType is the log the built record is appended to.
	RecordType() store.RecordType

	// Validate checks required fields and ranges. It performs no I/O.
	Validate() error

	// Fields builds the record body, without submission metadata. now is
	// the submission time, used for defaulted fields.
	Fields(now time.Time) (record.Record, error)
}

// UniqueKeyed is implemented by forms whose key field must not already
// exist in the local log.
type UniqueKeyed interface {
	UniqueKey() (field string, value record.Value)
}

// Commodity is one traded commodity and its volume.
type Commodity struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// Equipment is one equipment type and how many the aggregator owns.
type Equipment struct {
	Type     string `json:"type"`
	Quantity string `json:"quantity"`
}

// Aggregator registers a produce aggregator.
type Aggregator struct {
	AggregatorName        string                `json:"aggregatorName"`
	AggregatorGeoLocation *record.GeoCoordinate `json:"aggregatorGeoLocation"`
	BusinessType          string                `json:"businessType"`
	CompanyPhoneNumber    string                `json:"companyPhoneNumber"`
	CompanyEmail          string                `json:"companyEmail"`
	MaleEmployees         string                `json:"maleEmployees"`
	FemaleEmployees       string                `json:"femaleEmployees"`
	Commodities           []Commodity           `json:"commodities"`
	Equipment             []Equipment           `json:"equipment"`
}

// FarmerGroup registers a group of farmers under an aggregator.
type FarmerGroup struct {
	GroupName          string                `json:"groupName"`
	GroupLocation      string                `json:"groupLocation"`
	GroupGeoLocation   *record.GeoCoordinate `json:"groupGeoLocation"`
	SelectedAggregator string                `json:"selectedAggregator"`
	SelectedGroupType  string                `json:"selectedGroupType"`
}

// Farmer registers an individual farmer.
type Farmer struct {
	Name             string                `json:"name"`
	Age              string                `json:"age"`
	Gender           string                `json:"gender"`
	FarmSize         string                `json:"farmSize"`
	Crops            []string              `json:"crops"`
	Livestock        []string              `json:"livestock"`
	FarmGeoLocation  *record.GeoCoordinate `json:"farmGeoLocation"`
	SearchAggregator string                `json:"searchAggregator"`
	SearchGroup      string                `json:"searchGroup"`
}

// TrainingDetails describes what was taught and when.
type TrainingDetails struct {
	Unit   string `json:"unit"`
	Module string `json:"module"`
	Date   string `json:"date"`
	Time   string `json:"time"`
}

// TrainingSession records attendance at a training session.
type TrainingSession struct {
	SelectedAggregator string                `json:"selectedAggregator"`
	SelectedGroup      string                `json:"selectedGroup"`
	SelectedFarmers    []string              `json:"selectedFarmers"`
	TrainingDetails    TrainingDetails       `json:"trainingDetails"`
	SessionGeoLocation *record.GeoCoordinate `json:"sessionGeoLocation"`
}

// New returns an empty form for t with its defaults filled in.
func New(t store.RecordType) (Form, error) {
	switch t {
	case store.Aggregator:
		return &Aggregator{}, nil
	case store.FarmerGroup:
		return &FarmerGroup{SelectedGroupType: GroupVulnerable}, nil
	case store.Farmer:
		return &Farmer{}, nil
	case store.TrainingSession:
		return &TrainingSession{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownForm, t)
	}
}

// Decode parses a JSON form of type t over its defaults. Unknown fields are
// rejected.
func Decode(t store.RecordType, data []byte) (Form, error) {
	f, err := New(t)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(f); err != nil {
		return nil, &ValidationError{
			Form:   string(t),
			Fields: []FieldError{{Field: "$", Message: err.Error(), Code: CodeUnknownKey}},
		}
	}
	return f, nil
}

// RecordType implements Form.
func (a *Aggregator) RecordType() store.RecordType { return store.Aggregator }

// UniqueKey implements UniqueKeyed.
func (a *Aggregator) UniqueKey() (string, record.Value) {
	return "aggregatorName", record.String(a.AggregatorName)
}

// Validate implements Form.
func (a *Aggregator) Validate() error {
	p := &problems{form: string(store.Aggregator)}
	p.required("aggregatorName", a.AggregatorName)
	if a.AggregatorGeoLocation == nil {
		p.add("aggregatorGeoLocation", CodeRequired, "is required")
	} else {
		checkGeo(p, "aggregatorGeoLocation", a.AggregatorGeoLocation)
	}
	p.required("businessType", a.BusinessType)
	p.required("companyPhoneNumber", a.CompanyPhoneNumber)
	p.required("companyEmail", a.CompanyEmail)
	checkCount(p, "maleEmployees", a.MaleEmployees)
	checkCount(p, "femaleEmployees", a.FemaleEmployees)

	if len(a.Commodities) == 0 {
		p.add("commodities", CodeRequired, "at least one commodity is required")
	}
	for i, c := range a.Commodities {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Quantity) == "" {
			p.add(fmt.Sprintf("commodities[%d]", i), CodeEmptyItem, "name and quantity are required")
		}
	}
	if len(a.Equipment) == 0 {
		p.add("equipment", CodeRequired, "at least one equipment entry is required")
	}
	for i, e := range a.Equipment {
		if strings.TrimSpace(e.Type) == "" || strings.TrimSpace(e.Quantity) == "" {
			p.add(fmt.Sprintf("equipment[%d]", i), CodeEmptyItem, "type and quantity are required")
		}
	}
	return p.err()
}

// Fields implements Form.
func (a *Aggregator) Fields(time.Time) (record.Record, error) {
	male, err := strconv.ParseInt(strings.TrimSpace(a.MaleEmployees), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("maleEmployees: %w", err)
	}
	female, err := strconv.ParseInt(strings.TrimSpace(a.FemaleEmployees), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("femaleEmployees: %w", err)
	}

	commodities := make(record.Array, len(a.Commodities))
	for i, c := range a.Commodities {
		commodities[i] = record.Object{"name": record.String(c.Name), "quantity": record.String(c.Quantity)}
	}
	equipment := make(record.Array, len(a.Equipment))
	for i, e := range a.Equipment {
		equipment[i] = record.Object{"type": record.String(e.Type), "quantity": record.String(e.Quantity)}
	}

	return record.Record{
		"aggregatorName":        record.String(a.AggregatorName),
		"aggregatorGeoLocation": record.GeoValue(a.AggregatorGeoLocation),
		"businessType":          record.String(a.BusinessType),
		"companyPhoneNumber":    record.String(a.CompanyPhoneNumber),
		"companyEmail":          record.String(a.CompanyEmail),
		"maleEmployees":         record.Int(male),
		"femaleEmployees":       record.Int(female),
		"commodities":           commodities,
		"equipment":             equipment,
	}, nil
}

// RecordType implements Form.
func (g *FarmerGroup) RecordType() store.RecordType { return store.FarmerGroup }

// Validate implements Form.
func (g *FarmerGroup) Validate() error {
	p := &problems{form: string(store.FarmerGroup)}
	p.required("groupName", g.GroupName)
	p.required("groupLocation", g.GroupLocation)
	p.required("selectedAggregator", g.SelectedAggregator)
	switch g.SelectedGroupType {
	case "":
		p.add("selectedGroupType", CodeRequired, "is required")
	case GroupVulnerable, GroupCommonInterest:
	default:
		p.add("selectedGroupType", CodeBadChoice, "must be one of %q", GroupTypes)
	}
	if g.GroupGeoLocation != nil {
		checkGeo(p, "groupGeoLocation", g.GroupGeoLocation)
	}
	return p.err()
}

// Fields implements Form.
func (g *FarmerGroup) Fields(time.Time) (record.Record, error) {
	return record.Record{
		"groupName":          record.String(g.GroupName),
		"groupLocation":      record.String(g.GroupLocation),
		"groupGeoLocation":   record.GeoValue(g.GroupGeoLocation),
		"selectedAggregator": record.String(g.SelectedAggregator),
		"selectedGroupType":  record.String(g.SelectedGroupType),
	}, nil
}

// RecordType implements Form.
func (f *Farmer) RecordType() store.RecordType { return store.Farmer }

// Validate implements Form.
//
// Crops and livestock may be empty lists, but no entry may be blank.
func (f *Farmer) Validate() error {
	p := &problems{form: string(store.Farmer)}
	p.required("name", f.Name)
	checkCount(p, "age", f.Age)
	p.required("gender", f.Gender)
	if strings.TrimSpace(f.FarmSize) == "" {
		p.add("farmSize", CodeRequired, "is required")
	} else if _, err := strconv.ParseFloat(strings.TrimSpace(f.FarmSize), 64); err != nil {
		p.add("farmSize", CodeNotNumber, "must be a number")
	}
	for i, c := range f.Crops {
		if strings.TrimSpace(c) == "" {
			p.add(fmt.Sprintf("crops[%d]", i), CodeEmptyItem, "must not be blank")
		}
	}
	for i, l := range f.Livestock {
		if strings.TrimSpace(l) == "" {
			p.add(fmt.Sprintf("livestock[%d]", i), CodeEmptyItem, "must not be blank")
		}
	}
	if f.FarmGeoLocation != nil {
		checkGeo(p, "farmGeoLocation", f.FarmGeoLocation)
	}
	return p.err()
}

// Fields implements Form.
func (f *Farmer) Fields(time.Time) (record.Record, error) {
	age, err := strconv.ParseInt(strings.TrimSpace(f.Age), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("age: %w", err)
	}
	size, err := strconv.ParseFloat(strings.TrimSpace(f.FarmSize), 64)
	if err != nil {
		return nil, fmt.Errorf("farmSize: %w", err)
	}
	return record.Record{
		"name":             record.String(f.Name),
		"age":              record.Int(age),
		"gender":           record.String(f.Gender),
		"farmSize":         record.Float(size),
		"crops":            stringArray(f.Crops),
		"livestock":        stringArray(f.Livestock),
		"farmGeoLocation":  record.GeoValue(f.FarmGeoLocation),
		"searchAggregator": record.String(f.SearchAggregator),
		"searchGroup":      record.String(f.SearchGroup),
	}, nil
}

// RecordType implements Form.
func (s *TrainingSession) RecordType() store.RecordType { return store.TrainingSession }

// Validate implements Form.
func (s *TrainingSession) Validate() error {
	p := &problems{form: string(store.TrainingSession)}
	p.required("selectedAggregator", s.SelectedAggregator)
	p.required("selectedGroup", s.SelectedGroup)
	if len(s.SelectedFarmers) == 0 {
		p.add("selectedFarmers", CodeRequired, "at least one farmer must attend")
	}
	for i, name := range s.SelectedFarmers {
		if strings.TrimSpace(name) == "" {
			p.add(fmt.Sprintf("selectedFarmers[%d]", i), CodeEmptyItem, "must not be blank")
		}
	}
	p.required("trainingDetails.unit", s.TrainingDetails.Unit)
	p.required("trainingDetails.module", s.TrainingDetails.Module)
	p.required("trainingDetails.date", s.TrainingDetails.Date)
	if s.SessionGeoLocation != nil {
		checkGeo(p, "sessionGeoLocation", s.SessionGeoLocation)
	}
	return p.err()
}

// Fields implements Form. A blank time of day defaults to now.
func (s *TrainingSession) Fields(now time.Time) (record.Record, error) {
	at := s.TrainingDetails.Time
	if strings.TrimSpace(at) == "" {
		at = now.Format(TimeLayout)
	}
	return record.Record{
		"selectedAggregator": record.String(s.SelectedAggregator),
		"selectedGroup":      record.String(s.SelectedGroup),
		"selectedFarmers":    stringArray(s.SelectedFarmers),
		"trainingDetails": record.Object{
			"unit":   record.String(s.TrainingDetails.Unit),
			"module": record.String(s.TrainingDetails.Module),
			"date":   record.String(s.TrainingDetails.Date),
			"time":   record.String(at),
		},
		"sessionGeoLocation": record.GeoValue(s.SessionGeoLocation),
	}, nil
}

func checkGeo(p *problems, field string, g *record.GeoCoordinate) {
	if err := g.Validate(); err != nil {
		p.add(field, CodeGeoRange, "%v", err)
	}
}

func checkCount(p *problems, field, value string) {
	v := strings.TrimSpace(value)
	if v == "" {
		p.add(field, CodeRequired, "is required")
		return
	}
	if _, err := strconv.ParseInt(v, 10, 64); err != nil {
		p.add(field, CodeNotNumber, "must be a whole number")
	}
}

func stringArray(items []string) record.Array {
	arr := make(record.Array, len(items))
	for i, s := range items {
		arr[i] = record.String(s)
	}
	return arr
}
