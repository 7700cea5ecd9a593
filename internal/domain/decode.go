package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotArray is returned when a report payload is not a JSON array.
var ErrNotArray = errors.New("report payload is not a JSON array")

// QuarantinedRecord is an array element that could not become a Report.
type QuarantinedRecord struct {
	Index  int
	Raw    json.RawMessage
	Reason string
}

// reportRecord mirrors Report with a string date so a bad date can be
// reported per element instead of failing the whole array.
type reportRecord struct {
	Flowers            StringList `json:"flowers"`
	Locations          StringList `json:"locations"`
	MapsQueryLocations StringList `json:"maps_query_locations"`
	Date               *string    `json:"date"`
	OriginalReport     string     `json:"original_report"`
	Observer           string     `json:"observer"`
}

// DecodeReports decodes a JSON array of report objects element by element.
// Elements with a missing or unparseable date, or that are not objects, are
// returned as quarantined records.
func DecodeReports(data []byte) ([]Report, []QuarantinedRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil, ErrNotArray
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, nil, fmt.Errorf("decode report array: %w", err)
	}

	reports := make([]Report, 0, len(elems))
	var quarantined []QuarantinedRecord
	for i, elem := range elems {
		r, err := decodeReport(elem)
		if err != nil {
			quarantined = append(quarantined, QuarantinedRecord{Index: i, Raw: elem, Reason: err.Error()})
			continue
		}
		reports = append(reports, r)
	}
	return reports, quarantined, nil
}

func decodeReport(elem json.RawMessage) (Report, error) {
	var rec reportRecord
	if err := json.Unmarshal(elem, &rec); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	if rec.Date == nil {
		return Report{}, errors.New("missing date")
	}
	date, err := ParseDate(*rec.Date)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		Flowers:            nonNil(rec.Flowers),
		Locations:          nonNil(rec.Locations),
		MapsQueryLocations: nonNil(rec.MapsQueryLocations),
		Date:               date,
		OriginalReport:     rec.OriginalReport,
		Observer:           rec.Observer,
	}
	if len(r.MapsQueryLocations) == 0 && len(r.Locations) > 0 {
		r.MapsQueryLocations = append(StringList{}, r.Locations...)
	}
	return r, nil
}

func nonNil(l StringList) StringList {
	if l == nil {
		return StringList{}
	}
	return l
}
