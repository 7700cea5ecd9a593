package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the DD/MM/YYYY layout used by the report board and the
// persisted report file.
const DateLayout = "02/01/2006"

// Date is a calendar date serialized as DD/MM/YYYY.
type Date struct {
	time.Time
}

// NewDate returns the Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a DD/MM/YYYY string. Surrounding whitespace is ignored.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

// String formats the date as DD/MM/YYYY.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// Equal reports whether d and other are the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// StringList is a list of strings that also accepts a bare string or null
// when decoding. It always encodes as a JSON array.
type StringList []string

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*l = StringList{}
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*l = StringList{}
			return nil
		}
		*l = StringList{s}
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	out := make(StringList, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*l = out
	return nil
}

// Report is one structured flower sighting.
type Report struct {
	Flowers            StringList `json:"flowers"`
	Locations          StringList `json:"locations"`
	MapsQueryLocations StringList `json:"maps_query_locations"`
	Date               Date       `json:"date"`
	OriginalReport     string     `json:"original_report"`
	Observer           string     `json:"observer"`
}

// ReportKey identifies a sighting independently of how the LLM split it
// into flowers and locations.
type ReportKey struct {
	Date           string
	OriginalReport string
}

// Key returns the dedup key of the report.
func (r Report) Key() ReportKey {
	return ReportKey{Date: r.Date.String(), OriginalReport: strings.TrimSpace(r.OriginalReport)}
}

// Label is the marker label for the report: flower names joined by ", ",
// a newline, then the date.
func (r Report) Label() string {
	return strings.Join(r.Flowers, ", ") + "\n" + r.Date.String()
}
