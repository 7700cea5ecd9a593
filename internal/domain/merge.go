package domain

// LatestDate returns the most recent date among reports. ok is false when
// reports is empty.
func LatestDate(reports []Report) (latest Date, ok bool) {
	for i, r := range reports {
		if i == 0 || latest.Before(r.Date) {
			latest = r.Date
		}
	}
	return latest, len(reports) > 0
}

// WithoutDate returns the reports not dated on d, preserving order.
func WithoutDate(reports []Report, d Date) []Report {
	out := make([]Report, 0, len(reports))
	for _, r := range reports {
		if !r.Date.Equal(d) {
			out = append(out, r)
		}
	}
	return out
}

// ReportSet accumulates reports in insertion order and drops any report
// whose Key is already present.
type ReportSet struct {
	reports []Report
	seen    map[ReportKey]struct{}
}

// NewReportSet creates a set seeded with base. Duplicates inside base are
// dropped as well.
func NewReportSet(base []Report) *ReportSet {
	s := &ReportSet{
		reports: make([]Report, 0, len(base)),
		seen:    make(map[ReportKey]struct{}, len(base)),
	}
	s.Add(base)
	return s
}

// Add appends the reports not already in the set and returns how many were
// added.
func (s *ReportSet) Add(reports []Report) int {
	added := 0
	for _, r := range reports {
		k := r.Key()
		if _, dup := s.seen[k]; dup {
			continue
		}
		s.seen[k] = struct{}{}
		s.reports = append(s.reports, r)
		added++
	}
	return added
}

// Len returns the number of reports in the set.
func (s *ReportSet) Len() int {
	return len(s.reports)
}

// Reports returns the accumulated reports.
func (s *ReportSet) Reports() []Report {
	return s.reports
}
