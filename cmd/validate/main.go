// Command validate checks the integrity of a persisted reports file: every
// record decodes, dedup keys are unique, dates are not in the future, and
// every record has something to geocode.
//
// Usage:
//
//	go run ./cmd/validate -reports reports.json
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/wildflower-map/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	reportsPath := flag.String("reports", "reports.json", "path to the persisted reports file")
	flag.Parse()

	os.Exit(run(*reportsPath, os.Stdout))
}

func run(path string, out io.Writer) int {
	fmt.Fprintln(out, "=== Wildflower Report Validation ===")
	fmt.Fprintln(out)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "FATAL: read reports: %v\n", err)
		return 1
	}
	reports, quarantined, err := domain.DecodeReports(data)
	if err != nil {
		fmt.Fprintf(out, "FATAL: decode reports: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateDecoding(quarantined),
		validateUniqueKeys(reports),
		validateDates(reports),
		validateGeocodable(reports),
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-32s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d valid, %d quarantined\n", len(reports), len(quarantined))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for _, e := range p.errors {
			fmt.Fprintf(out, "  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

func validateDecoding(quarantined []domain.QuarantinedRecord) *phase {
	p := &phase{name: "Records decode"}
	for _, q := range quarantined {
		p.errorf("record %d: %s", q.Index, q.Reason)
	}
	return p
}

func validateUniqueKeys(reports []domain.Report) *phase {
	p := &phase{name: "Unique (date, original_report)"}
	seen := make(map[domain.ReportKey]int, len(reports))
	for i, r := range reports {
		k := r.Key()
		if first, dup := seen[k]; dup {
			p.errorf("record %d duplicates record %d (%s)", i, first, k.Date)
			continue
		}
		seen[k] = i
	}
	return p
}

func validateDates(reports []domain.Report) *phase {
	p := &phase{name: "Dates not in future"}
	now := domain.Now()
	today := domain.NewDate(now.Year(), now.Month(), now.Day())
	for i, r := range reports {
		if today.Before(r.Date) {
			p.errorf("record %d: date %s is after %s", i, r.Date, today)
		}
	}
	return p
}

func validateGeocodable(reports []domain.Report) *phase {
	p := &phase{name: "Maps query locations present"}
	for i, r := range reports {
		if len(r.MapsQueryLocations) == 0 {
			p.errorf("record %d (%s): no maps query locations", i, r.Date)
		}
	}
	return p
}
