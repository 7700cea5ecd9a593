package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/couchcryptid/wildflower-map/internal/domain"
	"github.com/titanous/json5"
)

// StripFence removes a surrounding markdown code fence (```json or ```)
// from an LLM answer. Text without a fence is returned trimmed.
func StripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && isFenceInfo(s[:nl]) {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isFenceInfo(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "json") || strings.EqualFold(s, "json5")
}

// Parse decodes an LLM answer into reports. Strict JSON is tried first, then
// JSON5 for the trailing commas and single quotes models sometimes emit.
func Parse(text string) ([]domain.Report, []domain.QuarantinedRecord, error) {
	body := StripFence(text)

	reports, quarantined, err := domain.DecodeReports([]byte(body))
	if err == nil {
		return reports, quarantined, nil
	}

	var loose []any
	if err5 := json5.Unmarshal([]byte(body), &loose); err5 != nil {
		return nil, nil, err
	}
	normalized, merr := json.Marshal(loose)
	if merr != nil {
		return nil, nil, fmt.Errorf("re-encode json5 output: %w", merr)
	}
	return domain.DecodeReports(normalized)
}
