package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wildflower-map/internal/domain"
)

func writeReports(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reports.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func freeze(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func TestRun_ValidFile(t *testing.T) {
	freeze(t)
	path := writeReports(t, `[
		{"flowers":["כלנית"],"locations":["בארי"],"date":"14/03/2025","original_report":"a","observer":"x"},
		{"flowers":["רקפת"],"locations":["כרמל"],"maps_query_locations":["הר הכרמל"],"date":"10/03/2025","original_report":"b","observer":"y"}
	]`)
	var out bytes.Buffer

	code := run(path, &out)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "Records: 2 valid, 0 quarantined")
	assert.NotContains(t, out.String(), "FAIL")
}

func TestRun_ReportsEveryProblem(t *testing.T) {
	freeze(t)
	path := writeReports(t, `[
		{"flowers":["כלנית"],"locations":["בארי"],"date":"14/03/2025","original_report":"a","observer":"x"},
		{"flowers":["כלנית"],"locations":["בארי"],"date":"14/03/2025","original_report":"a","observer":"x"},
		{"flowers":["רקפת"],"locations":[],"date":"20/03/2025","original_report":"b","observer":"y"},
		{"flowers":["איריס"],"date":"yesterday","original_report":"c","observer":"z"}
	]`)
	var out bytes.Buffer

	code := run(path, &out)

	assert.Equal(t, 1, code)
	got := out.String()
	assert.Contains(t, got, "Records: 3 valid, 1 quarantined")
	assert.Contains(t, got, "record 3: ")
	assert.Contains(t, got, "record 1 duplicates record 0")
	assert.Contains(t, got, "record 2: date 20/03/2025 is after 14/03/2025")
	assert.Contains(t, got, "record 2 (20/03/2025): no maps query locations")
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer

	code := run(filepath.Join(t.TempDir(), "missing.json"), &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "FATAL: read reports")
}
