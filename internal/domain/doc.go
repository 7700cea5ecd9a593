// Package domain models wildflower sighting reports scraped from the
// wildflowers.co.il "flash" report board.
//
// # Data Source
//
// The board lists free-text Hebrew sighting reports, newest first, ten to
// twenty per page, paginated with a 1-indexed "page" query parameter. The
// markup carries no structure worth parsing directly, so each page is handed
// to an LLM which returns a JSON array of report objects.
//
// # Record Conventions
//
// Dates:
//
//	DD/MM/YYYY, e.g. "14/02/2025". Records whose date does not parse are
//	quarantined by [DecodeReports] and never enter a report set, because the
//	incremental fetch depends on comparing dates.
//
// List fields:
//
//	flowers, locations and maps_query_locations are always arrays. The LLM
//	occasionally emits a bare string or null; both are normalized by
//	[StringList].
//
// Maps query locations:
//
//	One entry per location, stripped of relational words ("near", "between",
//	"north of") so the geocoder is more likely to resolve them. When the model
//	omits them the raw locations are used instead.
//
// # Identity
//
// Two records are the same sighting when they share both date and original
// report text. See [Report.Key].
package domain
