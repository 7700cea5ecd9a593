package domain

// ExtractionKind tags the outcome of extracting reports from one page.
type ExtractionKind int

const (
	// KindNothingToProcess means the page markup was empty and the LLM was not called.
	KindNothingToProcess ExtractionKind = iota
	// KindReports means the LLM output parsed as a report array (possibly empty).
	KindReports
	// KindRawText means the LLM answered but the output was not a JSON array.
	KindRawText
	// KindFailure means the LLM call itself failed.
	KindFailure
)

func (k ExtractionKind) String() string {
	switch k {
	case KindNothingToProcess:
		return "nothing_to_process"
	case KindReports:
		return "reports"
	case KindRawText:
		return "raw_text"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Extraction is the result of extracting one page. Only the fields matching
// Kind are set: Reports and Quarantined for KindReports, Text for
// KindNothingToProcess and KindRawText, Err for KindFailure and KindRawText.
type Extraction struct {
	Kind        ExtractionKind
	Reports     []Report
	Quarantined []QuarantinedRecord
	Text        string
	Err         error
}

// Empty reports whether the extraction yielded no usable reports.
func (e Extraction) Empty() bool {
	return len(e.Reports) == 0
}
