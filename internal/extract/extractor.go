// Package extract turns raw report-board markup into report records by
// prompting an LLM and parsing its answer.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/wildflower-map/internal/domain"
	"github.com/couchcryptid/wildflower-map/internal/observability"
)

// NothingToProcess is the sentinel text returned for empty markup.
const NothingToProcess = "No reports to process."

var (
	// ErrLLM wraps failures of the LLM call itself.
	ErrLLM = errors.New("llm call failed")
	// ErrMalformedOutput marks LLM output that is not a JSON report array.
	ErrMalformedOutput = errors.New("llm returned malformed output")
)

// LLM generates one text response for one prompt.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Extractor implements report extraction over an LLM.
type Extractor struct {
	llm     LLM
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Extractor.
func New(llm LLM, logger *slog.Logger, metrics *observability.Metrics) *Extractor {
	return &Extractor{llm: llm, logger: logger, metrics: metrics}
}

// Extract prompts the LLM with markup and classifies the answer. It never
// returns an error; failures are reported through the Extraction kind.
func (e *Extractor) Extract(ctx context.Context, markup string) domain.Extraction {
	if strings.TrimSpace(markup) == "" {
		return e.done(domain.Extraction{Kind: domain.KindNothingToProcess, Text: NothingToProcess})
	}

	prompt, err := BuildPrompt(markup)
	if err != nil {
		e.logger.Error("failed to build prompt", "error", err)
		return e.done(domain.Extraction{Kind: domain.KindFailure, Err: err})
	}

	start := time.Now()
	text, err := e.llm.Generate(ctx, prompt)
	e.metrics.LLMDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		e.logger.Error("llm call failed", "error", err)
		return e.done(domain.Extraction{Kind: domain.KindFailure, Err: fmt.Errorf("%w: %w", ErrLLM, err)})
	}

	reports, quarantined, err := Parse(text)
	if err != nil {
		e.logger.Warn("llm returned invalid JSON", "error", err, "length", len(text))
		return e.done(domain.Extraction{
			Kind: domain.KindRawText,
			Text: text,
			Err:  fmt.Errorf("%w: %w", ErrMalformedOutput, err),
		})
	}

	for _, q := range quarantined {
		e.logger.Warn("quarantined report", "index", q.Index, "reason", q.Reason, "raw", string(q.Raw))
	}
	e.metrics.ReportsQuarantined.Add(float64(len(quarantined)))
	e.metrics.ReportsExtracted.Add(float64(len(reports)))
	e.logger.Info("parsed llm output", "reports", len(reports), "quarantined", len(quarantined))

	return e.done(domain.Extraction{Kind: domain.KindReports, Reports: reports, Quarantined: quarantined})
}

func (e *Extractor) done(x domain.Extraction) domain.Extraction {
	e.metrics.Extractions.WithLabelValues(x.Kind.String()).Inc()
	return x
}
