// Package pipeline runs one archive-analysis request end to end: ingest,
// filter, rank, compress, select, synthesize. Each run is independent and
// stateless; nothing survives past the returned Result.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"harcurl/internal/compress"
	"harcurl/internal/config"
	"harcurl/internal/curl"
	"harcurl/internal/har"
	"harcurl/internal/oracle"
	"harcurl/internal/rank"
)

// Pipeline wires the stages together. Selector is the only external
// dependency; everything else is pure computation.
type Pipeline struct {
	Config   *config.Config
	Selector oracle.Selector
}

// Result is the externally visible outcome of a successful run.
type Result struct {
	Command       curl.Command
	Exchange      *har.Exchange
	TotalAnalyzed int
	Confidence    float64
	Reasoning     string
}

// New creates a pipeline.
func New(cfg *config.Config, sel oracle.Selector) *Pipeline {
	return &Pipeline{Config: cfg, Selector: sel}
}

// Run executes the stages strictly in order. Errors are one of
// *har.MalformedArchiveError, ErrNoMatch, or *OracleError.
func (p *Pipeline) Run(ctx context.Context, archive []byte, description string) (*Result, error) {
	runID := uuid.New().String()
	log := slog.With("run_id", runID)

	exchanges, err := har.Parse(archive, p.Config.MaxArchiveBytes)
	if err != nil {
		return nil, err
	}

	candidates := rank.Filter(exchanges, p.Config.ExcludeMimePrefixes)
	log.Info("filtered exchanges",
		"total", len(exchanges),
		"candidates", len(candidates),
	)
	if len(candidates) == 0 {
		// Nothing but static assets: short-circuit without touching the oracle.
		return nil, ErrNoMatch
	}

	ranked := rank.Rank(candidates, p.Config.MaxCandidates)
	compressed := compress.Compress(ranked)

	sel, err := p.Selector.Select(ctx, description, compressed)
	if err != nil {
		if errors.Is(err, oracle.ErrMalformedReply) {
			log.Error("oracle.contract_violation", "error", err)
			return nil, ErrNoMatch
		}
		return nil, &OracleError{Err: err}
	}

	if sel.NoMatch() {
		log.Info("oracle found no match", "candidates", len(compressed))
		return nil, ErrNoMatch
	}
	if sel.Index >= len(compressed) {
		// Out-of-range index is a contract violation, surfaced to the caller
		// exactly like a genuine no-match but logged loudly for diagnosis.
		log.Error("oracle.contract_violation",
			"selected_index", sel.Index,
			"candidates", len(compressed),
			"reasoning", sel.Reasoning,
		)
		return nil, ErrNoMatch
	}
	if sel.Confidence <= p.Config.MinConfidence {
		log.Info("oracle confidence below threshold",
			"confidence", sel.Confidence,
			"threshold", p.Config.MinConfidence,
		)
		return nil, ErrNoMatch
	}

	// Compression preserved index correspondence with the ranked list, so the
	// selection maps back to the original, uncompressed exchange.
	selected := ranked[sel.Index].Exchange
	cmd := curl.Synthesize(selected, p.Config.SensitiveHeaders)

	log.Info("synthesized command",
		"method", selected.Method,
		"url", selected.URL,
		"status", selected.Status,
		"confidence", sel.Confidence,
	)

	return &Result{
		Command:       cmd,
		Exchange:      selected,
		TotalAnalyzed: len(candidates),
		Confidence:    sel.Confidence,
		Reasoning:     sel.Reasoning,
	}, nil
}
