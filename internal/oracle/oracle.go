// Package oracle isolates the natural-language selection step behind a
// narrow interface so the pipeline never depends on a concrete model. Any
// implementation that can rank candidates against a description fits; tests
// use a fixed-answer stub.
package oracle

import (
	"context"
	"errors"

	"github.com/tidwall/gjson"

	"harcurl/internal/compress"
)

// NoMatchIndex is the index an oracle returns when nothing fits.
const NoMatchIndex = -1

// Selection is the oracle's verdict on a candidate list.
type Selection struct {
	Index        int
	Confidence   float64
	Reasoning    string
	Alternatives []int
}

// NoMatch reports whether the oracle explicitly declined to pick anything.
func (s Selection) NoMatch() bool {
	return s.Index < 0
}

// Selector picks the candidate best matching a free-text description.
// Implementations must honor ctx cancellation: the call is the pipeline's
// only blocking network round-trip and must die with the client request.
type Selector interface {
	Select(ctx context.Context, description string, candidates []compress.Candidate) (Selection, error)
}

// ErrMalformedReply marks an oracle answer that could not be decoded into a
// Selection at all. The caller treats it as a contract violation.
var ErrMalformedReply = errors.New("oracle reply is not a valid selection")

// ParseReply decodes the oracle's JSON answer. A missing or non-numeric
// selected_index is a malformed reply; range checking against the candidate
// list is the caller's job.
func ParseReply(raw string) (Selection, error) {
	if !gjson.Valid(raw) {
		return Selection{}, ErrMalformedReply
	}
	idx := gjson.Get(raw, "selected_index")
	if !idx.Exists() || idx.Type != gjson.Number {
		return Selection{}, ErrMalformedReply
	}

	sel := Selection{
		Index:      int(idx.Int()),
		Confidence: gjson.Get(raw, "confidence").Float(),
		Reasoning:  gjson.Get(raw, "reasoning").String(),
	}
	for _, alt := range gjson.Get(raw, "alternatives").Array() {
		sel.Alternatives = append(sel.Alternatives, int(alt.Int()))
	}
	return sel, nil
}
