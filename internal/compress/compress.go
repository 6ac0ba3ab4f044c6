// Package compress produces the token-bounded candidate views that are sent
// to the selection oracle. Compression is lossy on purpose: only the fields
// useful for intent matching survive, and long values are clipped. Credential
// header values may still appear here unmasked — candidates are internal-only
// and never returned to the caller.
package compress

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/sjson"

	"harcurl/internal/har"
	"harcurl/internal/rank"
)

const (
	maxHeaderValueChars = 120
	maxBodyChars        = 500
	maxPreviewChars     = 300

	// defaultCandidateBudget bounds the serialized size of one candidate.
	defaultCandidateBudget = 2048
)

// importantHeaders is the subset of request headers worth showing the oracle.
var importantHeaders = []string{
	"authorization", "content-type", "accept", "user-agent",
	"x-api-key", "x-auth-token", "cookie",
}

// Candidate is the lossily-reduced view of one ranked exchange. Index is the
// candidate's position in the ranked list, which restores the original
// exchange after selection.
type Candidate struct {
	Index               int               `json:"index"`
	Method              string            `json:"method"`
	URL                 string            `json:"url"`
	Headers             map[string]string `json:"headers,omitempty"`
	QueryParams         map[string]string `json:"query_params,omitempty"`
	Body                string            `json:"body,omitempty"`
	ResponseStatus      int               `json:"response_status"`
	ResponseContentType string            `json:"response_content_type,omitempty"`
	ResponseSize        int64             `json:"response_size,omitempty"`
	ResponsePreview     string            `json:"response_body_preview,omitempty"`
}

// Compress maps the ranked exchanges to candidates, 1:1 and order-preserving.
func Compress(ranked []rank.Scored) []Candidate {
	out := make([]Candidate, 0, len(ranked))
	for i, sc := range ranked {
		out = append(out, fromExchange(sc.Exchange, i))
	}
	return out
}

func fromExchange(ex *har.Exchange, index int) Candidate {
	c := Candidate{
		Index:               index,
		Method:              ex.Method,
		URL:                 ex.URL,
		ResponseStatus:      ex.Status,
		ResponseContentType: ex.RespType,
		ResponseSize:        ex.RespSize,
		Body:                clip(ex.Body, maxBodyChars),
		ResponsePreview:     clip(ex.RespBody, maxPreviewChars),
	}

	for _, name := range importantHeaders {
		if v := ex.HeaderValue(name); v != "" {
			if c.Headers == nil {
				c.Headers = make(map[string]string)
			}
			c.Headers[name] = clip(v, maxHeaderValueChars)
		}
	}

	if qp := ex.QueryParams(); len(qp) > 0 {
		c.QueryParams = make(map[string]string, len(qp))
		for _, p := range qp {
			c.QueryParams[p.Name] = p.Value
		}
	}

	return c
}

// MarshalBounded serializes a candidate, dropping its heaviest fields one by
// one if the result exceeds the per-candidate budget.
func MarshalBounded(c Candidate, budget int) []byte {
	if budget <= 0 {
		budget = defaultCandidateBudget
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	for _, field := range []string{"response_body_preview", "body", "headers"} {
		if len(data) <= budget {
			break
		}
		data, _ = sjson.DeleteBytes(data, field)
	}
	return data
}

// MarshalAll renders the candidate list as a JSON array, each element kept
// under the per-candidate budget.
func MarshalAll(cands []Candidate, budget int) []byte {
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range cands {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(MarshalBounded(c, budget))
	}
	b.WriteByte(']')
	return []byte(b.String())
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
