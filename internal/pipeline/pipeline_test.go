package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"harcurl/internal/compress"
	"harcurl/internal/config"
	"harcurl/internal/har"
	"harcurl/internal/oracle"
)

// stubSelector answers with a fixed selection and records every call.
type stubSelector struct {
	selection oracle.Selection
	err       error
	calls     int
	lastCands []compress.Candidate
	lastDesc  string
}

func (s *stubSelector) Select(ctx context.Context, description string, cands []compress.Candidate) (oracle.Selection, error) {
	s.calls++
	s.lastDesc = description
	s.lastCands = cands
	if s.err != nil {
		return oracle.Selection{}, s.err
	}
	return s.selection, nil
}

// threeExchangeArchive holds a CSS asset, a login POST with an Authorization
// header, and a profile GET.
const threeExchangeArchive = `{
  "log": {
    "entries": [
      {
        "request": {"method": "GET", "url": "https://example.com/styles/main.css"},
        "response": {"status": 200, "content": {"mimeType": "text/css", "text": "body{}"}}
      },
      {
        "request": {
          "method": "POST",
          "url": "https://example.com/api/login",
          "headers": [
            {"name": "Content-Type", "value": "application/json"},
            {"name": "Authorization", "value": "Bearer abcdef123456"}
          ],
          "postData": {"mimeType": "application/json", "text": "{\"user\":\"a\",\"pass\":\"b\"}"}
        },
        "response": {"status": 200, "content": {"mimeType": "application/json", "size": 150, "text": "{\"token\":\"t\"}"}}
      },
      {
        "request": {"method": "GET", "url": "https://example.com/api/profile"},
        "response": {"status": 200, "content": {"mimeType": "application/json", "size": 200, "text": "{\"name\":\"a\"}"}}
      }
    ]
  }
}`

const staticOnlyArchive = `{
  "log": {
    "entries": [
      {
        "request": {"method": "GET", "url": "https://example.com/a.css"},
        "response": {"status": 200, "content": {"mimeType": "text/css"}}
      },
      {
        "request": {"method": "GET", "url": "https://example.com/b.js"},
        "response": {"status": 200, "content": {"mimeType": "application/javascript"}}
      }
    ]
  }
}`

func newTestPipeline(sel oracle.Selector) *Pipeline {
	return New(config.Default(), sel)
}

// TestRunSelectsLoginPost verifies the full path: CSS filtered out, the login
// POST selected, credentials masked, metadata counted.
func TestRunSelectsLoginPost(t *testing.T) {
	// The login POST ranks first (mutating JSON call), so the oracle sees it
	// at candidate index 0.
	stub := &stubSelector{selection: oracle.Selection{Index: 0, Confidence: 0.9, Reasoning: "login"}}
	p := newTestPipeline(stub)

	result, err := p.Run(context.Background(), []byte(threeExchangeArchive), "login endpoint that returns a token")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.TotalAnalyzed != 2 {
		t.Errorf("total analyzed: got %d, want 2 (CSS filtered)", result.TotalAnalyzed)
	}
	if result.Exchange.Method != "POST" {
		t.Errorf("selected method: got %q, want POST", result.Exchange.Method)
	}
	if result.Exchange.URL != "https://example.com/api/login" {
		t.Errorf("selected url: %q", result.Exchange.URL)
	}
	if strings.Contains(result.Command.Text, "abcdef123456") {
		t.Errorf("command leaks credential: %s", result.Command.Text)
	}
	if !strings.Contains(result.Command.Text, "Authorization:") {
		t.Error("masked Authorization header missing from command")
	}
	if stub.lastDesc != "login endpoint that returns a token" {
		t.Errorf("description passed to oracle: %q", stub.lastDesc)
	}
	if len(stub.lastCands) != 2 {
		t.Errorf("candidates sent to oracle: %d", len(stub.lastCands))
	}
}

// TestRunStaticOnlyShortCircuits verifies an archive of only static assets
// returns no-match without invoking the oracle.
func TestRunStaticOnlyShortCircuits(t *testing.T) {
	stub := &stubSelector{selection: oracle.Selection{Index: 0, Confidence: 1}}
	p := newTestPipeline(stub)

	_, err := p.Run(context.Background(), []byte(staticOnlyArchive), "anything")
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
	if stub.calls != 0 {
		t.Errorf("oracle should not be invoked, got %d calls", stub.calls)
	}
}

// TestRunMalformedArchive verifies parse failures surface as
// MalformedArchiveError.
func TestRunMalformedArchive(t *testing.T) {
	p := newTestPipeline(&stubSelector{})
	_, err := p.Run(context.Background(), []byte("garbage"), "anything")
	var malformed *har.MalformedArchiveError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedArchiveError, got %v", err)
	}
}

// TestRunOracleNoMatch verifies an explicit -1 answer maps to ErrNoMatch.
func TestRunOracleNoMatch(t *testing.T) {
	stub := &stubSelector{selection: oracle.Selection{Index: oracle.NoMatchIndex}}
	p := newTestPipeline(stub)
	_, err := p.Run(context.Background(), []byte(threeExchangeArchive), "something absent")
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

// TestRunOutOfRangeIndexIsNoMatch verifies the contract-violation path: an
// index past the candidate list behaves like no-match for the caller.
func TestRunOutOfRangeIndexIsNoMatch(t *testing.T) {
	stub := &stubSelector{selection: oracle.Selection{Index: 99, Confidence: 0.9}}
	p := newTestPipeline(stub)
	_, err := p.Run(context.Background(), []byte(threeExchangeArchive), "anything")
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

// TestRunMalformedReplyIsNoMatch verifies an undecodable oracle reply is
// treated as no-match, not as an oracle outage.
func TestRunMalformedReplyIsNoMatch(t *testing.T) {
	stub := &stubSelector{err: oracle.ErrMalformedReply}
	p := newTestPipeline(stub)
	_, err := p.Run(context.Background(), []byte(threeExchangeArchive), "anything")
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

// TestRunLowConfidenceIsNoMatch verifies selections at or below the
// confidence threshold are rejected.
func TestRunLowConfidenceIsNoMatch(t *testing.T) {
	stub := &stubSelector{selection: oracle.Selection{Index: 0, Confidence: 0.2}}
	p := newTestPipeline(stub)
	_, err := p.Run(context.Background(), []byte(threeExchangeArchive), "anything")
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

// TestRunOracleTransportFailure verifies transport errors wrap as
// OracleError.
func TestRunOracleTransportFailure(t *testing.T) {
	stub := &stubSelector{err: fmt.Errorf("connection refused")}
	p := newTestPipeline(stub)
	_, err := p.Run(context.Background(), []byte(threeExchangeArchive), "anything")
	var oracleErr *OracleError
	if !errors.As(err, &oracleErr) {
		t.Fatalf("expected OracleError, got %v", err)
	}
}

// TestRunDeterministicAcrossRuns verifies two runs over the same archive
// present candidates to the oracle in the same order.
func TestRunDeterministicAcrossRuns(t *testing.T) {
	first := &stubSelector{selection: oracle.Selection{Index: oracle.NoMatchIndex}}
	second := &stubSelector{selection: oracle.Selection{Index: oracle.NoMatchIndex}}

	newTestPipeline(first).Run(context.Background(), []byte(threeExchangeArchive), "x")
	newTestPipeline(second).Run(context.Background(), []byte(threeExchangeArchive), "x")

	if len(first.lastCands) != len(second.lastCands) {
		t.Fatalf("candidate counts differ: %d vs %d", len(first.lastCands), len(second.lastCands))
	}
	for i := range first.lastCands {
		if first.lastCands[i].URL != second.lastCands[i].URL {
			t.Errorf("candidate %d differs: %q vs %q", i, first.lastCands[i].URL, second.lastCands[i].URL)
		}
	}
}
