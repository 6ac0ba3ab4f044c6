package rank

import (
	"reflect"
	"testing"

	"harcurl/internal/har"
)

var excludePrefixes = []string{
	"text/html", "text/css", "application/javascript", "text/javascript",
	"image/", "font/", "audio/", "video/",
}

func apiExchange(index int, method string, status int) har.Exchange {
	return har.Exchange{
		Index:    index,
		Method:   method,
		URL:      "https://example.com/api/v1/things",
		Status:   status,
		RespType: "application/json",
		RespBody: `{"ok":true}`,
	}
}

// TestFilterDropsStaticAssets verifies stylesheet/script/image exchanges are
// removed by content type and by path extension.
func TestFilterDropsStaticAssets(t *testing.T) {
	exchanges := []har.Exchange{
		{Index: 0, URL: "https://example.com/style.css", Status: 200, RespType: "text/css"},
		{Index: 1, URL: "https://example.com/app", Status: 200, RespType: "application/javascript"},
		{Index: 2, URL: "https://example.com/logo.png", Status: 200},
		apiExchange(3, "GET", 200),
	}
	kept := Filter(exchanges, excludePrefixes)
	if len(kept) != 1 {
		t.Fatalf("expected 1 survivor, got %d", len(kept))
	}
	if kept[0].Index != 3 {
		t.Errorf("survivor index: got %d, want 3", kept[0].Index)
	}
}

// TestFilterNeverEmptyWithFailedCalls verifies the status rule is suspended
// rather than filtering down to zero when only failed calls remain.
func TestFilterNeverEmptyWithFailedCalls(t *testing.T) {
	exchanges := []har.Exchange{
		apiExchange(0, "GET", 500),
		apiExchange(1, "POST", 403),
	}
	kept := Filter(exchanges, excludePrefixes)
	if len(kept) != 2 {
		t.Fatalf("expected fallback to keep failed calls, got %d", len(kept))
	}
}

// TestFilterEmptyForStaticOnlyArchive verifies an archive of nothing but
// static assets filters to zero.
func TestFilterEmptyForStaticOnlyArchive(t *testing.T) {
	exchanges := []har.Exchange{
		{Index: 0, URL: "https://example.com/a.css", Status: 200, RespType: "text/css"},
		{Index: 1, URL: "https://example.com/b.js", Status: 200, RespType: "text/javascript"},
	}
	if kept := Filter(exchanges, excludePrefixes); len(kept) != 0 {
		t.Errorf("expected no survivors, got %d", len(kept))
	}
}

// TestFilterDropsBodylessNotModified verifies cached 304s with no body go.
func TestFilterDropsBodylessNotModified(t *testing.T) {
	exchanges := []har.Exchange{
		{Index: 0, URL: "https://example.com/api/data", Status: 304},
		apiExchange(1, "GET", 200),
	}
	kept := Filter(exchanges, excludePrefixes)
	if len(kept) != 1 || kept[0].Index != 1 {
		t.Fatalf("expected only the 200 to survive, got %d", len(kept))
	}
}

// TestScoreWeights verifies the relative ordering the heuristics produce: a
// JSON POST on an api path outranks a plain GET, which outranks an error.
func TestScoreWeights(t *testing.T) {
	post := apiExchange(0, "POST", 200)
	post.Body = `{"user":"a"}`
	get := har.Exchange{Index: 1, Method: "GET", URL: "https://example.com/data", Status: 200}
	failed := har.Exchange{Index: 2, Method: "GET", URL: "https://example.com/data", Status: 500}

	sPost, sGet, sFailed := Score(&post).Score, Score(&get).Score, Score(&failed).Score
	if sPost <= sGet {
		t.Errorf("POST api call (%d) should outrank plain GET (%d)", sPost, sGet)
	}
	if sGet <= sFailed {
		t.Errorf("2xx GET (%d) should outrank failed call (%d)", sGet, sFailed)
	}
}

// TestScoreIsPure verifies scoring the same exchange twice gives the same
// score and reasons.
func TestScoreIsPure(t *testing.T) {
	ex := apiExchange(0, "POST", 200)
	a, b := Score(&ex), Score(&ex)
	if a.Score != b.Score || !reflect.DeepEqual(a.Reasons, b.Reasons) {
		t.Errorf("score not deterministic: %+v vs %+v", a, b)
	}
}

// TestRankDeterministicOrdering verifies the same input always ranks
// identically, with capture order breaking ties.
func TestRankDeterministicOrdering(t *testing.T) {
	exchanges := []har.Exchange{
		apiExchange(0, "GET", 200),
		apiExchange(1, "GET", 200), // identical score to index 0
		apiExchange(2, "POST", 200),
	}
	ptrs := func() []*har.Exchange {
		out := make([]*har.Exchange, len(exchanges))
		for i := range exchanges {
			out[i] = &exchanges[i]
		}
		return out
	}

	first := Rank(ptrs(), 0)
	second := Rank(ptrs(), 0)
	for i := range first {
		if first[i].Exchange.Index != second[i].Exchange.Index {
			t.Fatalf("ordering differs at %d: %d vs %d", i, first[i].Exchange.Index, second[i].Exchange.Index)
		}
	}
	if first[0].Exchange.Index != 2 {
		t.Errorf("POST should rank first, got index %d", first[0].Exchange.Index)
	}
	// Tie between 0 and 1 resolves to the earlier capture.
	if first[1].Exchange.Index != 0 {
		t.Errorf("tie should break by capture order, got index %d", first[1].Exchange.Index)
	}
}

// TestRankTruncatesToTopN verifies the candidate cap.
func TestRankTruncatesToTopN(t *testing.T) {
	var ptrs []*har.Exchange
	exchanges := make([]har.Exchange, 10)
	for i := range exchanges {
		exchanges[i] = apiExchange(i, "GET", 200)
		ptrs = append(ptrs, &exchanges[i])
	}
	if got := len(Rank(ptrs, 3)); got != 3 {
		t.Errorf("expected 3 ranked exchanges, got %d", got)
	}
}

// TestHasAPIPathToken verifies versioned segments count but lookalike words
// in the host do not.
func TestHasAPIPathToken(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://example.com/api/users", true},
		{"https://example.com/v2/users", true},
		{"https://example.com/graphql", true},
		{"https://example.com/vendors/list", false},
		{"https://api.example.com/users", false},
	}
	for _, c := range cases {
		if got := hasAPIPathToken(c.url); got != c.want {
			t.Errorf("hasAPIPathToken(%q): got %v, want %v", c.url, got, c.want)
		}
	}
}
