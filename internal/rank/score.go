package rank

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"harcurl/internal/har"
)

// Scored wraps an exchange with its priority score and the reasons that
// produced it. Reasons exist for debugging only and never leave the process.
type Scored struct {
	Exchange *har.Exchange
	Score    int
	Reasons  []string
}

// Score assigns a priority to one exchange. The result depends only on the
// exchange's own fields, so identical archives always rank identically.
func Score(ex *har.Exchange) Scored {
	s := Scored{Exchange: ex}
	add := func(points int, reason string) {
		s.Score += points
		s.Reasons = append(s.Reasons, fmt.Sprintf("%+d %s", points, reason))
	}

	ct := strings.ToLower(ex.RespType)
	if strings.Contains(ct, "json") || strings.Contains(ct, "xml") {
		add(10, "structured response content type")
	}

	switch {
	case ex.Status >= 200 && ex.Status < 300:
		add(5, "2xx status")
	case ex.Status >= 400:
		add(-3, "error status")
	}

	if hasAPIPathToken(ex.URL) {
		add(8, "api-like url path")
	}

	switch ex.Method {
	case "POST", "PUT", "PATCH", "DELETE":
		add(2, "mutating method")
	}

	if len(ex.Body) > 2 || len(ex.RespBody) > 2 {
		add(3, "non-trivial body")
	}

	if ex.RespSize > 100 && ex.RespSize < 10000 {
		add(3, "meaningful response size")
	}

	return s
}

// Rank scores the surviving exchanges, sorts them by descending score with
// capture order breaking ties, and keeps at most topN. The bound only caps
// oracle cost; lower-ranked exchanges are not invalid.
func Rank(exchanges []*har.Exchange, topN int) []Scored {
	scored := make([]Scored, 0, len(exchanges))
	for _, ex := range exchanges {
		scored = append(scored, Score(ex))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Exchange.Index < scored[j].Exchange.Index
	})

	if topN > 0 && len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}

func hasAPIPathToken(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, seg := range strings.Split(strings.ToLower(u.Path), "/") {
		switch seg {
		case "api", "rest", "graphql":
			return true
		}
		if len(seg) >= 2 && seg[0] == 'v' && isDigits(seg[1:]) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
