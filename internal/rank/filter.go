package rank

import (
	"net/url"
	"path"
	"strings"

	"harcurl/internal/har"
)

// staticExtensions are URL path suffixes that identify static assets
// regardless of what content type the server declared.
var staticExtensions = map[string]bool{
	".css": true, ".js": true, ".mjs": true, ".map": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".ico": true, ".webp": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
}

// Filter drops exchanges that are almost certainly not API calls: static
// assets by content type or path extension, bodyless 304s, and failed
// statuses. The status rule is suspended when it would leave nothing, so the
// result is empty only when the archive contains nothing but static assets.
func Filter(exchanges []har.Exchange, excludeMimePrefixes []string) []*har.Exchange {
	var kept, failed []*har.Exchange
	for i := range exchanges {
		ex := &exchanges[i]
		if isStaticAsset(ex, excludeMimePrefixes) {
			continue
		}
		if ex.Status == 304 && ex.RespBody == "" {
			continue
		}
		if ex.Status >= 200 && ex.Status < 400 {
			kept = append(kept, ex)
		} else {
			failed = append(failed, ex)
		}
	}
	if len(kept) == 0 {
		return failed
	}
	return kept
}

func isStaticAsset(ex *har.Exchange, excludeMimePrefixes []string) bool {
	ct := strings.ToLower(ex.RespType)
	for _, prefix := range excludeMimePrefixes {
		if strings.HasPrefix(ct, strings.ToLower(prefix)) {
			return true
		}
	}

	u, err := url.Parse(ex.URL)
	if err != nil {
		return false
	}
	return staticExtensions[strings.ToLower(path.Ext(u.Path))]
}
