package har

import "strings"

// maxResponseBodyChars caps how much of a captured response body is retained
// per exchange. Anything past the cap is replaced with a truncation marker.
const maxResponseBodyChars = 1000

// HeaderField is a single header line with the captured name casing preserved.
type HeaderField struct {
	Name  string
	Value string
}

// Exchange is one captured request/response pair from an archive. It is
// immutable after parsing; every downstream stage works on views of it.
type Exchange struct {
	// Index is the position of the entry in the archive, used as a stable
	// tie-breaker everywhere ordering matters.
	Index int

	Method   string
	URL      string
	Header   []HeaderField
	Body     string
	BodyType string

	Status     int
	RespHeader []HeaderField
	RespType   string
	RespBody   string
	RespSize   int64
}

// HeaderValue returns the first request header value whose name matches
// case-insensitively, or "".
func (e *Exchange) HeaderValue(name string) string {
	for _, h := range e.Header {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// QueryParams returns the raw query string split into key/value pairs,
// preserving the order they appear in the URL.
func (e *Exchange) QueryParams() []HeaderField {
	i := strings.IndexByte(e.URL, '?')
	if i < 0 || i == len(e.URL)-1 {
		return nil
	}
	var out []HeaderField
	for _, pair := range strings.Split(e.URL[i+1:], "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		out = append(out, HeaderField{Name: k, Value: v})
	}
	return out
}
