package har

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// MalformedArchiveError reports an archive that could not be ingested at all:
// invalid JSON, a missing log/entries structure, or a size over the limit.
type MalformedArchiveError struct {
	Reason string
}

func (e *MalformedArchiveError) Error() string {
	return "malformed archive: " + e.Reason
}

// Wire structures for the HAR 1.2 format. Only the fields the pipeline needs
// are decoded; everything else in the archive is ignored.
type harFile struct {
	Log *harLog `json:"log"`
}

type harLog struct {
	Entries []harEntry `json:"entries"`
}

type harEntry struct {
	Request  harRequest  `json:"request"`
	Response harResponse `json:"response"`
}

type harRequest struct {
	Method   string      `json:"method"`
	URL      string      `json:"url"`
	Headers  []harHeader `json:"headers"`
	PostData *harPost    `json:"postData"`
}

type harPost struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

type harResponse struct {
	Status  int         `json:"status"`
	Headers []harHeader `json:"headers"`
	Content harContent  `json:"content"`
}

type harContent struct {
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

type harHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Parse decodes raw archive bytes into the ordered exchange sequence.
// Individual entries that cannot be used (no URL) are skipped; the whole
// parse fails only for structural problems or an oversized archive.
func Parse(data []byte, maxBytes int64) ([]Exchange, error) {
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, &MalformedArchiveError{
			Reason: fmt.Sprintf("archive is %d bytes, limit is %d", len(data), maxBytes),
		}
	}

	var file harFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &MalformedArchiveError{Reason: "invalid JSON: " + err.Error()}
	}
	if file.Log == nil || file.Log.Entries == nil {
		return nil, &MalformedArchiveError{Reason: "missing log.entries"}
	}

	exchanges := make([]Exchange, 0, len(file.Log.Entries))
	for i, entry := range file.Log.Entries {
		ex, ok := parseEntry(entry, i)
		if !ok {
			slog.Debug("skipping unusable archive entry", "index", i)
			continue
		}
		exchanges = append(exchanges, ex)
	}

	slog.Info("parsed archive",
		"total_entries", len(file.Log.Entries),
		"usable_exchanges", len(exchanges),
	)
	return exchanges, nil
}

func parseEntry(entry harEntry, index int) (Exchange, bool) {
	if entry.Request.URL == "" {
		return Exchange{}, false
	}

	method := entry.Request.Method
	if method == "" {
		method = "GET"
	}

	ex := Exchange{
		Index:      index,
		Method:     method,
		URL:        entry.Request.URL,
		Header:     convertHeaders(entry.Request.Headers),
		Status:     entry.Response.Status,
		RespHeader: convertHeaders(entry.Response.Headers),
		RespType:   entry.Response.Content.MimeType,
		RespSize:   entry.Response.Content.Size,
	}

	if entry.Request.PostData != nil {
		ex.Body = entry.Request.PostData.Text
		ex.BodyType = entry.Request.PostData.MimeType
	}

	body := entry.Response.Content.Text
	if len(body) > maxResponseBodyChars {
		body = body[:maxResponseBodyChars] + "..."
	}
	ex.RespBody = body

	return ex, true
}

func convertHeaders(headers []harHeader) []HeaderField {
	var out []HeaderField
	for _, h := range headers {
		if h.Name == "" {
			continue
		}
		out = append(out, HeaderField{Name: h.Name, Value: h.Value})
	}
	return out
}
