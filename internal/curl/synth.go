// Package curl renders selected exchanges as copy-pasteable curl commands
// with credentials masked, and parses such commands back for live replay.
package curl

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"harcurl/internal/har"
)

// maskedMarker fully replaces short credential values; longer values keep
// their first and last four characters around an ellipsis.
const maskedMarker = "***MASKED***"

// hopByHopHeaders are dropped during rendering because curl recomputes them.
var hopByHopHeaders = map[string]bool{
	"content-length":     true,
	"connection":         true,
	"transfer-encoding":  true,
	"keep-alive":         true,
	"host":               true,
	"accept-encoding":    true,
	"upgrade":            true,
	"proxy-authenticate": true,
	"proxy-connection":   true,
	"te":                 true,
	"trailer":            true,
}

// Command is the rendered, stateless artifact of a pipeline run. Header
// values are already masked; the unmasked originals stay on the source
// exchange and never enter this value.
type Command struct {
	Method  string
	URL     string
	Headers []har.HeaderField
	Body    string
	Text    string
}

// Synthesize renders an exchange as a multi-line curl command. sensitiveNames
// is matched case-insensitively as substrings of header names.
func Synthesize(ex *har.Exchange, sensitiveNames []string) Command {
	cmd := Command{Method: ex.Method, URL: ex.URL}

	parts := []string{"curl"}
	if ex.Method != "GET" {
		parts = append(parts, "-X "+ex.Method)
	}

	for _, h := range ex.Header {
		name := strings.TrimSpace(h.Name)
		value := strings.TrimSpace(h.Value)
		if name == "" || value == "" {
			continue
		}
		if hopByHopHeaders[strings.ToLower(name)] {
			continue
		}
		if isSensitiveHeader(name, sensitiveNames) {
			value = maskValue(value)
		}
		cmd.Headers = append(cmd.Headers, har.HeaderField{Name: name, Value: value})
		parts = append(parts, `-H "`+name+": "+strings.ReplaceAll(value, `"`, `\"`)+`"`)
	}

	if ex.Body != "" && mutatingMethod(ex.Method) {
		body := ex.Body
		if gjson.Valid(body) {
			body = string(pretty.Ugly([]byte(body)))
		}
		cmd.Body = body
		parts = append(parts, "--data '"+escapeSingleQuotes(body)+"'")
	}

	parts = append(parts, "'"+ex.URL+"'")
	cmd.Text = strings.Join(parts, " \\\n  ")
	return cmd
}

func isSensitiveHeader(name string, sensitiveNames []string) bool {
	lower := strings.ToLower(name)
	for _, s := range sensitiveNames {
		if s != "" && strings.Contains(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func maskValue(value string) string {
	if len(value) <= 8 {
		return maskedMarker
	}
	return value[:4] + "..." + value[len(value)-4:]
}

func mutatingMethod(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}

// escapeSingleQuotes makes a string safe inside a single-quoted shell word.
func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `'"'"'`)
}
