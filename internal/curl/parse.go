package curl

import (
	"fmt"
	"strings"

	"harcurl/internal/har"
)

// Request is a curl command parsed back into its transport parts.
type Request struct {
	Method  string
	URL     string
	Headers []har.HeaderField
	Body    string
}

// flags that take no argument and are safe to ignore during replay.
var ignoredFlags = map[string]bool{
	"-s": true, "--silent": true,
	"-k": true, "--insecure": true,
	"-L": true, "--location": true,
	"-v": true, "--verbose": true,
	"--compressed": true,
}

// ParseCommand parses a curl command string, covering at least the flag set
// the synthesizer emits. Unknown flags and a missing URL are reported as
// errors rather than guessed around.
func ParseCommand(command string) (*Request, error) {
	words, err := splitWords(command)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	if words[0] == "curl" {
		words = words[1:]
	}

	req := &Request{}
	hasData := false

	for i := 0; i < len(words); i++ {
		w := words[i]
		switch {
		case w == "-X" || w == "--request":
			arg, err := flagArg(words, &i, w)
			if err != nil {
				return nil, err
			}
			req.Method = strings.ToUpper(arg)

		case w == "-H" || w == "--header":
			arg, err := flagArg(words, &i, w)
			if err != nil {
				return nil, err
			}
			name, value, ok := strings.Cut(arg, ":")
			if !ok {
				return nil, fmt.Errorf("malformed header %q", arg)
			}
			req.Headers = append(req.Headers, har.HeaderField{
				Name:  strings.TrimSpace(name),
				Value: strings.TrimSpace(value),
			})

		case w == "-d" || w == "--data" || w == "--data-raw" || w == "--data-binary":
			arg, err := flagArg(words, &i, w)
			if err != nil {
				return nil, err
			}
			req.Body = arg
			hasData = true

		case w == "--url":
			arg, err := flagArg(words, &i, w)
			if err != nil {
				return nil, err
			}
			req.URL = arg

		case ignoredFlags[w]:
			// no-op

		case strings.HasPrefix(w, "-"):
			return nil, fmt.Errorf("unsupported flag %q", w)

		default:
			if req.URL != "" {
				return nil, fmt.Errorf("unexpected argument %q (URL already set to %q)", w, req.URL)
			}
			req.URL = w
		}
	}

	if req.URL == "" {
		return nil, fmt.Errorf("no URL found in command")
	}
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		return nil, fmt.Errorf("URL %q must be http or https", req.URL)
	}
	if req.Method == "" {
		if hasData {
			req.Method = "POST"
		} else {
			req.Method = "GET"
		}
	}
	return req, nil
}

func flagArg(words []string, i *int, flag string) (string, error) {
	*i++
	if *i >= len(words) {
		return "", fmt.Errorf("flag %s is missing its argument", flag)
	}
	return words[*i], nil
}

// splitWords tokenizes a shell-style command line: single quotes are literal,
// double quotes allow backslash escapes, a backslash before a newline is a
// line continuation.
func splitWords(s string) ([]string, error) {
	var words []string
	var cur strings.Builder
	inWord := false

	flush := func() {
		if inWord {
			words = append(words, cur.String())
			cur.Reset()
			inWord = false
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case ' ', '\t', '\n', '\r':
			flush()

		case '\\':
			if i+1 >= len(s) {
				return nil, fmt.Errorf("trailing backslash")
			}
			next := s[i+1]
			if next == '\n' || next == '\r' {
				// line continuation
				i++
				if next == '\r' && i+1 < len(s) && s[i+1] == '\n' {
					i++
				}
				continue
			}
			cur.WriteByte(next)
			inWord = true
			i++

		case '\'':
			end := strings.IndexByte(s[i+1:], '\'')
			if end < 0 {
				return nil, fmt.Errorf("unterminated single quote")
			}
			cur.WriteString(s[i+1 : i+1+end])
			inWord = true
			i += end + 1

		case '"':
			i++
			closed := false
			for i < len(s) {
				if s[i] == '\\' && i+1 < len(s) {
					cur.WriteByte(s[i+1])
					i += 2
					continue
				}
				if s[i] == '"' {
					closed = true
					break
				}
				cur.WriteByte(s[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated double quote")
			}
			inWord = true

		default:
			cur.WriteByte(c)
			inWord = true
		}
	}
	flush()
	return words, nil
}
