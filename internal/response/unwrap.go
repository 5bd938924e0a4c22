package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"strings"
)

// Result is a decoded response body.
// Value holds the parsed JSON document when JSON is true, and the raw text otherwise.
type Result struct {
	ContentType string
	Body        []byte
	JSON        bool
	Value       any
}

// Unwrap decodes body according to its declared content type.
// JSON content types are parsed; everything else is kept as raw text.
func Unwrap(contentType string, body []byte) (*Result, error) {
	res := &Result{ContentType: contentType, Body: body}
	if !IsJSONContentType(contentType) {
		res.Value = string(body)
		return res, nil
	}

	value, err := decodeJSON(body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", contentType, err)
	}
	res.JSON = true
	res.Value = value
	return res, nil
}

// Sniff decodes body as JSON when it parses and as text otherwise.
// Upload responses are handled this way regardless of content type.
func Sniff(contentType string, body []byte) *Result {
	res := &Result{ContentType: contentType, Body: body}
	if value, err := decodeJSON(body); err == nil {
		res.JSON = true
		res.Value = value
		return res
	}
	res.Value = string(body)
	return res
}

// IsJSONContentType reports whether a Content-Type header declares JSON,
// including structured suffixes such as application/problem+json.
func IsJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// Text returns the body as a string.
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// Object returns the parsed value as a JSON object, if it is one.
func (r *Result) Object() (map[string]any, bool) {
	if r == nil || !r.JSON {
		return nil, false
	}
	obj, ok := r.Value.(map[string]any)
	return obj, ok
}

// Decode unmarshals the JSON body into v.
func (r *Result) Decode(v any) error {
	if r == nil {
		return fmt.Errorf("decoding response: empty result")
	}
	if !r.JSON {
		return fmt.Errorf("decoding response: content type %q is not JSON", r.ContentType)
	}
	return json.Unmarshal(r.Body, v)
}

// Render formats a result for terminal output: indented JSON for JSON
// results, raw text otherwise, always newline-terminated.
func Render(r *Result) []byte {
	if r == nil {
		return nil
	}
	if r.JSON {
		var out bytes.Buffer
		if err := json.Indent(&out, bytes.TrimSpace(r.Body), "", "  "); err == nil {
			return ensureTrailingNewline(out.Bytes())
		}
	}
	return ensureTrailingNewline(append([]byte(nil), r.Body...))
}

func decodeJSON(body []byte) (any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil, err
	}
	return value, nil
}

func ensureTrailingNewline(out []byte) []byte {
	if len(out) == 0 {
		return out
	}
	if out[len(out)-1] != '\n' {
		return append(out, '\n')
	}
	return out
}
