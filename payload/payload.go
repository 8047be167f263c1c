// Package payload turns inbound request bodies into one canonical shape.
//
// Bodies reach the API in several encodings depending on the client and the
// hosting layer in front of it: a JSON object, JSON text (sometimes encoded
// twice), URL-encoded form text, or the raw bytes of UTF-8 JSON serialized as
// a byte array or base64. Every entry point here runs the same ordered chain:
//
//  1. an already structured object with a recognized key is used as is
//  2. JSON text
//  3. form-encoded text, with repeated keys (a=1&a=2) or bracketed keys (a[]=1)
//  4. raw bytes (byte arrays, Buffer objects, base64) decoded as UTF-8 JSON
//
// When every attempt fails the result is empty and the caller reports a
// validation error.
package payload

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rpupo63/portfolio-projects-backend/errs"
	"github.com/rpupo63/portfolio-projects-backend/models"
)

const maxDepth = 4

// DefaultLimit bounds the size of a JSON or form body.
const DefaultLimit int64 = 1 << 20

// Read drains the request body, refusing bodies larger than limit bytes.
func Read(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errs.NewMaxBodySizeExceededError(maxErr.Limit)
		}
		return nil, errs.NewMalformedPayloadError("request", err)
	}
	return body, nil
}

// Object resolves raw into a JSON-like object. Form text is only accepted when
// it carries at least one of keys (case-insensitive, "[]" suffix ignored).
// The result is nil when nothing could be decoded.
func Object(raw any, keys ...string) map[string]any {
	s := shape{keys: keys}
	obj, _ := s.resolve(raw, 0).(map[string]any)
	return obj
}

// Record resolves raw into a project record keyed by public field names.
// Keys that are not project fields are kept untouched.
func Record(raw any) map[string]any {
	obj := Object(raw, projectKeys()...)
	if obj == nil {
		return nil
	}

	record := make(map[string]any, len(obj))
	for key, value := range obj {
		if field, ok := models.CanonicalField(key); ok {
			record[field] = value
			continue
		}
		record[key] = value
	}
	return record
}

// Titles resolves raw into the de-duplicated list of project titles sent to
// the featured endpoint. It accepts {"titles": [...]}, a bare array, and the
// form encodings titles=A&titles=B or titles[]=A&titles[]=B.
func Titles(raw any) []string {
	s := shape{keys: []string{"titles", "title"}}

	var found any
	switch v := s.resolve(raw, 0).(type) {
	case []any:
		found = v
	case map[string]any:
		found = lookup(v, "titles")
		if found == nil {
			found = lookup(v, "title")
		}
	}
	return uniqueStrings(toStrings(found, 0))
}

type shape struct {
	keys []string
}

func (s shape) recognizes(key string) bool {
	key = strings.TrimSuffix(strings.TrimSpace(key), "[]")
	for _, k := range s.keys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

func (s shape) resolve(raw any, depth int) any {
	if depth > maxDepth {
		return nil
	}

	switch v := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		return s.resolveObject(v, depth)
	case url.Values:
		if obj, ok := s.fromForm(v); ok {
			return obj
		}
		return nil
	case []any:
		if b, ok := byteArray(v); ok {
			return s.resolve(b, depth+1)
		}
		return v
	case json.RawMessage:
		return s.resolveText(string(v), depth)
	case []byte:
		return s.resolveText(string(v), depth)
	case string:
		return s.resolveText(v, depth)
	}
	return nil
}

func (s shape) resolveObject(obj map[string]any, depth int) any {
	for key := range obj {
		if s.recognizes(key) {
			return obj
		}
	}

	// {"type":"Buffer","data":[...]} and {"0":123,"1":34,...} carry raw bytes
	if b, ok := bufferBytes(obj); ok {
		return s.resolve(b, depth+1)
	}

	// A body parsed by a form decoder when it was really JSON ends up as a
	// single key holding the whole document.
	if len(obj) == 1 {
		for key, value := range obj {
			if str, ok := value.(string); value == nil || (ok && str == "") {
				if resolved, ok := s.resolve(key, depth+1).(map[string]any); ok {
					return resolved
				}
			}
		}
	}

	return obj
}

func (s shape) resolveText(text string, depth int) any {
	text = strings.TrimSpace(strings.TrimPrefix(text, "\ufeff"))
	if text == "" {
		return nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err == nil {
		switch d := decoded.(type) {
		case string:
			return s.resolve(d, depth+1)
		case map[string]any, []any:
			return s.resolve(d, depth+1)
		}
	}

	if values, err := url.ParseQuery(text); err == nil {
		if obj, ok := s.fromForm(values); ok {
			return obj
		}
	}

	if b, ok := decodeBase64(text); ok {
		return s.resolve(b, depth+1)
	}
	return nil
}

func (s shape) fromForm(values url.Values) (map[string]any, bool) {
	obj := make(map[string]any, len(values))
	recognized := false

	for key, vals := range values {
		if s.recognizes(key) {
			recognized = true
		}

		name := key
		bracketed := strings.HasSuffix(key, "[]")
		if bracketed {
			name = strings.TrimSuffix(key, "[]")
		}

		if bracketed || len(vals) > 1 {
			list := make([]any, 0, len(vals))
			if existing, ok := obj[name].([]any); ok {
				list = existing
			}
			for _, v := range vals {
				list = append(list, v)
			}
			obj[name] = list
			continue
		}
		if _, exists := obj[name]; !exists && len(vals) == 1 {
			obj[name] = vals[0]
		}
	}

	if !recognized {
		return nil, false
	}
	return obj, true
}

// byteArray reports whether list looks like the JSON serialization of a byte
// slice holding UTF-8 text.
func byteArray(list []any) ([]byte, bool) {
	if len(list) == 0 {
		return nil, false
	}

	b := make([]byte, len(list))
	for i, item := range list {
		n, ok := item.(float64)
		if !ok || n < 0 || n > 255 || n != float64(int(n)) {
			return nil, false
		}
		b[i] = byte(n)
	}
	if !utf8.Valid(b) {
		return nil, false
	}
	return b, true
}

func bufferBytes(obj map[string]any) ([]byte, bool) {
	if t, _ := obj["type"].(string); t == "Buffer" {
		if data, ok := obj["data"].([]any); ok {
			return byteArray(data)
		}
	}

	if len(obj) == 0 {
		return nil, false
	}
	list := make([]any, len(obj))
	for key, value := range obj {
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(obj) {
			return nil, false
		}
		list[i] = value
	}
	return byteArray(list)
}

func decodeBase64(text string) ([]byte, bool) {
	if strings.ContainsAny(text, " \t\r\n{}[]&") {
		return nil, false
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(text); err == nil && len(b) > 0 && utf8.Valid(b) {
			return b, true
		}
	}
	return nil, false
}

func lookup(obj map[string]any, key string) any {
	for k, v := range obj {
		if strings.EqualFold(strings.TrimSuffix(k, "[]"), key) {
			return v
		}
	}
	return nil
}

func toStrings(v any, depth int) []string {
	if depth > maxDepth {
		return nil
	}

	switch t := v.(type) {
	case nil:
		return nil
	case string:
		trimmed := strings.TrimSpace(t)
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, `"`) {
			var decoded any
			if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
				return toStrings(decoded, depth+1)
			}
		}
		return []string{trimmed}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func projectKeys() []string {
	return []string{
		models.FieldTitle,
		models.FieldCategory,
		models.FieldImage,
		models.FieldAlt,
		models.FieldDashboardURL,
		models.FieldCodeURL,
		models.FieldDescription,
		models.FieldTech,
		models.FieldFeatured,
	}
}
