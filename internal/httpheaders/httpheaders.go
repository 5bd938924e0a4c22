// Package httpheaders merges header maps with case-insensitive key matching.
// Config files and call sites spell header names freely, so "content-type"
// and "Content-Type" must name the same header.
package httpheaders

import (
	"net/http"
	"sort"
	"strings"
)

// Set writes a header value using case-insensitive key matching.
// If an equivalent key already exists with different casing, it is replaced.
func Set(headers map[string]string, name, value string) map[string]string {
	name = strings.TrimSpace(name)
	if name == "" {
		return headers
	}

	if headers == nil {
		headers = make(map[string]string, 1)
	}
	if existing, ok := lookupKeyFold(headers, name); ok && existing != name {
		delete(headers, existing)
	}
	headers[name] = value
	return headers
}

// Get returns the value stored under any casing of name.
func Get(headers map[string]string, name string) (string, bool) {
	key, ok := lookupKeyFold(headers, name)
	if !ok {
		return "", false
	}
	return headers[key], true
}

// Delete removes every casing of name from headers.
func Delete(headers map[string]string, name string) {
	for {
		key, ok := lookupKeyFold(headers, name)
		if !ok {
			return
		}
		delete(headers, key)
	}
}

// Merge applies src entries into dst using case-insensitive key matching.
// When overwrite is false, existing dst entries win.
// When overwrite is true, src entries replace existing keys even if the casing differs.
func Merge(dst map[string]string, src map[string]string, overwrite bool) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}

	for _, key := range sortedKeys(src) {
		name := strings.TrimSpace(key)
		if name == "" {
			continue
		}

		if existing, ok := lookupKeyFold(dst, name); ok {
			if !overwrite {
				continue
			}
			delete(dst, existing)
		}
		dst[name] = src[key]
	}
	return dst
}

// Clone returns a copy of headers that is safe to mutate.
func Clone(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = v
	}
	return out
}

// Apply copies headers onto an outgoing request header in a stable order.
func Apply(dst http.Header, headers map[string]string) {
	for _, key := range sortedKeys(headers) {
		name := strings.TrimSpace(key)
		if name == "" {
			continue
		}
		dst.Set(name, headers[key])
	}
}

func sortedKeys(src map[string]string) []string {
	keys := make([]string, 0, len(src))
	for key := range src {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		li := strings.ToLower(strings.TrimSpace(keys[i]))
		lj := strings.ToLower(strings.TrimSpace(keys[j]))
		if li == lj {
			return keys[i] < keys[j]
		}
		return li < lj
	})
	return keys
}

func lookupKeyFold(headers map[string]string, name string) (string, bool) {
	name = strings.TrimSpace(name)
	for key := range headers {
		if strings.EqualFold(strings.TrimSpace(key), name) {
			return key, true
		}
	}
	return "", false
}
