package transport

import "github.com/lydakis/sitectl/internal/httpheaders"

// ProgressFunc receives upload progress as a percentage in [0, 100].
type ProgressFunc func(percent float64)

type requestConfig struct {
	headers    map[string]string
	onProgress ProgressFunc
}

// RequestOption adjusts a single call.
type RequestOption func(*requestConfig)

// WithHeader overrides one header for this call.
func WithHeader(name, value string) RequestOption {
	return func(rc *requestConfig) {
		rc.headers = httpheaders.Set(rc.headers, name, value)
	}
}

// WithHeaders overrides several headers for this call.
func WithHeaders(headers map[string]string) RequestOption {
	return func(rc *requestConfig) {
		rc.headers = httpheaders.Merge(rc.headers, headers, true)
	}
}

// WithProgress registers an upload progress callback. It is ignored by
// calls other than UploadFile.
func WithProgress(fn ProgressFunc) RequestOption {
	return func(rc *requestConfig) {
		rc.onProgress = fn
	}
}

func newRequestConfig(defaults map[string]string, opts []RequestOption) *requestConfig {
	rc := &requestConfig{headers: defaults}
	if rc.headers == nil {
		rc.headers = make(map[string]string)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(rc)
		}
	}
	return rc
}
