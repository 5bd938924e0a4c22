package transport

import (
	"errors"
	"fmt"
)

// StatusError reports a response with a non-2xx status code.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http error: status %d", e.StatusCode)
}

// UploadError reports a failed upload. StatusCode is zero when the request
// never produced a response.
type UploadError struct {
	StatusCode int
	Err        error
}

func (e *UploadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upload failed: %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("upload failed: %v", e.Err)
	}
	return "upload failed"
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	var uploadErr *UploadError
	if errors.As(err, &uploadErr) && uploadErr.StatusCode != 0 {
		return uploadErr.StatusCode, true
	}
	return 0, false
}
