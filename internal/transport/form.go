package transport

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// Form is a multipart/form-data body. Passing a *Form as a payload sends it
// unmodified with its own boundary header.
//
// File parts are read when the form is encoded, so a Form holding streamed
// readers can be sent once.
type Form struct {
	parts []formPart
}

type formPart struct {
	name     string
	value    string
	filename string
	reader   io.Reader
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{}
}

// AddField appends a plain text field.
func (f *Form) AddField(name, value string) *Form {
	f.parts = append(f.parts, formPart{name: name, value: value})
	return f
}

// AddFile appends a file part read from r.
func (f *Form) AddFile(name, filename string, r io.Reader) *Form {
	f.parts = append(f.parts, formPart{name: name, filename: filename, reader: r})
	return f
}

// Len returns the number of parts.
func (f *Form) Len() int {
	return len(f.parts)
}

func (f *Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, part := range f.parts {
		if part.reader == nil {
			if err := w.WriteField(part.name, part.value); err != nil {
				return nil, "", fmt.Errorf("writing form field %q: %w", part.name, err)
			}
			continue
		}
		fw, err := w.CreateFormFile(part.name, part.filename)
		if err != nil {
			return nil, "", fmt.Errorf("creating form file %q: %w", part.name, err)
		}
		if _, err := io.Copy(fw, part.reader); err != nil {
			return nil, "", fmt.Errorf("reading form file %q: %w", part.filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
