package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/lydakis/sitectl/internal/httpheaders"
	"github.com/lydakis/sitectl/internal/response"
	"go.uber.org/zap"
)

// UploadField is the form field name file uploads are sent under.
const UploadField = "file"

// File is an upload source.
type File struct {
	Name   string
	Reader io.Reader
}

// UploadFile POSTs file as multipart/form-data and reports progress through
// the WithProgress callback as the body is written to the connection. The
// reply is parsed as JSON when possible and returned as text otherwise.
// Non-2xx statuses and transport failures return *UploadError.
func (c *Client) UploadFile(ctx context.Context, path string, file File, opts ...RequestOption) (*response.Result, error) {
	base, headers := c.snapshot()
	rc := newRequestConfig(headers, opts)
	target := joinURL(base, path)

	if file.Reader == nil {
		return nil, &UploadError{Err: fmt.Errorf("no file to upload")}
	}
	data, contentType, err := NewForm().AddFile(UploadField, file.Name, file.Reader).encode()
	if err != nil {
		return nil, &UploadError{Err: err}
	}

	body := &progressReader{r: bytes.NewReader(data), total: int64(len(data)), fn: rc.onProgress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, &UploadError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.ContentLength = int64(len(data))

	httpheaders.Delete(rc.headers, HeaderContentType)
	httpheaders.Set(rc.headers, HeaderContentType, contentType)
	requestID := ensureRequestID(rc.headers)
	httpheaders.Apply(req.Header, rc.headers)

	resp, err := c.http.Do(req)
	body.stop()
	if err != nil {
		c.logger.Error("upload failed",
			zap.String("url", target),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, &UploadError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UploadError{Err: fmt.Errorf("reading response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("upload returned error status",
			zap.String("url", target),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode))
		return nil, &UploadError{StatusCode: resp.StatusCode}
	}
	return response.Sniff(resp.Header.Get(HeaderContentType), reply), nil
}

// progressReader counts bytes as the transport consumes the body.
type progressReader struct {
	r       io.Reader
	total   int64
	sent    int64
	fn      ProgressFunc
	stopped atomic.Bool
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.fn != nil && p.total > 0 && !p.stopped.Load() {
		p.sent += int64(n)
		p.fn(float64(p.sent) / float64(p.total) * 100)
	}
	return n, err
}

func (p *progressReader) stop() {
	p.stopped.Store(true)
}
