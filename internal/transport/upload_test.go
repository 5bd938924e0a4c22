package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadFileReportsProgressAndParsesJSON(t *testing.T) {
	srv, rec := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, `{"url":"/avatars/1.png"}`)
	})
	c := New(srv.URL)

	var progress []float64
	payload := bytes.Repeat([]byte("a"), 256<<10)
	res, err := c.UploadFile(context.Background(), "/api/user/avatar",
		File{Name: "me.png", Reader: bytes.NewReader(payload)},
		WithProgress(func(p float64) { progress = append(progress, p) }))
	require.NoError(t, err)

	assert.True(t, res.JSON, "upload replies are parsed when they look like JSON")
	obj, ok := res.Object()
	require.True(t, ok)
	assert.Equal(t, "/avatars/1.png", obj["url"])

	require.NotEmpty(t, progress)
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}
	assert.InDelta(t, 100.0, progress[len(progress)-1], 0.0001)

	got := rec.last(t)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.True(t, strings.HasPrefix(got.Header.Get("Content-Type"), "multipart/form-data; boundary="))
}

func TestUploadFileReturnsTextWhenNotJSON(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "stored")
	})
	c := New(srv.URL)

	res, err := c.UploadFile(context.Background(), "/api/user/avatar", File{Name: "a.txt", Reader: strings.NewReader("x")})
	require.NoError(t, err)
	assert.False(t, res.JSON)
	assert.Equal(t, "stored", res.Value)
}

func TestUploadFileNonSuccessStatus(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	})
	c := New(srv.URL)

	_, err := c.UploadFile(context.Background(), "/api/user/avatar", File{Name: "a.bin", Reader: strings.NewReader("x")})
	require.Error(t, err)

	var uploadErr *UploadError
	require.True(t, errors.As(err, &uploadErr))
	assert.Equal(t, http.StatusRequestEntityTooLarge, uploadErr.StatusCode)
	assert.Equal(t, "upload failed: 413", err.Error())
}

func TestUploadFileTransportFailure(t *testing.T) {
	c := New("http://127.0.0.1:1")

	_, err := c.UploadFile(context.Background(), "/api/user/avatar", File{Name: "a.bin", Reader: strings.NewReader("x")})
	require.Error(t, err)

	var uploadErr *UploadError
	require.True(t, errors.As(err, &uploadErr))
	assert.Zero(t, uploadErr.StatusCode)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestUploadFileRequiresReader(t *testing.T) {
	c := New("http://127.0.0.1:1")
	_, err := c.UploadFile(context.Background(), "/api/user/avatar", File{Name: "empty"})
	require.Error(t, err)
}
