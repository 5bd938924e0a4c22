package transport

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type capturedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

type recorder struct {
	mu       sync.Mutex
	requests []capturedRequest
}

func (r *recorder) last(t *testing.T) capturedRequest {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.requests, "no request reached the server")
	return r.requests[len(r.requests)-1]
}

func newTestServer(t *testing.T, reply http.HandlerFunc) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		rec.mu.Lock()
		rec.requests = append(rec.requests, capturedRequest{
			Method: req.Method,
			Path:   req.URL.Path,
			Query:  req.URL.RawQuery,
			Header: req.Header.Clone(),
			Body:   body,
		})
		rec.mu.Unlock()
		if reply != nil {
			reply(w, req)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestBodyMethodsSendJSON(t *testing.T) {
	srv, rec := newTestServer(t, nil)
	c := New(srv.URL)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			_, err := c.Do(context.Background(), method, "/api/tools", map[string]any{"name": "X"})
			require.NoError(t, err)

			got := rec.last(t)
			assert.Equal(t, method, got.Method)
			assert.JSONEq(t, `{"name":"X"}`, string(got.Body))
			assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
			assert.Equal(t, "XMLHttpRequest", got.Header.Get("X-Requested-With"))
		})
	}
}

func TestFormPayloadDropsJSONContentType(t *testing.T) {
	srv, rec := newTestServer(t, nil)
	c := New(srv.URL)

	form := NewForm().
		AddField("title", "hello").
		AddFile("file", "a.txt", strings.NewReader("file-bytes"))
	_, err := c.Post(context.Background(), "/api/upload", form, WithHeader("content-type", "application/json"))
	require.NoError(t, err)

	got := rec.last(t)
	mediaType, params, err := mime.ParseMediaType(got.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)
	require.NotEmpty(t, params["boundary"])

	reader := multipart.NewReader(strings.NewReader(string(got.Body)), params["boundary"])
	mf, err := reader.ReadForm(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, mf.Value["title"])
	require.Len(t, mf.File["file"], 1)
	assert.Equal(t, "a.txt", mf.File["file"][0].Filename)
}

func TestGetEncodesPayloadAsQuery(t *testing.T) {
	srv, rec := newTestServer(t, nil)
	c := New(srv.URL)

	_, err := c.Get(context.Background(), "/api/tools", map[string]any{
		"category": "writing",
		"page":     float64(2),
		"free":     true,
		"skip":     nil,
	})
	require.NoError(t, err)

	got := rec.last(t)
	assert.Empty(t, got.Body)
	assert.Equal(t, "category=writing&free=true&page=2", got.Query)
}

func TestGetAppendsToExistingQuery(t *testing.T) {
	srv, rec := newTestServer(t, nil)
	c := New(srv.URL)

	_, err := c.Get(context.Background(), "/api/tools?sort=name", map[string]string{"q": "ai tools"})
	require.NoError(t, err)
	assert.Equal(t, "sort=name&q=ai+tools", rec.last(t).Query)
}

func TestGetAcceptsStructPayload(t *testing.T) {
	srv, rec := newTestServer(t, nil)
	c := New(srv.URL)

	type filters struct {
		Category string `json:"category,omitempty"`
		Tag      string `json:"tag,omitempty"`
	}
	_, err := c.Get(context.Background(), "/api/tools", filters{Category: "video"})
	require.NoError(t, err)
	assert.Equal(t, "category=video", rec.last(t).Query)
}

func TestGetRejectsNonObjectPayload(t *testing.T) {
	c := New("http://127.0.0.1:0")
	_, err := c.Get(context.Background(), "/api/tools", []int{1, 2})
	require.Error(t, err)
}

func TestDeleteNeverSendsBody(t *testing.T) {
	srv, rec := newTestServer(t, nil)
	c := New(srv.URL)

	_, err := c.Do(context.Background(), "delete", "/api/tools/7", map[string]any{"ignored": true})
	require.NoError(t, err)

	got := rec.last(t)
	assert.Equal(t, http.MethodDelete, got.Method)
	assert.Empty(t, got.Body)
	assert.Empty(t, got.Query)
}

func TestResponseDecodingFollowsContentType(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/json" {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = io.WriteString(w, `{"total":12}`)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, `{"total":12}`)
	})
	c := New(srv.URL)

	res, err := c.Get(context.Background(), "/json", nil)
	require.NoError(t, err)
	assert.True(t, res.JSON)
	assert.Equal(t, map[string]any{"total": float64(12)}, res.Value)

	res, err = c.Get(context.Background(), "/text", nil)
	require.NoError(t, err)
	assert.False(t, res.JSON)
	assert.Equal(t, `{"total":12}`, res.Value)
}

func TestNonSuccessStatusReturnsStatusError(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":"bad"}`)
	})
	core, logs := observer.New(zap.WarnLevel)
	c := New(srv.URL, WithLogger(zap.New(core)))

	res, err := c.Post(context.Background(), "/api/contact/send", map[string]string{"email": "x"})
	require.Error(t, err)
	assert.Nil(t, res)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "422")

	code, ok := StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, 422, code)
	assert.Equal(t, 1, logs.FilterMessage("request returned error status").Len())
}

func TestNetworkFailureIsLoggedAndReturned(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	core, logs := observer.New(zap.ErrorLevel)
	c := New(addr, WithLogger(zap.New(core)))

	_, err := c.Get(context.Background(), "/api/tools", nil)
	require.Error(t, err)
	_, ok := StatusCode(err)
	assert.False(t, ok)

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "GET", entries[0].ContextMap()["method"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

func TestHeaderOverridesAndDefaults(t *testing.T) {
	srv, rec := newTestServer(t, nil)
	c := New(srv.URL + "/")
	c.SetHeaders(map[string]string{"authorization": "Bearer t"})

	_, err := c.Get(context.Background(), "api/user/profile", nil,
		WithHeader("x-requested-with", "sitectl"),
		WithHeader(HeaderRequestID, "req-1"))
	require.NoError(t, err)

	got := rec.last(t)
	assert.Equal(t, "/api/user/profile", got.Path)
	assert.Equal(t, "Bearer t", got.Header.Get("Authorization"))
	assert.Equal(t, "sitectl", got.Header.Get("X-Requested-With"))
	assert.Equal(t, "req-1", got.Header.Get("X-Request-Id"))

	// Per-call overrides never leak into the defaults.
	assert.Equal(t, "XMLHttpRequest", c.Headers()[HeaderRequestedWith])
}

func TestSetBaseURLAppliesToNextCall(t *testing.T) {
	first, firstRec := newTestServer(t, nil)
	second, secondRec := newTestServer(t, nil)
	c := New(first.URL)

	_, err := c.Get(context.Background(), "/a", nil)
	require.NoError(t, err)
	c.SetBaseURL(second.URL)
	_, err = c.Get(context.Background(), "/b", nil)
	require.NoError(t, err)

	assert.Equal(t, "/a", firstRec.last(t).Path)
	assert.Equal(t, "/b", secondRec.last(t).Path)
	assert.Equal(t, second.URL, c.BaseURL())
}
