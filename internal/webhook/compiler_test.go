package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func mustConfig(t *testing.T, hookType, raw string) *Config {
	t.Helper()
	cfg, err := ParseConfig(hookType, []byte(raw))
	require.NoError(t, err)
	return cfg
}

type captured struct {
	method string
	uri    string
	header http.Header
	body   []byte
	fields []Pair
}

// recorder is a test server that records the last request it served.
type recorder struct {
	mu     sync.Mutex
	last   captured
	status int
	reply  string
}

func newRecorder(t *testing.T, status int, reply string) (*recorder, *httptest.Server) {
	rec := &recorder{status: status, reply: reply}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{method: r.Method, uri: r.URL.RequestURI(), header: r.Header.Clone()}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data;") {
			mr, err := r.MultipartReader()
			if err == nil {
				for {
					part, err := mr.NextPart()
					if err != nil {
						break
					}
					b, _ := io.ReadAll(part)
					c.fields = append(c.fields, Pair{Key: part.FormName(), Value: string(b)})
				}
			}
		} else {
			c.body, _ = io.ReadAll(r.Body)
		}
		rec.mu.Lock()
		rec.last = c
		rec.mu.Unlock()
		w.WriteHeader(rec.status)
		_, _ = io.WriteString(w, rec.reply)
	}))
	t.Cleanup(srv.Close)
	return rec, srv
}

func (r *recorder) request() captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func TestCompile_GetAppendsQuery(t *testing.T) {
	c := NewCompiler(zaptest.NewLogger(t))
	cfg := mustConfig(t, "get", `{"url": "u", "data": [{"key": "k1", "value": "v1"}, {"key": "k2", "value": "v2"}]}`)

	req, err := c.Compile(cfg)
	require.NoError(t, err)

	assert.Equal(t, MethodGet, req.Method)
	assert.Equal(t, "u?k1=v1&k2=v2", req.URL)
	assert.Equal(t, 0, req.Headers.Len())
	assert.Nil(t, req.Body)
}

func TestCompile_GetWithoutData(t *testing.T) {
	c := NewCompiler(nil)

	req, err := c.Compile(mustConfig(t, "get", `{"url": "http://example.test/hook"}`))
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/hook", req.URL)

	req, err = c.Compile(mustConfig(t, "get", `{"url": "http://example.test/hook", "data": []}`))
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/hook", req.URL)
}

func TestCompile_GetIgnoresPayloadType(t *testing.T) {
	c := NewCompiler(nil)
	req, err := c.Compile(mustConfig(t, "get", `{"url": "u", "payloadType": "json", "data": [{"key": "a", "value": "1"}]}`))
	require.NoError(t, err)

	assert.Equal(t, "u?a=1", req.URL)
	_, hasContentType := req.Headers.Get("Content-Type")
	assert.False(t, hasContentType)
}

func TestCompile_PostJSON(t *testing.T) {
	c := NewCompiler(nil)
	cfg := mustConfig(t, "post", `{"url": "u", "payloadType": "json", "data": [{"key": "a", "value": "1"}]}`)

	req, err := c.Compile(cfg)
	require.NoError(t, err)

	assert.Equal(t, MethodPost, req.Method)
	assert.Equal(t, "u", req.URL)
	ct, _ := req.Headers.Get("Content-Type")
	assert.Equal(t, "application/json", ct)
	require.NotNil(t, req.Body)
	assert.Equal(t, `{"a":"1"}`, string(req.Body.Bytes))
}

func TestCompile_PutXML(t *testing.T) {
	c := NewCompiler(nil)
	req, err := c.Compile(mustConfig(t, "put", `{"url": "u", "payloadType": "xml", "data": [{"key": "key1", "value": "value1"}]}`))
	require.NoError(t, err)

	assert.Equal(t, MethodPut, req.Method)
	ct, _ := req.Headers.Get("Content-Type")
	assert.Equal(t, "application/xml", ct)
	assert.Equal(t, xmlHeader+`<root><key1 type="str">value1</key1></root>`, string(req.Body.Bytes))
}

func TestCompile_DefaultsToForm(t *testing.T) {
	c := NewCompiler(nil)
	for _, pt := range []string{``, `"payloadType": "yaml", `, `"payloadType": "form", `} {
		req, err := c.Compile(mustConfig(t, "post", `{`+pt+`"url": "u", "data": [{"key": "a", "value": "1"}]}`))
		require.NoError(t, err)

		ct, _ := req.Headers.Get("Content-Type")
		assert.Equal(t, "multipart/form-data", ct)
		require.NotNil(t, req.Body)
		assert.Equal(t, PayloadForm, req.Body.Type)
	}
}

func TestCompile_DeclaredHeadersOverrideDefault(t *testing.T) {
	c := NewCompiler(nil)
	cfg := mustConfig(t, "post", `{
		"url": "u",
		"payloadType": "json",
		"headers": [{"key": "Content-Type", "value": "text/plain"}, {"key": "X-Trace", "value": "1"}]
	}`)

	req, err := c.Compile(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"Content-Type", "X-Trace"}, keysOf(req.Headers))
	ct, _ := req.Headers.Get("Content-Type")
	assert.Equal(t, "text/plain", ct)
	assert.Nil(t, req.Body)
}

func TestCompile_NestedDataAndHeaders(t *testing.T) {
	c := NewCompiler(nil)
	cfg := mustConfig(t, "get", `{
		"url": "u",
		"options": {"headers": [{"key": "X-A", "value": "a"}]},
		"step": {"data": [{"key": "q", "value": "1"}]}
	}`)

	req, err := c.Compile(cfg)
	require.NoError(t, err)
	assert.Equal(t, "u?q=1", req.URL)
	v, _ := req.Headers.Get("X-A")
	assert.Equal(t, "a", v)
}

func TestCompile_UnsupportedMethod(t *testing.T) {
	c := NewCompiler(nil)
	_, err := c.Compile(mustConfig(t, "delete", `{"url": "u"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
	assert.Contains(t, err.Error(), "DELETE")
}

func TestCompile_MissingURL(t *testing.T) {
	c := NewCompiler(nil)
	for _, hookType := range []string{"get", "post", "put"} {
		_, err := c.Compile(mustConfig(t, hookType, `{"data": []}`))
		assert.ErrorIs(t, err, ErrMissingURL, hookType)
	}
	_, err := c.Compile(mustConfig(t, "post", `{"url": 5}`))
	assert.ErrorIs(t, err, ErrMissingURL)
}

func TestCompile_HeadersAreFreshPerCall(t *testing.T) {
	c := NewCompiler(nil)
	withHeader := mustConfig(t, "post", `{"url": "u", "headers": [{"key": "X-Secret", "value": "s"}]}`)
	plain := mustConfig(t, "post", `{"url": "u"}`)

	first, err := c.Compile(withHeader)
	require.NoError(t, err)
	second, err := c.Compile(plain)
	require.NoError(t, err)

	_, leaked := second.Headers.Get("X-Secret")
	assert.False(t, leaked)
	assert.Equal(t, 2, first.Headers.Len())
	assert.Equal(t, 1, second.Headers.Len())
}

func TestCompile_DoesNotMutateConfig(t *testing.T) {
	c := NewCompiler(nil)
	raw := `{"url":"u","payloadType":"json","data":[{"key":"a","value":"1"}]}`
	cfg := mustConfig(t, "post", raw)

	_, err := c.Compile(cfg)
	require.NoError(t, err)

	b, err := json.Marshal(cfg.Tree)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(b))
}

func TestSend_Get(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusOK, `{"ok": true}`)
	c := NewCompiler(zaptest.NewLogger(t))

	res, err := c.Send(context.Background(), mustConfig(t, "get", `{
		"url": "`+srv.URL+`/hook",
		"data": [{"key": "k1", "value": "v1"}, {"key": "k2", "value": "v2"}],
		"headers": [{"key": "X-Api-Key", "value": "abc"}]
	}`))
	require.NoError(t, err)

	got := rec.request()
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/hook?k1=v1&k2=v2", got.uri)
	assert.Equal(t, "abc", got.header.Get("X-Api-Key"))

	assert.Equal(t, http.StatusOK, res.StatusCode)
	body, ok := res.Body.(*Mapping)
	require.True(t, ok)
	v, _ := body.Get("ok")
	assert.Equal(t, true, v)
}

func TestSend_PostJSON(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusCreated, `{"id": 7}`)
	c := NewCompiler(zaptest.NewLogger(t))

	res, err := c.Send(context.Background(), mustConfig(t, "post", `{
		"url": "`+srv.URL+`",
		"payloadType": "json",
		"data": [{"key": "b", "value": "2"}, {"key": "a", "value": "1"}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	got := rec.request()
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.Equal(t, `{"b":"2","a":"1"}`, string(got.body))
}

func TestSend_PutForm(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusOK, `{}`)
	c := NewCompiler(zaptest.NewLogger(t))

	_, err := c.Send(context.Background(), mustConfig(t, "put", `{
		"url": "`+srv.URL+`",
		"data": [{"key": "second", "value": "2"}, {"key": "first", "value": "1"}]
	}`))
	require.NoError(t, err)

	got := rec.request()
	assert.Equal(t, http.MethodPut, got.method)
	assert.True(t, strings.HasPrefix(got.header.Get("Content-Type"), "multipart/form-data; boundary="))
	assert.Equal(t, []Pair{{Key: "second", Value: "2"}, {Key: "first", Value: "1"}}, got.fields)
}

func TestSend_UserAgent(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusOK, `{}`)
	c := NewCompiler(nil, WithUserAgent("zipier-test/1.0"))

	_, err := c.Send(context.Background(), mustConfig(t, "get", `{"url": "`+srv.URL+`"}`))
	require.NoError(t, err)
	assert.Equal(t, "zipier-test/1.0", rec.request().header.Get("User-Agent"))
}

func TestSend_FailureStatus(t *testing.T) {
	_, srv := newRecorder(t, http.StatusBadRequest, `{"error": "bad"}`)
	c := NewCompiler(zaptest.NewLogger(t))

	res, err := c.Send(context.Background(), mustConfig(t, "post", `{"url": "`+srv.URL+`"}`))
	assert.Nil(t, res)

	var failure *FailureError
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, http.StatusBadRequest, failure.StatusCode)
	assert.Equal(t, `{"error": "bad"}`, string(failure.RawBody))
}

func TestSend_UnsupportedMethodSendsNothing(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusOK, `{}`)
	c := NewCompiler(nil)

	_, err := c.Send(context.Background(), mustConfig(t, "patch", `{"url": "`+srv.URL+`"}`))
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
	assert.Empty(t, rec.request().method)
}

func TestSend_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := NewCompiler(nil, WithTimeout(50*time.Millisecond))
	_, err := c.Send(context.Background(), mustConfig(t, "get", `{"url": "`+srv.URL+`"}`))
	require.Error(t, err)

	var failure *FailureError
	assert.False(t, errors.As(err, &failure))
}
