package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedgen/pkg/llm"
	"github.com/umputun/feedgen/server/mocks"
)

func postGenerate(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func decodeRelayError(t *testing.T, w *httptest.ResponseRecorder) llm.RelayError {
	t.Helper()
	var res llm.RelayError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestGenerate_MethodNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			srv := New(testConfig(), nil, &mocks.FetcherMock{}, "test", false) // not configured, method check goes first
			req := httptest.NewRequest(method, "/api/v1/generate", http.NoBody)
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Equal(t, http.MethodPost, w.Header().Get("Allow"))
			assert.Equal(t, "method not allowed", decodeRelayError(t, w).Error)
		})
	}
}

func TestGenerate_NotConfigured(t *testing.T) {
	srv := New(testConfig(), nil, &mocks.FetcherMock{}, "test", false)
	w := postGenerate(t, srv, `{}`) // configuration is checked before the payload

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	res := decodeRelayError(t, w)
	assert.Equal(t, llm.ErrorKindConfiguration, res.Kind)
	assert.NotEmpty(t, res.Error)
}

func TestGenerate_BadRequest(t *testing.T) {
	gen := &mocks.GeneratorMock{StreamFunc: streamOf(nil, "<rss/>")}
	srv := New(testConfig(), gen, &mocks.FetcherMock{}, "test", false)

	for _, body := range []string{`{}`, `{"url":"  "}`, `not json`, ``} {
		w := postGenerate(t, srv, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.Equal(t, "url is required", decodeRelayError(t, w).Error)
	}
	assert.Empty(t, gen.StreamCalls())
}

func TestGenerate_Streams(t *testing.T) {
	gen := &mocks.GeneratorMock{StreamFunc: streamOf(nil, "```xml\n<rss>", "", "<channel/>", "</rss>\n```")}
	srv := New(testConfig(), gen, &mocks.FetcherMock{}, "test", false)

	w := postGenerate(t, srv, `{"url":" https://example.com/news "}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "```xml\n<rss><channel/></rss>\n```", w.Body.String(), "relay passes text through untouched")
	assert.True(t, w.Flushed)

	require.Len(t, gen.StreamCalls(), 1)
	assert.Equal(t, "https://example.com/news", gen.StreamCalls()[0].Req.TargetURL)
	assert.Equal(t, llm.BuildPrompt("https://example.com/news"), gen.StreamCalls()[0].Req.Prompt)
}

func TestGenerate_EmptyStream(t *testing.T) {
	gen := &mocks.GeneratorMock{StreamFunc: streamOf(nil)}
	srv := New(testConfig(), gen, &mocks.FetcherMock{}, "test", false)

	w := postGenerate(t, srv, `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Body.String())
}

func TestGenerate_ErrorBeforeFirstChunk(t *testing.T) {
	tbl := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{name: "service", err: &llm.ServiceError{StatusCode: 429, Message: "quota exceeded"}, code: 429},
		{name: "service without error status", err: &llm.ServiceError{StatusCode: 200, Message: "no response"},
			code: http.StatusBadGateway},
		{name: "transport", err: &llm.TransportError{Err: errors.New("dial tcp: refused")}, code: http.StatusBadGateway},
		{name: "configuration", err: &llm.ConfigurationError{Setting: "llm.api_key"},
			code: http.StatusInternalServerError, kind: llm.ErrorKindConfiguration},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mocks.GeneratorMock{StreamFunc: streamOf(tt.err)}
			srv := New(testConfig(), gen, &mocks.FetcherMock{}, "test", false)

			w := postGenerate(t, srv, `{"url":"https://example.com"}`)
			assert.Equal(t, tt.code, w.Code)
			res := decodeRelayError(t, w)
			assert.Equal(t, tt.err.Error(), res.Error)
			assert.Equal(t, tt.kind, res.Kind)
		})
	}
}

func TestGenerate_ErrorAfterFirstChunk(t *testing.T) {
	gen := &mocks.GeneratorMock{StreamFunc: streamOf(&llm.TransportError{Err: errors.New("reset")}, "<rss>", "<channel>")}
	srv := New(testConfig(), gen, &mocks.FetcherMock{}, "test", false)

	w := postGenerate(t, srv, `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code, "status is already sent")
	assert.Equal(t, "<rss><channel>", w.Body.String())
	assert.Equal(t, llm.ErrorTrailer, w.Header().Get("Trailer"))
	assert.Contains(t, w.Result().Trailer.Get(llm.ErrorTrailer), "reset")
}

func TestGenerate_ErrorAfterFirstChunkRelayClient(t *testing.T) {
	partial := `<rss version="2.0"><channel><item><title>A</title></item>`
	gen := &mocks.GeneratorMock{StreamFunc: streamOf(&llm.TransportError{Err: errors.New("connection reset")}, partial)}
	ts := httptest.NewServer(New(testConfig(), gen, &mocks.FetcherMock{}, "test", false).router)
	defer ts.Close()

	relay, err := llm.NewRelay(llm.RelayParams{Endpoint: ts.URL + "/api/v1/generate"})
	require.NoError(t, err)

	var transportErr *llm.TransportError
	res, err := llm.NewStreamingFetcher(relay).Generate(context.Background(), "https://example.com")
	require.ErrorAs(t, err, &transportErr)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, res, "partial feed is not a result")

	res, err = llm.NewBufferedFetcher(relay, 1).Generate(context.Background(), "https://example.com")
	require.ErrorAs(t, err, &transportErr)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, res, "partial feed is not a result")
}

func TestGenerate_RelayClientRoundTrip(t *testing.T) {
	feedText := "```xml\n<rss version=\"2.0\"><channel><item><title>A</title></item></channel></rss>\n```"
	gen := &mocks.GeneratorMock{StreamFunc: streamOf(nil, feedText[:20], feedText[20:])}
	ts := httptest.NewServer(New(testConfig(), gen, &mocks.FetcherMock{}, "test", false).router)
	defer ts.Close()

	relay, err := llm.NewRelay(llm.RelayParams{Endpoint: ts.URL + "/api/v1/generate"})
	require.NoError(t, err)

	res, err := llm.NewStreamingFetcher(relay).Generate(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, `<rss version="2.0"><channel><item><title>A</title></item></channel></rss>`, res)

	res, err = llm.NewBufferedFetcher(relay, 1).Generate(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, `<rss version="2.0"><channel><item><title>A</title></item></channel></rss>`, res)
}

func TestGenerate_RelayClientNotConfigured(t *testing.T) {
	ts := httptest.NewServer(New(testConfig(), nil, &mocks.FetcherMock{}, "test", false).router)
	defer ts.Close()

	relay, err := llm.NewRelay(llm.RelayParams{Endpoint: ts.URL + "/api/v1/generate"})
	require.NoError(t, err)

	_, err = llm.NewStreamingFetcher(relay).Generate(context.Background(), "https://example.com")
	require.ErrorIs(t, err, llm.ErrConfiguration)
}
