package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/bryanwahyu/policylens/internal/application/analysis"
	domain "github.com/bryanwahyu/policylens/internal/domain/analysis"
	"github.com/bryanwahyu/policylens/internal/infra/ai/prompt"
	"github.com/bryanwahyu/policylens/internal/middleware"
)

type fakeClient struct {
	reply string
	err   error
	calls []domain.ChatRequest
}

func (f *fakeClient) Complete(_ context.Context, req domain.ChatRequest) (string, error) {
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

type fakeLister struct {
	records    []*domain.Record
	page, size int
}

func (f *fakeLister) Paginate(_ context.Context, page, pageSize int) ([]*domain.Record, error) {
	f.page, f.size = page, pageSize
	return f.records, nil
}

const wellFormed = "The policy collects usage data.\n\n• Collects email\n• Shares with partners\n\n- Ads are targeted\n\n* Data kept forever\n\nScore: 4/10"

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestRouter(client *fakeClient, opts Options) http.Handler {
	svc := &appanalysis.Service{Client: client, Prompt: prompt.GetSystemPrompt, Logger: quiet}
	return NewRouter(svc, quiet, opts)
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func assertCORS(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestAnalyze_Success(t *testing.T) {
	client := &fakeClient{reply: wellFormed}
	h := newTestRouter(client, Options{})

	w := do(h, http.MethodPost, "/analyze", `{"text":"We collect your email.","type":"privacy"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assertCORS(t, w)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var res domain.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "The policy collects usage data.", res.Summary)
	assert.Equal(t, []string{"Collects email", "Shares with partners"}, res.KeyPoints)
	assert.Equal(t, []string{"Ads are targeted"}, res.Implications)
	assert.Equal(t, []string{"Data kept forever"}, res.Concerns)
	assert.Equal(t, 4, res.Score)

	require.Len(t, client.calls, 1)
	assert.Equal(t, "We collect your email.", client.calls[0].User)
	assert.Contains(t, client.calls[0].System, "privacy policy")
}

func TestAnalyze_UnknownTypeUsesTermsWording(t *testing.T) {
	client := &fakeClient{reply: wellFormed}
	h := newTestRouter(client, Options{})

	w := do(h, http.MethodPost, "/analyze", `{"text":"Terms apply.","type":"banana"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, client.calls, 1)
	assert.Contains(t, client.calls[0].System, "terms of service")
	assert.NotContains(t, client.calls[0].System, "privacy policy")
}

func TestAnalyze_NonStringTypeUsesTermsWording(t *testing.T) {
	client := &fakeClient{reply: wellFormed}
	h := newTestRouter(client, Options{})

	w := do(h, http.MethodPost, "/analyze", `{"text":"policy body","type":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, client.calls, 1)
	assert.Equal(t, "policy body", client.calls[0].User)
	assert.Contains(t, client.calls[0].System, "terms of service")
}

func TestAnalyze_EmptyText(t *testing.T) {
	bodies := []string{
		`{"text":"","type":"privacy"}`,
		`{"type":"terms"}`,
		`{"text":null}`,
		`{"text":false,"type":"privacy"}`,
		`{"text":0}`,
	}
	for _, body := range bodies {
		client := &fakeClient{reply: wellFormed}
		h := newTestRouter(client, Options{})

		w := do(h, http.MethodPost, "/analyze", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"No text provided"}`, w.Body.String())
		assertCORS(t, w)
		assert.Empty(t, client.calls, "upstream must not be called")
	}
}

func TestAnalyze_UpstreamFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("openai API error (status 401): Incorrect API key provided")}
	h := newTestRouter(client, Options{})

	w := do(h, http.MethodPost, "/analyze", `{"text":"SECRET-DOCUMENT-BODY","type":"terms"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assertCORS(t, w)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Failed to process document", body["error"])
	assert.Equal(t, "openai API error (status 401): Incorrect API key provided", body["details"])
	assert.NotContains(t, w.Body.String(), "SECRET-DOCUMENT-BODY")
}

func TestAnalyze_EmptyCompletion(t *testing.T) {
	h := newTestRouter(&fakeClient{}, Options{})

	w := do(h, http.MethodPost, "/analyze", `{"text":"doc","type":"privacy"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to process document","details":"no response from OpenAI"}`, w.Body.String())
}

func TestAnalyze_MalformedBody(t *testing.T) {
	client := &fakeClient{reply: wellFormed}
	h := newTestRouter(client, Options{})

	for _, body := range []string{`{not json`, `{"text":true,"type":"privacy"}`} {
		w := do(h, http.MethodPost, "/analyze", body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, body)
		assert.Contains(t, w.Body.String(), "Failed to process document")
		assertCORS(t, w)
	}
	assert.Empty(t, client.calls)
}

func TestAnalyze_BodyTooLarge(t *testing.T) {
	client := &fakeClient{reply: wellFormed}
	h := newTestRouter(client, Options{MaxBodyBytes: 32})

	w := do(h, http.MethodPost, "/analyze", `{"text":"`+strings.Repeat("a", 100)+`","type":"privacy"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, client.calls)
}

func TestAnalyze_ShortReplyYieldsEmptyArrays(t *testing.T) {
	h := newTestRouter(&fakeClient{reply: "Only a summary."}, Options{})

	w := do(h, http.MethodPost, "/analyze", `{"text":"doc","type":"privacy"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"summary":"Only a summary.","keyPoints":[],"implications":[],"concerns":[],"score":0}`, w.Body.String())
}

func TestAnalyze_Preflight(t *testing.T) {
	client := &fakeClient{reply: wellFormed}
	h := newTestRouter(client, Options{})

	w := do(h, http.MethodOptions, "/analyze", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assertCORS(t, w)

	req := httptest.NewRequest(http.MethodOptions, "/analyze", http.NoBody)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assertCORS(t, w)

	assert.Empty(t, client.calls)
}

func TestRateLimitedResponsesKeepCORS(t *testing.T) {
	client := &fakeClient{reply: wellFormed}
	h := newTestRouter(client, Options{Limiter: middleware.NewRateLimiter(1, 0)})

	w := do(h, http.MethodPost, "/analyze", `{"text":"doc","type":"privacy"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodPost, "/analyze", `{"text":"doc","type":"privacy"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assertCORS(t, w)
	assert.Len(t, client.calls, 1)
}

func TestListAnalyses(t *testing.T) {
	h := newTestRouter(&fakeClient{}, Options{})
	w := do(h, http.MethodGet, "/analyses", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	lister := &fakeLister{records: []*domain.Record{{ID: "a", DocType: domain.DocTypeTerms}}}
	h = newTestRouter(&fakeClient{}, Options{Lister: lister})
	w = do(h, http.MethodGet, "/analyses?page=2&page_size=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, lister.page)
	assert.Equal(t, 5, lister.size)

	var page domain.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, domain.RecordID("a"), page.Data[0].ID)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.PageSize)
}

func TestListAnalyses_ClampsPaging(t *testing.T) {
	lister := &fakeLister{}
	h := newTestRouter(&fakeClient{}, Options{Lister: lister})

	w := do(h, http.MethodGet, "/analyses?page=9223372036854775807&page_size=1000", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.MaxPage, lister.page)
	assert.Equal(t, domain.MaxPageSize, lister.size)

	w = do(h, http.MethodGet, "/analyses?page=-4", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, lister.page)
	assert.Equal(t, domain.DefaultPageSize, lister.size)
}

func TestHealthRoutesAndMetrics(t *testing.T) {
	metrics := middleware.NewMetrics(prometheus.NewRegistry())
	h := newTestRouter(&fakeClient{reply: wellFormed}, Options{Metrics: metrics})

	w := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = do(h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	do(h, http.MethodPost, "/analyze", `{"text":"doc","type":"privacy"}`)
	w = do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `policylens_http_requests_total{method="POST",route="/analyze",status="200"} 1`)
}
