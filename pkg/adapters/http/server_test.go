package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/concierge"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	eng, err := concierge.New()
	require.NoError(t, err)
	h, err := NewHandler(eng, opts...)
	require.NoError(t, err)
	return h
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.Equal(t, "Concierge API", doc.Info.Title)
}

func TestSendMessage_StartsForm(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/v1/conversations/c1/messages", `{"text":"quero pedir abono de família"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reply domain.Reply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Contains(t, reply.Text, "Pedido de Abono de Família")
	require.NotNil(t, reply.Progress)
	assert.Equal(t, 8, reply.Progress.TotalRequired)

	w = do(t, h, http.MethodGet, "/v1/conversations/c1/progress", "")
	require.Equal(t, http.StatusOK, w.Code)
	var p domain.Progress
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "ss-abono-familia-form", p.FormID)

	w = do(t, h, http.MethodDelete, "/v1/conversations/c1/session", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/v1/conversations/c1/progress", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMessage_Validation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing text", `{}`},
		{"wrong type", `{"text": 42}`},
		{"not json", `hello`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/v1/conversations/c1/messages", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestSendMessage_InputTooLarge(t *testing.T) {
	h := newTestHandler(t)
	payload, _ := json.Marshal(map[string]string{"text": strings.Repeat("x", 5000)})

	w := do(t, h, http.MethodPost, "/v1/conversations/c1/messages", string(payload))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "maximum allowed size")
}

func TestSendMessage_BlankText(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/v1/conversations/c1/messages", `{"text":"quero pedir abono de família"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/v1/conversations/c1/messages", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "input is empty")

	w = do(t, h, http.MethodGet, "/v1/conversations/c1/progress", "")
	require.Equal(t, http.StatusOK, w.Code)
	var p domain.Progress
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, 0, p.FilledCount)
}

func TestForms(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/v1/forms", "")
	require.Equal(t, http.StatusOK, w.Code)
	var forms []domain.FormDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &forms))
	require.NotEmpty(t, forms)
	assert.Equal(t, "ss-abono-familia-form", forms[0].ID)

	w = do(t, h, http.MethodGet, "/v1/forms/ss-abono-familia-form", "")
	require.Equal(t, http.StatusOK, w.Code)
	var form domain.FormDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &form))
	assert.Equal(t, "s12", form.ExternalServiceRef)

	w = do(t, h, http.MethodGet, "/v1/forms/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListDocuments_EmptyIsArray(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/v1/documents?conversation_id=c1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHealthInfoAndSpec(t *testing.T) {
	h := newTestHandler(t, WithVersion("1.2.3"))

	w := do(t, h, http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", "")
	assert.JSONEq(t, `{"app":"concierge-http","version":"1.2.3","api_version":"1.0.0"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("openapi: 3.0.3")))
}

func TestCORS(t *testing.T) {
	h := newTestHandler(t, WithAllowedOrigins("https://app.example.pt"))

	req := httptest.NewRequest(http.MethodOptions, "/v1/forms", nil)
	req.Header.Set("Origin", "https://app.example.pt")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.pt", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	eng, err := concierge.New(concierge.WithLifecycleHooks(m.Hooks()))
	require.NoError(t, err)
	h, err := NewHandler(eng, WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	require.NoError(t, err)

	do(t, h, http.MethodPost, "/v1/conversations/c1/messages", `{"text":"abono de família"}`)

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `concierge_sessions_total{form_id="ss-abono-familia-form",outcome="started"} 1`)
}

func TestSubscribeEvents(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/conversations/c1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	readUntil := func(prefix string) string {
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), prefix) {
				return lines.Text()
			}
		}
		t.Fatalf("stream ended before %q", prefix)
		return ""
	}
	readUntil("data: connected")

	post, err := http.Post(srv.URL+"/v1/conversations/c1/messages", "application/json", strings.NewReader(`{"text":"abono de família"}`))
	require.NoError(t, err)
	post.Body.Close()

	readUntil("event: reply")
	data := readUntil("data: ")
	assert.Contains(t, data, "Pedido de Abono de Família")
}

func TestStreamManager_Unsubscribe(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("c1")
	assert.Equal(t, 1, sm.count("c1"))

	sm.Broadcast("c1", "hello")
	assert.Equal(t, "hello", <-ch)

	cancel()
	assert.Equal(t, 0, sm.count("c1"))
	_, open := <-ch
	assert.False(t, open)
}
