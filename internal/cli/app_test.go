package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/concierge/internal/config"
	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, cfg config.Config) *App {
	t.Helper()
	require.NoError(t, cfg.Validate())
	app, err := Build(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestBuild_Defaults(t *testing.T) {
	app := build(t, config.Default())
	ctx := context.Background()

	reply, err := app.Engine.Process(ctx, "c1", "quero pedir abono de família")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Pedido de Abono de Família")

	ids, err := app.Sessions.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids)
}

func TestBuild_OfflineResponderListsForms(t *testing.T) {
	app := build(t, config.Default())

	reply, err := app.Engine.Process(context.Background(), "c1", "bom dia")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Posso ajudar-te")
	assert.Contains(t, reply.Text, "Pedido de Abono de Família")
}

func TestBuild_FileSessionsWithEncryption(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.SessionBackend = config.BackendFile
	cfg.SessionDir = dir
	cfg.EncryptionKey = strings.Repeat("ab", 32)
	app := build(t, cfg)
	ctx := context.Background()

	_, err := app.Engine.Process(ctx, "c1", "abono de família")
	require.NoError(t, err)
	_, err = app.Engine.Process(ctx, "c1", "Ricardo Gomes")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "c1.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "ricardo gomes")

	s, err := app.Sessions.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "ricardo gomes", s.Collected["nome_requerente"])
}

func TestBuild_RedisAndSQLite(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.SessionBackend = config.BackendRedis
	cfg.RedisAddr = mr.Addr()
	cfg.DocumentBackend = config.BackendSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "data", "documents.db")
	app := build(t, cfg)
	ctx := context.Background()

	_, err := app.Engine.Process(ctx, "c1", "abono de família")
	require.NoError(t, err)
	assert.True(t, mr.Exists("concierge:session:c1"))

	docs, err := app.Engine.Documents(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.FileExists(t, cfg.SQLitePath)
}

func TestBuild_InvalidEncryptionKey(t *testing.T) {
	cfg := config.Default()
	cfg.EncryptionKey = "short"
	_, err := Build(context.Background(), cfg, logging.NewNop())
	assert.ErrorContains(t, err, "encryption_key")
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.LogFormat = "json"
	NewLogger(cfg, &buf).Info("hello", "conversation_id", "c1")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestOfflineHelp(t *testing.T) {
	app := build(t, config.Default())
	help := offlineHelp(app.Catalog)

	for _, f := range app.Catalog.All() {
		assert.Contains(t, help, f.Name)
	}
	assert.Equal(t, app.Catalog.Len(), strings.Count(help, "\n- "))
}

func TestSessionsCommands(t *testing.T) {
	app := build(t, config.Default())
	ctx := context.Background()
	_, err := app.Engine.Process(ctx, "c1", "abono de família")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, ListSessions(ctx, app, &out))
	assert.Contains(t, out.String(), "ss-abono-familia-form")
	assert.Contains(t, out.String(), "0/8")

	out.Reset()
	require.NoError(t, InspectSession(ctx, app, "c1", false, &out))
	assert.Contains(t, out.String(), `"cursor": "nome_requerente"`)

	out.Reset()
	require.NoError(t, InspectSession(ctx, app, "c1", true, &out))
	assert.True(t, strings.HasPrefix(out.String(), "graph TD"))

	assert.ErrorContains(t, InspectSession(ctx, app, "nope", false, &out), "not found")

	out.Reset()
	require.NoError(t, RemoveSessions(ctx, app, nil, true, &out))
	assert.Contains(t, out.String(), "Session 'c1' deleted.")
	_, err = app.Engine.Progress(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	out.Reset()
	require.NoError(t, ListSessions(ctx, app, &out))
	assert.Equal(t, "No active sessions found.\n", out.String())
}

func TestFormsCommands(t *testing.T) {
	app := build(t, config.Default())
	var out bytes.Buffer

	require.NoError(t, ListForms(app.Catalog, &out))
	assert.Contains(t, out.String(), "ss-abono-familia-form")

	out.Reset()
	require.NoError(t, ShowForm(app.Catalog, "ss-abono-familia-form", false, &out))
	assert.Contains(t, out.String(), `"service_ref": "s12"`)

	assert.ErrorIs(t, ShowForm(app.Catalog, "nope", false, &out), domain.ErrFormNotFound)

	out.Reset()
	require.NoError(t, ValidateForms(context.Background(), "", &out))
	assert.Contains(t, out.String(), "forms OK")
}

func TestListDocuments_Empty(t *testing.T) {
	app := build(t, config.Default())
	var out bytes.Buffer

	require.NoError(t, ListDocuments(context.Background(), app, "", false, &out))
	assert.Equal(t, "No documents found.\n", out.String())

	out.Reset()
	require.NoError(t, ListDocuments(context.Background(), app, "", true, &out))
	assert.JSONEq(t, `[]`, out.String())
}

func TestRunChat_JSON(t *testing.T) {
	app := build(t, config.Default())
	in := strings.NewReader(`{"text":"abono de família"}` + "\n" + `"Ricardo Gomes"` + "\n")
	var out bytes.Buffer

	err := RunChat(context.Background(), app, ChatOptions{ConversationID: "c1", JSON: true, In: in, Out: &out})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Pedido de Abono de Família")
	assert.Contains(t, lines[1], `"filled_count":1`)
}

func TestRunChat_TextFresh(t *testing.T) {
	app := build(t, config.Default())
	ctx := context.Background()
	_, err := app.Engine.Process(ctx, "c1", "abono de família")
	require.NoError(t, err)

	var out bytes.Buffer
	err = RunChat(ctx, app, ChatOptions{ConversationID: "c1", Fresh: true, In: strings.NewReader("/sair\n"), Out: &out})
	require.NoError(t, err)
	assert.Contains(t, out.String(), ">>> Conversa 'c1' terminada.")

	_, err = app.Engine.Progress(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestNewHTTPHandler_ServesMetrics(t *testing.T) {
	app := build(t, config.Default())
	h, err := NewHTTPHandler(app)
	require.NoError(t, err)

	_, err = app.Engine.Process(context.Background(), "c1", "abono de família")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
	assert.Contains(t, w.Body.String(), `concierge_sessions_total{form_id="ss-abono-familia-form",outcome="started"} 1`)
}
