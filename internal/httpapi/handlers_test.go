package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"outdial-platform/internal/assistants"
	"outdial-platform/internal/auth"
	"outdial-platform/internal/callops"
	"outdial-platform/internal/campaigns"
	"outdial-platform/internal/candidate"
	"outdial-platform/internal/config"
	"outdial-platform/internal/credits"
	"outdial-platform/internal/dialer"
	"outdial-platform/internal/settings"
	"outdial-platform/internal/users"
	"outdial-platform/internal/vapi"
)

type stubProvider struct {
	calls     map[string]vapi.Call
	logs      []vapi.Call
	createErr error
	listErr   error
	nextID    int
}

func (p *stubProvider) CreateCall(ctx context.Context, req vapi.CreateCallRequest) (vapi.Call, error) {
	if p.createErr != nil {
		return vapi.Call{}, p.createErr
	}
	p.nextID++
	return vapi.Call{ID: "call-" + string(rune('a'+p.nextID-1)), Status: "queued"}, nil
}

func (p *stubProvider) GetCall(ctx context.Context, id string) (vapi.Call, error) {
	call, ok := p.calls[id]
	if !ok {
		return vapi.Call{}, errors.New("call not found")
	}
	return call, nil
}

func (p *stubProvider) ListLogs(ctx context.Context, limit, offset int) ([]vapi.Call, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.logs, nil
}

func (p *stubProvider) ListAssistants(ctx context.Context) ([]vapi.Assistant, error) {
	return []vapi.Assistant{{ID: "a-1", Name: "Recruiter"}}, nil
}

func (p *stubProvider) UpdateAssistant(ctx context.Context, id string, firstMessage, instructions *string) (vapi.Assistant, error) {
	a := vapi.Assistant{ID: id, Name: "Recruiter"}
	if firstMessage != nil {
		a.FirstMessage = *firstMessage
	}
	return a, nil
}

type env struct {
	router *gin.Engine
	store  *candidate.MemoryStore
	ledger *credits.Ledger
}

func newEnv(t *testing.T, prov *stubProvider, webhookSecret string) env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := candidate.NewMemoryStore()
	ledger := credits.NewLedger(credits.NewMemoryStore(), 2, log)
	engine := callops.NewEngine(store, prov, log)
	dialSvc := dialer.NewService(store, ledger, prov, engine, nil, "asst-1", "pn-1", log)

	tokens, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("auth manager: %v", err)
	}

	h := Handlers{
		Users:         users.NewService(users.NewMemoryStore(), tokens),
		Dialer:        dialSvc,
		Engine:        engine,
		Candidates:    store,
		Credits:       ledger,
		Campaigns:     campaigns.NewService(campaigns.NewMemoryStore(), log),
		Assistants:    assistants.NewService(prov, nil, log),
		Settings:      settings.NewMemoryStore(),
		WebhookSecret: webhookSecret,
		Log:           log,
	}
	r := gin.New()
	RegisterRoutes(r, h, auth.OptionalAccessToken(tokens))
	return env{router: r, store: store, ledger: ledger}
}

func (e env) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestQueueDialWebhookHistoryFlow(t *testing.T) {
	prov := &stubProvider{}
	e := newEnv(t, prov, "")

	w := e.do(t, http.MethodPost, "/api/calls", gin.H{
		"action":     "add_to_queue",
		"candidates": []gin.H{{"name": "Asha", "phone": "9876543210"}},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("add_to_queue = %d: %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/api/calls", gin.H{
		"action":      "start_call",
		"email":       "ops@example.com",
		"candidateId": 1,
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start_call = %d: %s", w.Code, w.Body.String())
	}

	uc, _ := e.ledger.GetOrInit(context.Background(), "ops@example.com")
	if uc.Credits != 1 {
		t.Fatalf("credits after dial = %d, want 1", uc.Credits)
	}

	ended := time.Now().UTC()
	w = e.do(t, http.MethodPost, "/api/vapi-webhook", gin.H{
		"type":    "call-ended",
		"callId":  "call-a",
		"endedAt": ended,
		"summary": "Strong candidate",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("webhook = %d: %s", w.Code, w.Body.String())
	}
	if ok, _ := decodeBody(t, w)["ok"].(bool); !ok {
		t.Fatalf("webhook body = %s", w.Body.String())
	}

	w = e.do(t, http.MethodGet, "/api/calls?type=history", nil, nil)
	body := decodeBody(t, w)
	list, _ := body["candidates"].([]any)
	if len(list) != 1 {
		t.Fatalf("history = %s", w.Body.String())
	}
	first, _ := list[0].(map[string]any)
	if first["call_result"] != "Strong candidate" {
		t.Fatalf("history row = %v", first)
	}

	w = e.do(t, http.MethodGet, "/api/calls?type=queue", nil, nil)
	if list, _ := decodeBody(t, w)["candidates"].([]any); len(list) != 0 {
		t.Fatalf("queue should be empty, got %s", w.Body.String())
	}
}

func TestStartCallInsufficientCredits(t *testing.T) {
	e := newEnv(t, &stubProvider{}, "")
	if _, err := e.ledger.Consume(context.Background(), "ops@example.com", 2); err != nil {
		t.Fatalf("drain: %v", err)
	}
	e.do(t, http.MethodPost, "/api/calls", gin.H{
		"action":     "add_to_queue",
		"candidates": []gin.H{{"name": "Asha", "phone": "9876543210"}},
	}, nil)

	w := e.do(t, http.MethodPost, "/api/calls", gin.H{
		"action":      "start_call",
		"email":       "ops@example.com",
		"candidateId": 1,
	}, nil)
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("code = %d, want 402", w.Code)
	}
	if decodeBody(t, w)["error"] != "INSUFFICIENT_CREDITS" {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestStartCallUnknownCandidate(t *testing.T) {
	e := newEnv(t, &stubProvider{}, "")
	w := e.do(t, http.MethodPost, "/api/calls", gin.H{
		"action":      "start_call",
		"email":       "ops@example.com",
		"candidateId": 42,
	}, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", w.Code)
	}
}

func TestWebhookSecret(t *testing.T) {
	e := newEnv(t, &stubProvider{}, "hook-secret")

	w := e.do(t, http.MethodPost, "/api/vapi-webhook", gin.H{"type": "call-started"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing secret = %d, want 401", w.Code)
	}

	w = e.do(t, http.MethodPost, "/api/vapi-webhook", gin.H{"type": "call-started"},
		map[string]string{"Authorization": "Bearer hook-secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("with secret = %d: %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/vapi-webhook", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Authorization", "Bearer hook-secret")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json = %d, want 400", rec.Code)
	}
}

func TestWebhookEnvelopeShape(t *testing.T) {
	e := newEnv(t, &stubProvider{}, "")
	e.do(t, http.MethodPost, "/api/calls", gin.H{
		"action":     "add_to_queue",
		"candidates": []gin.H{{"name": "Asha", "phone": "9876543210"}},
	}, nil)
	e.do(t, http.MethodPost, "/api/calls", gin.H{
		"action": "start_call", "email": "ops@example.com", "candidateId": 1,
	}, nil)

	w := e.do(t, http.MethodPost, "/api/vapi-webhook", gin.H{
		"message": gin.H{
			"type":    "end-of-call-report",
			"callId":  "call-a",
			"summary": "Wrapped via envelope",
		},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("webhook = %d: %s", w.Code, w.Body.String())
	}
	got, _ := e.store.Get(context.Background(), 1)
	if got.Status != candidate.StatusCompleted || got.CallResult != "Wrapped via envelope" {
		t.Fatalf("candidate = %+v", got)
	}
}

func TestImportNonFatalOnProviderOutage(t *testing.T) {
	prov := &stubProvider{listErr: errors.New("vapi down")}
	e := newEnv(t, prov, "")

	w := e.do(t, http.MethodPost, "/api/calls", gin.H{"action": "import_calls_from_vapi"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, import outage must stay 200", w.Code)
	}
	if ok, _ := decodeBody(t, w)["success"].(bool); ok {
		t.Fatalf("success should be false: %s", w.Body.String())
	}
}

func TestCreditsEndpoints(t *testing.T) {
	e := newEnv(t, &stubProvider{}, "")

	w := e.do(t, http.MethodGet, "/api/credits?email=ops@example.com", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET credits = %d", w.Code)
	}
	if n, _ := decodeBody(t, w)["credits"].(float64); n != 2 {
		t.Fatalf("initial credits = %v, want 2", n)
	}

	w = e.do(t, http.MethodPost, "/api/credits", gin.H{
		"action": "consume", "email": "ops@example.com", "amount": 2,
	}, nil)
	if n, _ := decodeBody(t, w)["credits"].(float64); n != 0 {
		t.Fatalf("credits after consume = %v", n)
	}

	w = e.do(t, http.MethodPost, "/api/credits", gin.H{
		"action": "consume", "email": "ops@example.com",
	}, nil)
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("code = %d, want 402", w.Code)
	}
}

func TestCampaignEndpoints(t *testing.T) {
	e := newEnv(t, &stubProvider{}, "")

	w := e.do(t, http.MethodPost, "/api/campaigns", gin.H{
		"name": "Q3 Outreach", "industry": "recruiting", "goal": "screen",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/api/campaigns", gin.H{
		"name": " q3   outreach", "industry": "recruiting", "goal": "screen",
	}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate = %d, want 409", w.Code)
	}

	w = e.do(t, http.MethodPost, "/api/campaigns", gin.H{"name": ""}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid = %d, want 400", w.Code)
	}

	w = e.do(t, http.MethodDelete, "/api/campaigns", gin.H{"ids": []int64{1}}, nil)
	if n, _ := decodeBody(t, w)["deleted"].(float64); n != 1 {
		t.Fatalf("deleted = %v", n)
	}
}

func TestAuthRegisterLoginAndTokenIdentity(t *testing.T) {
	e := newEnv(t, &stubProvider{}, "")

	w := e.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"email": "ops@example.com", "name": "Ops", "password": "hunter2hunter2",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d: %s", w.Code, w.Body.String())
	}
	token, _ := decodeBody(t, w)["access_token"].(string)
	if token == "" {
		t.Fatal("no access token")
	}

	w = e.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"email": "ops@example.com", "name": "Ops", "password": "hunter2hunter2",
	}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register = %d, want 409", w.Code)
	}

	w = e.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email": "ops@example.com", "password": "wrong",
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d, want 401", w.Code)
	}

	// Token identity overrides any explicit email on a request.
	w = e.do(t, http.MethodGet, "/api/credits?email=other@example.com", nil,
		map[string]string{"Authorization": "Bearer " + token})
	if w.Code != http.StatusOK {
		t.Fatalf("credits with token = %d", w.Code)
	}
	if email, _ := decodeBody(t, w)["email"].(string); email != "ops@example.com" {
		t.Fatalf("email = %q, token identity should win", email)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	e := newEnv(t, &stubProvider{}, "")

	w := e.do(t, http.MethodPost, "/api/settings", gin.H{
		"email":    "ops@example.com",
		"settings": gin.H{"theme": "dark"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("POST settings = %d: %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodGet, "/api/settings?email=ops@example.com", nil, nil)
	body := decodeBody(t, w)
	doc, _ := body["settings"].(map[string]any)
	if doc["theme"] != "dark" {
		t.Fatalf("settings = %s", w.Body.String())
	}
}

func TestDataExportAndClear(t *testing.T) {
	e := newEnv(t, &stubProvider{}, "")
	e.do(t, http.MethodPost, "/api/calls", gin.H{
		"action":     "add_to_queue",
		"candidates": []gin.H{{"name": "Asha", "phone": "9876543210"}},
	}, nil)

	w := e.do(t, http.MethodGet, "/api/data?action=export", nil, nil)
	body := decodeBody(t, w)
	if list, _ := body["candidates"].([]any); len(list) != 1 {
		t.Fatalf("export = %s", w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/api/data", gin.H{"action": "clear_all"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("clear_all = %d", w.Code)
	}
	all, _ := e.store.List(context.Background())
	if len(all) != 0 {
		t.Fatalf("candidates after clear = %d", len(all))
	}
}
