package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/session"
	"github.com/felipyfgs/onwapp-sub000/internal/domain/webhook"
	integration "github.com/felipyfgs/onwapp-sub000/internal/infra/integrations/webhook"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
)

type fakeWebhookRepo struct {
	configs map[string]*webhook.WebhookConfig
}

func newFakeWebhookRepo() *fakeWebhookRepo {
	return &fakeWebhookRepo{configs: make(map[string]*webhook.WebhookConfig)}
}

func (f *fakeWebhookRepo) Save(ctx context.Context, config *webhook.WebhookConfig) error {
	f.configs[config.SessionID.String()] = config
	return nil
}

func (f *fakeWebhookRepo) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*webhook.WebhookConfig, error) {
	if cfg, ok := f.configs[sessionID.String()]; ok {
		return cfg, nil
	}
	return nil, webhook.ErrWebhookNotFound
}

func (f *fakeWebhookRepo) Delete(ctx context.Context, sessionID uuid.UUID) error {
	delete(f.configs, sessionID.String())
	return nil
}

var _ ports.WebhookRepository = (*fakeWebhookRepo)(nil)

func webhookTestRouter(sessionRepo *fakeSessionRepo, webhookRepo *fakeWebhookRepo) http.Handler {
	log := testLogger()
	resolver := NewSessionResolver(log, sessionRepo)
	dispatcher := integration.NewDispatcher(log, webhookRepo, 1)
	h := NewWebhookHandler(log, resolver, webhookRepo, dispatcher)

	r := chi.NewRouter()
	r.Post("/sessions/{sessionId}/webhook/set", h.Set)
	r.Get("/sessions/{sessionId}/webhook/find", h.Find)
	return r
}

func TestWebhookSet(t *testing.T) {
	t.Parallel()

	sessionRepo := newFakeSessionRepo()
	sess := session.NewSession("my-session")
	sessionRepo.sessions[sess.ID.String()] = sess
	webhookRepo := newFakeWebhookRepo()
	router := webhookTestRouter(sessionRepo, webhookRepo)

	body, _ := json.Marshal(map[string]interface{}{
		"url":    "https://example.com/hook",
		"events": []string{"Message", "Receipt"},
	})
	req := httptest.NewRequest(http.MethodPost, "/sessions/my-session/webhook/set", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK && rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	saved := webhookRepo.configs[sess.ID.String()]
	if saved == nil {
		t.Fatal("config was not saved")
	}
	if saved.URL != "https://example.com/hook" || len(saved.Events) != 2 {
		t.Errorf("saved = %+v", saved)
	}
	if !saved.Enabled {
		t.Error("config should default to enabled")
	}
}

func TestWebhookSetRejectsUnknownEvents(t *testing.T) {
	t.Parallel()

	sessionRepo := newFakeSessionRepo()
	sess := session.NewSession("my-session")
	sessionRepo.sessions[sess.ID.String()] = sess
	router := webhookTestRouter(sessionRepo, newFakeWebhookRepo())

	body, _ := json.Marshal(map[string]interface{}{
		"url":    "https://example.com/hook",
		"events": []string{"Message", "NotAnEvent"},
	})
	req := httptest.NewRequest(http.MethodPost, "/sessions/my-session/webhook/set", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWebhookFindNotConfigured(t *testing.T) {
	t.Parallel()

	sessionRepo := newFakeSessionRepo()
	sess := session.NewSession("my-session")
	sessionRepo.sessions[sess.ID.String()] = sess
	router := webhookTestRouter(sessionRepo, newFakeWebhookRepo())

	req := httptest.NewRequest(http.MethodGet, "/sessions/my-session/webhook/find", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestWebhookFind(t *testing.T) {
	t.Parallel()

	sessionRepo := newFakeSessionRepo()
	sess := session.NewSession("my-session")
	sessionRepo.sessions[sess.ID.String()] = sess
	webhookRepo := newFakeWebhookRepo()
	webhookRepo.configs[sess.ID.String()] = webhook.NewWebhookConfig(sess.ID, "https://example.com/hook", []string{"Message"})
	router := webhookTestRouter(sessionRepo, webhookRepo)

	req := httptest.NewRequest(http.MethodGet, "/sessions/my-session/webhook/find", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
