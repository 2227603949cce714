package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mau.fi/whatsmeow/proto/waE2E"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chatwoot"
	"github.com/felipyfgs/onwapp-sub000/internal/domain/session"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/config"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

func testLogger() *logger.Logger {
	return logger.New(config.LogConfig{Level: "error", Format: "console", Output: "stderr"})
}

type fakeSessionRepo struct {
	sessions map[string]*session.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*session.Session)}
}

func (f *fakeSessionRepo) Create(ctx context.Context, sess *session.Session) error {
	for _, s := range f.sessions {
		if s.Name == sess.Name {
			return session.ErrSessionAlreadyExists
		}
	}
	f.sessions[sess.ID.String()] = sess
	return nil
}

func (f *fakeSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	if s, ok := f.sessions[id.String()]; ok {
		return s, nil
	}
	return nil, session.ErrSessionNotFound
}

func (f *fakeSessionRepo) GetByName(ctx context.Context, name string) (*session.Session, error) {
	for _, s := range f.sessions {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, session.ErrSessionNotFound
}

func (f *fakeSessionRepo) List(ctx context.Context) ([]*session.Session, error) {
	var out []*session.Session
	for _, s := range f.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSessionRepo) ListByStatus(ctx context.Context, status string) ([]*session.Session, error) {
	var out []*session.Session
	for _, s := range f.sessions {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) Update(ctx context.Context, sess *session.Session) error {
	f.sessions[sess.ID.String()] = sess
	return nil
}

func (f *fakeSessionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if s, ok := f.sessions[id.String()]; ok {
		s.Status = status
	}
	return nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.sessions, id.String())
	return nil
}

var _ ports.SessionRepository = (*fakeSessionRepo)(nil)

type stubManager struct {
	connected bool
	qr        *session.QRCodeResponse
}

func (s *stubManager) CreateSession(ctx context.Context, sessionID string) error  { return nil }
func (s *stubManager) ConnectSession(ctx context.Context, sessionID string) error { return nil }
func (s *stubManager) DisconnectSession(sessionID string) error                   { return nil }
func (s *stubManager) LogoutSession(ctx context.Context, sessionID string) error  { return nil }
func (s *stubManager) DeleteSession(ctx context.Context, sessionID string) error  { return nil }

func (s *stubManager) GetQRCode(sessionID string) (*session.QRCodeResponse, error) {
	if s.qr == nil {
		return nil, errors.New("no QR code")
	}
	return s.qr, nil
}

func (s *stubManager) IsConnected(sessionID string) bool { return s.connected }

func (s *stubManager) SendText(ctx context.Context, sessionID, to, body string) (*ports.SendResult, error) {
	return &ports.SendResult{MessageID: "WA-1"}, nil
}

func (s *stubManager) SendMedia(ctx context.Context, sessionID, to string, media []byte, mimeType, caption, filename string) (*ports.SendResult, error) {
	return &ports.SendResult{MessageID: "WA-2"}, nil
}

func (s *stubManager) RevokeMessage(ctx context.Context, sessionID, to, messageID string) error {
	return nil
}

func (s *stubManager) IsOnWhatsApp(ctx context.Context, sessionID string, phones []string) (map[string]string, error) {
	return nil, nil
}

func (s *stubManager) DownloadMedia(ctx context.Context, sessionID string, msg *waE2E.Message) ([]byte, string, error) {
	return nil, "", errors.New("not available")
}

var _ ports.WameowManager = (*stubManager)(nil)

type stubChatwootManager struct{}

func (s *stubChatwootManager) GetClient(ctx context.Context, sessionID string) (ports.ChatwootClient, *chatwoot.ChatwootConfig, error) {
	return nil, nil, chatwoot.ErrConfigNotFound
}

func (s *stubChatwootManager) IsEnabled(ctx context.Context, sessionID string) bool { return false }

func (s *stubChatwootManager) SetConfig(ctx context.Context, sessionID string, req *chatwoot.SetConfigRequest) (*chatwoot.ChatwootConfig, error) {
	return nil, nil
}

func (s *stubChatwootManager) GetConfig(ctx context.Context, sessionID string) (*chatwoot.ChatwootConfig, error) {
	return nil, chatwoot.ErrConfigNotFound
}

func (s *stubChatwootManager) Cleanup(sessionID string) {}

var _ ports.ChatwootManager = (*stubChatwootManager)(nil)

func sessionTestRouter(repo *fakeSessionRepo, manager *stubManager) http.Handler {
	log := testLogger()
	resolver := NewSessionResolver(log, repo)
	h := NewSessionHandler(log, resolver, repo, manager, &stubChatwootManager{})

	r := chi.NewRouter()
	r.Post("/sessions/create", h.Create)
	r.Get("/sessions/{sessionId}/info", h.Info)
	r.Get("/sessions/{sessionId}/qr", h.QR)
	r.Delete("/sessions/{sessionId}/delete", h.Delete)
	return r
}

func TestSessionCreate(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	router := sessionTestRouter(repo, &stubManager{})

	body, _ := json.Marshal(map[string]string{"name": "my-session"})
	req := httptest.NewRequest(http.MethodPost, "/sessions/create", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(repo.sessions) != 1 {
		t.Errorf("expected one stored session, got %d", len(repo.sessions))
	}
}

func TestSessionCreateRejectsBadNames(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"1bad", "ab", "create", "has space"} {
		repo := newFakeSessionRepo()
		router := sessionTestRouter(repo, &stubManager{})

		body, _ := json.Marshal(map[string]string{"name": name})
		req := httptest.NewRequest(http.MethodPost, "/sessions/create", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("name %q: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestSessionCreateDuplicate(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	repo.sessions["x"] = session.NewSession("my-session")
	router := sessionTestRouter(repo, &stubManager{})

	body, _ := json.Marshal(map[string]string{"name": "my-session"})
	req := httptest.NewRequest(http.MethodPost, "/sessions/create", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestSessionInfoByNameAndByID(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	sess := session.NewSession("my-session")
	repo.sessions[sess.ID.String()] = sess
	router := sessionTestRouter(repo, &stubManager{connected: true})

	for _, ref := range []string{sess.ID.String(), "my-session"} {
		req := httptest.NewRequest(http.MethodGet, "/sessions/"+ref+"/info", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("ref %q: status = %d, body = %s", ref, rec.Code, rec.Body.String())
			continue
		}
		var resp SuccessResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response: %v", err)
		}
		data := resp.Data.(map[string]interface{})
		if data["connected"] != true {
			t.Errorf("ref %q: connected = %v", ref, data["connected"])
		}
	}
}

func TestSessionInfoNotFound(t *testing.T) {
	t.Parallel()

	router := sessionTestRouter(newFakeSessionRepo(), &stubManager{})

	req := httptest.NewRequest(http.MethodGet, "/sessions/ghost/info", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSessionQRNotAvailable(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	sess := session.NewSession("my-session")
	repo.sessions[sess.ID.String()] = sess
	router := sessionTestRouter(repo, &stubManager{})

	req := httptest.NewRequest(http.MethodGet, "/sessions/my-session/qr", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSessionDelete(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	sess := session.NewSession("my-session")
	repo.sessions[sess.ID.String()] = sess
	router := sessionTestRouter(repo, &stubManager{})

	req := httptest.NewRequest(http.MethodDelete, "/sessions/my-session/delete", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(repo.sessions) != 0 {
		t.Error("session row should be gone")
	}
}
