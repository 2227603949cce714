package wameow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/session"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/config"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

func testLogger() *logger.Logger {
	return logger.New(config.LogConfig{Level: "error", Format: "console", Output: "stderr"})
}

// statusRecordingRepo captures UpdateStatus calls
type statusRecordingRepo struct {
	mu       sync.Mutex
	statuses []string
}

func (f *statusRecordingRepo) Create(ctx context.Context, sess *session.Session) error { return nil }
func (f *statusRecordingRepo) GetByID(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	return nil, session.ErrSessionNotFound
}
func (f *statusRecordingRepo) GetByName(ctx context.Context, name string) (*session.Session, error) {
	return nil, session.ErrSessionNotFound
}
func (f *statusRecordingRepo) List(ctx context.Context) ([]*session.Session, error) {
	return nil, nil
}
func (f *statusRecordingRepo) ListByStatus(ctx context.Context, status string) ([]*session.Session, error) {
	return nil, nil
}
func (f *statusRecordingRepo) Update(ctx context.Context, sess *session.Session) error { return nil }
func (f *statusRecordingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}
func (f *statusRecordingRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

var _ ports.SessionRepository = (*statusRecordingRepo)(nil)

func (f *statusRecordingRepo) lastStatus() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return ""
	}
	return f.statuses[len(f.statuses)-1]
}

func waitForStatus(t *testing.T, repo *statusRecordingRepo) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if status := repo.lastStatus(); status != "" {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("no status persisted")
	return ""
}

func TestHandleDisconnectRestartRequired(t *testing.T) {
	t.Parallel()

	repo := &statusRecordingRepo{}
	m := NewManager(nil, repo, nil, nil, nil, testLogger())

	// a restart-required stream error means the session is coming back,
	// not going down
	m.handleDisconnect(uuid.NewString(), reasonRestartRequired)

	if status := waitForStatus(t, repo); status != session.StatusConnecting {
		t.Errorf("persisted status = %q, want %q", status, session.StatusConnecting)
	}
}

func TestHandleDisconnectOrdinary(t *testing.T) {
	t.Parallel()

	repo := &statusRecordingRepo{}
	m := NewManager(nil, repo, nil, nil, nil, testLogger())

	m.handleDisconnect(uuid.NewString(), reasonOther)

	if status := waitForStatus(t, repo); status != session.StatusDisconnected {
		t.Errorf("persisted status = %q, want %q", status, session.StatusDisconnected)
	}
}
