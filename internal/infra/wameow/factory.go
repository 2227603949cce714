package wameow

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// WameowLogger adapta o platform logger para a interface waLog.Logger
type WameowLogger struct {
	logger *logger.Logger
	module string
}

func NewWameowLogger(log *logger.Logger) waLog.Logger {
	return &WameowLogger{
		logger: log,
		module: "whatsmeow",
	}
}

func (w *WameowLogger) Errorf(msg string, args ...interface{}) {
	w.logger.ErrorWithFields(fmt.Sprintf(msg, args...), map[string]interface{}{
		"module": w.module,
	})
}

func (w *WameowLogger) Warnf(msg string, args ...interface{}) {
	w.logger.WarnWithFields(fmt.Sprintf(msg, args...), map[string]interface{}{
		"module": w.module,
	})
}

func (w *WameowLogger) Infof(msg string, args ...interface{}) {
	w.logger.DebugWithFields(fmt.Sprintf(msg, args...), map[string]interface{}{
		"module": w.module,
	})
}

func (w *WameowLogger) Debugf(msg string, args ...interface{}) {
	w.logger.DebugWithFields(fmt.Sprintf(msg, args...), map[string]interface{}{
		"module": w.module,
	})
}

func (w *WameowLogger) Sub(module string) waLog.Logger {
	return &WameowLogger{
		logger: w.logger,
		module: fmt.Sprintf("%s.%s", w.module, module),
	}
}

// NewContainer cria o container sqlstore do whatsmeow sobre a conexão
// Postgres compartilhada e aplica as migrações do próprio whatsmeow
func NewContainer(db *sql.DB, log *logger.Logger) (*sqlstore.Container, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	container := sqlstore.NewWithDB(db, "postgres", NewWameowLogger(log))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := container.Upgrade(ctx); err != nil {
		return nil, fmt.Errorf("failed to upgrade whatsmeow schema: %w", err)
	}

	return container, nil
}
