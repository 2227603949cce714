package handlers

import (
	"net/http"
	"time"

	"github.com/felipyfgs/onwapp-sub000/platform/database"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// HealthHandler reporta a saúde do serviço e do banco
type HealthHandler struct {
	*BaseHandler
	db        *database.Database
	startTime time.Time
}

func NewHealthHandler(log *logger.Logger, db *database.Database) *HealthHandler {
	return &HealthHandler{
		BaseHandler: NewBaseHandler(log, nil),
		db:          db,
		startTime:   time.Now(),
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	statusCode := http.StatusOK

	dbStatus := "ok"
	if err := h.db.Health(r.Context()); err != nil {
		dbStatus = err.Error()
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	h.writeJSON(w, statusCode, map[string]interface{}{
		"status":   status,
		"database": dbStatus,
		"uptime":   time.Since(h.startTime).String(),
	})
}
