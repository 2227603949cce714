package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/felipyfgs/onwapp-sub000/platform/config"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// Database wrapper para sqlx.DB com funcionalidades específicas
type Database struct {
	*sqlx.DB
	config config.DatabaseConfig
	logger *logger.Logger
}

// New cria nova conexão com banco de dados
func New(cfg config.DatabaseConfig, log *logger.Logger) (*Database, error) {
	db, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		DB:     db,
		config: cfg,
		logger: log,
	}, nil
}

// NewFromAppConfig cria database a partir da configuração da aplicação
func NewFromAppConfig(appConfig *config.Config, log *logger.Logger) (*Database, error) {
	return New(appConfig.Database, log)
}

// Close fecha conexão com banco de dados
func (d *Database) Close() error {
	d.logger.InfoWithFields("Closing database connection", map[string]interface{}{
		"module": "database",
	})
	return d.DB.Close()
}

// Health verifica saúde da conexão
func (d *Database) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return d.PingContext(ctx)
}

// Transaction executa função dentro de uma transação
func (d *Database) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := d.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				d.logger.ErrorWithFields("Failed to rollback transaction after panic", map[string]interface{}{
					"error": rollbackErr.Error(),
					"panic": p,
				})
			}
			panic(p)
		} else if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				d.logger.ErrorWithFields("Failed to rollback transaction", map[string]interface{}{
					"error":          rollbackErr.Error(),
					"original_error": err.Error(),
				})
			}
		} else {
			if commitErr := tx.Commit(); commitErr != nil {
				err = fmt.Errorf("failed to commit transaction: %w", commitErr)
			}
		}
	}()

	err = fn(tx)
	return err
}

// Stats retorna estatísticas do pool de conexões
func (d *Database) Stats() sql.DBStats {
	return d.DB.Stats()
}

// GetConfig retorna configuração do banco
func (d *Database) GetConfig() config.DatabaseConfig {
	return d.config
}

// ===== HEALTH CHECK =====

// HealthCheck estrutura para verificação de saúde
type HealthCheck struct {
	Status      string        `json:"status"`
	Latency     time.Duration `json:"latency"`
	Connections DBStats       `json:"connections"`
	Error       string        `json:"error,omitempty"`
}

// DBStats estatísticas do banco
type DBStats struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// PerformHealthCheck executa verificação completa de saúde
func (d *Database) PerformHealthCheck(ctx context.Context) HealthCheck {
	start := time.Now()

	err := d.Health(ctx)
	latency := time.Since(start)

	stats := d.Stats()
	healthCheck := HealthCheck{
		Latency: latency,
		Connections: DBStats{
			OpenConnections: stats.OpenConnections,
			InUse:           stats.InUse,
			Idle:            stats.Idle,
			WaitCount:       stats.WaitCount,
		},
	}

	if err != nil {
		healthCheck.Status = "unhealthy"
		healthCheck.Error = err.Error()
	} else {
		healthCheck.Status = "healthy"
	}

	return healthCheck
}
