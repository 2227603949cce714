package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/webhook"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

const (
	deliveryTimeout = 10 * time.Second
	queueSize       = 1000
)

// Dispatcher entrega eventos aos webhooks configurados por sessão.
// A entrega é at-most-once: uma tentativa de POST por evento, sem retry.
type Dispatcher struct {
	webhookRepo ports.WebhookRepository
	logger      *logger.Logger
	httpClient  *http.Client
	queue       chan *deliveryTask
	workers     int
}

type deliveryTask struct {
	config *webhook.WebhookConfig
	event  *webhook.WebhookEvent
}

// DeliveryResult descreve o resultado de uma tentativa de entrega
type DeliveryResult struct {
	StatusCode int           `json:"statusCode"`
	Latency    time.Duration `json:"latency"`
	Error      string        `json:"error,omitempty"`
	Success    bool          `json:"success"`
}

func NewDispatcher(log *logger.Logger, webhookRepo ports.WebhookRepository, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 5
	}

	return &Dispatcher{
		webhookRepo: webhookRepo,
		logger:      log.WithModule("webhook"),
		httpClient: &http.Client{
			Timeout: deliveryTimeout,
		},
		queue:   make(chan *deliveryTask, queueSize),
		workers: workers,
	}
}

// Start sobe o pool de workers; eles param quando o contexto for cancelado
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.InfoWithFields("Starting webhook dispatcher", map[string]interface{}{
		"workers": d.workers,
	})

	for i := 0; i < d.workers; i++ {
		go d.worker(ctx, i)
	}
}

func (d *Dispatcher) worker(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			d.logger.DebugWithFields("Stopping webhook worker", map[string]interface{}{
				"worker_id": workerID,
			})
			return
		case task := <-d.queue:
			result := d.deliver(ctx, task.config, task.event)
			d.logResult(task, result)
		}
	}
}

// DeliverEvent enfileira o evento para a sessão, respeitando o filtro de
// assinatura. Implementa wameow.WebhookSink.
func (d *Dispatcher) DeliverEvent(sessionID, eventType string, payload interface{}) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	config, err := d.webhookRepo.GetBySessionID(ctx, id)
	if err != nil {
		return
	}
	if !config.Enabled || !config.HasEvent(eventType) {
		return
	}

	event := webhook.NewWebhookEvent(sessionID, eventType, payload)

	select {
	case d.queue <- &deliveryTask{config: config, event: event}:
	default:
		d.logger.WarnWithFields("Webhook queue is full, dropping event", map[string]interface{}{
			"session_id": sessionID,
			"event_type": eventType,
		})
	}
}

// TestDelivery envia um evento sintético pelo mesmo caminho da entrega
// normal e devolve o resultado de forma síncrona
func (d *Dispatcher) TestDelivery(ctx context.Context, config *webhook.WebhookConfig) *DeliveryResult {
	event := webhook.NewWebhookEvent(config.SessionID.String(), "WebhookTest", map[string]interface{}{
		"message": "Webhook test delivery",
	})
	result := d.deliver(ctx, config, event)
	d.logResult(&deliveryTask{config: config, event: event}, result)
	return result
}

func (d *Dispatcher) deliver(ctx context.Context, config *webhook.WebhookConfig, event *webhook.WebhookEvent) *DeliveryResult {
	startTime := time.Now()

	payloadBytes, err := json.Marshal(event)
	if err != nil {
		return &DeliveryResult{
			Success: false,
			Error:   fmt.Sprintf("failed to marshal payload: %v", err),
			Latency: time.Since(startTime),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.URL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return &DeliveryResult{
			Success: false,
			Error:   fmt.Sprintf("failed to create request: %v", err),
			Latency: time.Since(startTime),
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "onwapp-webhook/1.0")
	req.Header.Set("X-Webhook-Event", event.Event)
	req.Header.Set("X-Webhook-Session", event.SessionID)
	req.Header.Set("X-Webhook-Timestamp", fmt.Sprintf("%d", event.Timestamp.Unix()))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return &DeliveryResult{
			Success: false,
			Error:   fmt.Sprintf("request failed: %v", err),
			Latency: time.Since(startTime),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	return &DeliveryResult{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(startTime),
	}
}

func (d *Dispatcher) logResult(task *deliveryTask, result *DeliveryResult) {
	if result.Success {
		d.logger.InfoWithFields("Webhook delivered", map[string]interface{}{
			"session_id":  task.event.SessionID,
			"event_type":  task.event.Event,
			"status_code": result.StatusCode,
			"latency":     result.Latency.String(),
		})
		return
	}
	d.logger.ErrorWithFields("Webhook delivery failed", map[string]interface{}{
		"session_id":  task.event.SessionID,
		"event_type":  task.event.Event,
		"status_code": result.StatusCode,
		"error":       result.Error,
	})
}
