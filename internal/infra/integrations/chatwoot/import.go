package chatwoot

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chatwoot"
	"github.com/felipyfgs/onwapp-sub000/internal/infra/wameow"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// Importer empurra para o Chatwoot o histórico persistido que ainda não
// tem correlação, lendo as linhas direto do Postgres
type Importer struct {
	logger *logger.Logger
	db     *sqlx.DB
	bridge *Bridge

	batchSize    int
	syncMaxHours int
	scheduler    *cron.Cron
}

// ImportResult resume uma execução de importação
type ImportResult struct {
	SessionID            string        `json:"sessionId"`
	Status               string        `json:"status"`
	MessagesImported     int           `json:"messagesImported"`
	MessagesFailed       int           `json:"messagesFailed"`
	ContactsImported     int           `json:"contactsImported"`
	ConversationsTouched int           `json:"conversationsTouched"`
	Duration             time.Duration `json:"duration"`
	Errors               []string      `json:"errors,omitempty"`
}

type importRow struct {
	SessionID uuid.UUID      `db:"sessionId"`
	ChatJid   string         `db:"chatJid"`
	SenderJid string         `db:"senderJid"`
	MsgID     string         `db:"msgId"`
	Type      string         `db:"type"`
	Content   sql.NullString `db:"content"`
	FromMe    bool           `db:"fromMe"`
	Timestamp time.Time      `db:"timestamp"`
	PushName  sql.NullString `db:"pushName"`
}

const importQuery = `
	SELECT m."sessionId", m."chatJid", m."senderJid", m."msgId", m."type",
	       m."content", m."fromMe", m."timestamp", c."pushName"
	FROM "onwMessages" m
	LEFT JOIN "onwContacts" c
	       ON c."sessionId" = m."sessionId" AND c."jid" = m."senderJid"
	WHERE m."sessionId" = $1
	  AND m."timestamp" >= $2
	  AND m."cwMessageId" IS NULL
	ORDER BY m."timestamp" ASC
	LIMIT $3
`

const pendingImportQuery = `
	SELECT COUNT(*) FROM "onwMessages"
	WHERE "sessionId" = $1 AND "cwMessageId" IS NULL
`

const importContactsQuery = `
	SELECT "jid", COALESCE("name", "pushName", '') AS "name"
	FROM "onwContacts"
	WHERE "sessionId" = $1
	ORDER BY "createdAt" ASC
`

const enabledSessionsQuery = `
	SELECT "sessionId" FROM "onwChatwoot"
	WHERE "enabled" = TRUE AND "importMessages" = TRUE
`

func NewImporter(log *logger.Logger, db *sqlx.DB, bridge *Bridge) *Importer {
	batchSize := bridge.importCfg.ImportBatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Importer{
		logger:       log.WithModule("chatwoot-import"),
		db:           db,
		bridge:       bridge,
		batchSize:    batchSize,
		syncMaxHours: bridge.importCfg.SyncMaxHours,
	}
}

// ImportHistory importa o histórico não correlacionado dos últimos
// importDays da sessão, em lotes, deduplicado pela correlação existente
func (im *Importer) ImportHistory(ctx context.Context, sessionID string) (*ImportResult, error) {
	start := time.Now()

	client, cfg, err := im.bridge.manager.GetClient(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("chatwoot is not configured: %w", err)
	}
	if !cfg.ImportMessages {
		return &ImportResult{SessionID: sessionID, Status: "skipped"}, nil
	}

	days := cfg.ImportDays
	if days <= 0 {
		days = 60
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	result, err := im.importSince(ctx, sessionID, cutoff, client, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.ImportContacts {
		imported, err := im.ImportContacts(ctx, sessionID)
		if err != nil {
			im.logger.WarnWithFields("Contact import failed", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
		result.ContactsImported = imported
	}
	result.Duration = time.Since(start)

	im.logger.InfoWithFields("History import completed", map[string]interface{}{
		"session_id":            sessionID,
		"messages_imported":     result.MessagesImported,
		"messages_failed":       result.MessagesFailed,
		"contacts_imported":     result.ContactsImported,
		"conversations_touched": result.ConversationsTouched,
		"duration":              result.Duration.String(),
	})
	return result, nil
}

// ImportContacts cria no Chatwoot os contatos conhecidos da sessão. Enquanto
// ainda houver mensagens aguardando importação a execução é adiada, porque a
// importação de mensagens resolve os mesmos contatos com contexto melhor.
func (im *Importer) ImportContacts(ctx context.Context, sessionID string) (int, error) {
	client, cfg, err := im.bridge.manager.GetClient(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("chatwoot is not configured: %w", err)
	}
	if !cfg.ImportContacts {
		return 0, nil
	}

	sessionUUID, err := uuid.Parse(sessionID)
	if err != nil {
		return 0, fmt.Errorf("invalid session ID: %w", err)
	}

	var pending int
	if err := im.db.GetContext(ctx, &pending, pendingImportQuery, sessionUUID); err != nil {
		return 0, fmt.Errorf("failed to count pending messages: %w", err)
	}
	if pending > 0 {
		im.logger.InfoWithFields("Contact import deferred, messages still buffered", map[string]interface{}{
			"session_id": sessionID,
			"pending":    pending,
		})
		return 0, nil
	}

	var rows []struct {
		Jid  string `db:"jid"`
		Name string `db:"name"`
	}
	if err := im.db.SelectContext(ctx, &rows, importContactsQuery, sessionUUID); err != nil {
		return 0, fmt.Errorf("failed to load contacts: %w", err)
	}

	contactSync := NewContactSync(im.logger, client, cfg)

	imported := 0
	for _, row := range rows {
		if wameow.IsGroupJID(row.Jid) || cfg.ShouldIgnoreJid(row.Jid) {
			continue
		}
		if _, err := contactSync.ResolveContact(ctx, row.Jid, row.Name); err != nil {
			im.logger.DebugWithFields("Failed to import contact", map[string]interface{}{
				"session_id": sessionID,
				"jid":        row.Jid,
				"error":      err.Error(),
			})
			continue
		}
		imported++
	}

	return imported, nil
}

// SyncLostMessages reenvia mensagens sem correlação dentro da janela
// limitada por syncMaxHours; roda pelo agendador e sob demanda
func (im *Importer) SyncLostMessages(ctx context.Context, sessionID string) (*ImportResult, error) {
	start := time.Now()

	client, cfg, err := im.bridge.manager.GetClient(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("chatwoot is not configured: %w", err)
	}

	hours := im.syncMaxHours
	if hours <= 0 {
		hours = 72
	}
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

	result, err := im.importSince(ctx, sessionID, cutoff, client, cfg)
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)

	if result.MessagesImported > 0 {
		im.logger.InfoWithFields("Lost messages synced", map[string]interface{}{
			"session_id":        sessionID,
			"messages_imported": result.MessagesImported,
		})
	}
	return result, nil
}

func (im *Importer) importSince(ctx context.Context, sessionID string, cutoff time.Time, client ports.ChatwootClient, cfg *chatwoot.ChatwootConfig) (*ImportResult, error) {
	result := &ImportResult{SessionID: sessionID, Status: "completed"}

	sessionUUID, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID: %w", err)
	}

	contactSync := NewContactSync(im.logger, client, cfg)
	conversationSync := NewConversationSync(im.logger, client, cfg)

	// conversations resolved once per chat and labeled on first touch
	conversations := make(map[string]*ports.ChatwootConversation)

	for {
		var rows []importRow
		if err := im.db.SelectContext(ctx, &rows, importQuery, sessionUUID, cutoff, im.batchSize); err != nil {
			return nil, fmt.Errorf("failed to load unsynced messages: %w", err)
		}
		if len(rows) == 0 {
			break
		}

		progressed := false
		for i := range rows {
			if err := im.importMessage(ctx, client, contactSync, conversationSync, conversations, cfg, &rows[i]); err != nil {
				result.MessagesFailed++
				if len(result.Errors) < 10 {
					result.Errors = append(result.Errors, err.Error())
				}
				continue
			}
			result.MessagesImported++
			progressed = true
		}

		// if a whole batch failed the next query would return the same
		// rows and loop forever
		if !progressed {
			result.Status = "partial"
			break
		}
		if len(rows) < im.batchSize {
			break
		}
	}

	result.ConversationsTouched = len(conversations)
	return result, nil
}

func (im *Importer) importMessage(
	ctx context.Context,
	client ports.ChatwootClient,
	contactSync *ContactSync,
	conversationSync *ConversationSync,
	conversations map[string]*ports.ChatwootConversation,
	cfg *chatwoot.ChatwootConfig,
	row *importRow,
) error {
	if cfg.ShouldIgnoreJid(row.ChatJid) {
		return im.markSkipped(ctx, row)
	}

	conversation, ok := conversations[row.ChatJid]
	if !ok {
		name := ""
		if row.PushName.Valid {
			name = row.PushName.String
		}
		contact, err := contactSync.ResolveContact(ctx, row.ChatJid, name)
		if err != nil {
			return fmt.Errorf("resolve contact for %s: %w", row.ChatJid, err)
		}
		conversation, err = conversationSync.ResolveConversation(ctx, contact, row.ChatJid)
		if err != nil {
			return fmt.Errorf("resolve conversation for %s: %w", row.ChatJid, err)
		}
		conversations[row.ChatJid] = conversation

		im.labelConversation(ctx, client, conversation.ID, cfg)
	}

	content := row.Content.String
	if row.Type != "text" && content == "" {
		content = fmt.Sprintf("[%s]", row.Type)
	}
	content = fmt.Sprintf("%s\n\n_%s_", content, row.Timestamp.Format("02/01/2006 15:04"))

	messageType := "incoming"
	if row.FromMe {
		messageType = "outgoing"
	}

	sourceID := sourceIDPrefix + row.MsgID
	created, err := client.CreateMessage(ctx, conversation.ID, &ports.CreateMessageRequest{
		Content:     content,
		MessageType: messageType,
		SourceID:    sourceID,
	})
	if err != nil {
		return fmt.Errorf("create message %s: %w", row.MsgID, err)
	}

	if err := im.bridge.messageRepo.UpdateChatwootFields(ctx, row.SessionID, row.MsgID, conversation.ID, created.ID, sourceID); err != nil {
		return fmt.Errorf("persist correlation for %s: %w", row.MsgID, err)
	}
	return nil
}

// markSkipped marca a linha como processada para tirá-la da fila de
// importação sem criar nada no Chatwoot
func (im *Importer) markSkipped(ctx context.Context, row *importRow) error {
	const query = `
		UPDATE "onwMessages"
		SET "cwMessageId" = 0, "updatedAt" = NOW()
		WHERE "sessionId" = $1 AND "chatJid" = $2 AND "msgId" = $3
	`
	_, err := im.db.ExecContext(ctx, query, row.SessionID, row.ChatJid, row.MsgID)
	return err
}

func (im *Importer) labelConversation(ctx context.Context, client ports.ChatwootClient, conversationID int, cfg *chatwoot.ChatwootConfig) {
	label := "onwapp"
	if cfg.InboxName != nil && *cfg.InboxName != "" {
		label = strings.ToLower(strings.ReplaceAll(*cfg.InboxName, " ", "-"))
	}
	if err := client.AddConversationLabels(ctx, conversationID, []string{label, "imported"}); err != nil {
		im.logger.DebugWithFields("Failed to label conversation", map[string]interface{}{
			"conversation_id": conversationID,
			"error":           err.Error(),
		})
	}
}

// StartScheduler agenda a reconciliação periódica de mensagens perdidas
// para todas as sessões com importação habilitada
func (im *Importer) StartScheduler() error {
	im.scheduler = cron.New()

	_, err := im.scheduler.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		var sessionIDs []uuid.UUID
		if err := im.db.SelectContext(ctx, &sessionIDs, enabledSessionsQuery); err != nil {
			im.logger.ErrorWithFields("Failed to list sessions for sync", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}

		for _, id := range sessionIDs {
			if _, err := im.SyncLostMessages(ctx, id.String()); err != nil {
				im.logger.WarnWithFields("Lost message sync failed", map[string]interface{}{
					"session_id": id.String(),
					"error":      err.Error(),
				})
			}
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule lost message sync: %w", err)
	}

	im.scheduler.Start()
	return nil
}

// StopScheduler para o agendador, aguardando a execução corrente
func (im *Importer) StopScheduler() {
	if im.scheduler != nil {
		<-im.scheduler.Stop().Done()
	}
}
