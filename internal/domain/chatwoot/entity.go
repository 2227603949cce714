package chatwoot

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type ChatwootConfig struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SessionID uuid.UUID `json:"sessionId" db:"sessionId"`
	URL       string    `json:"url" db:"url"`
	Token     string    `json:"token" db:"token"`
	AccountID string    `json:"accountId" db:"accountId"`
	InboxID   *string   `json:"inboxId,omitempty" db:"inboxId"`
	Enabled   bool      `json:"enabled" db:"enabled"`

	InboxName      *string  `json:"inboxName,omitempty" db:"inboxName"`
	AutoCreate     bool     `json:"autoCreate" db:"autoCreate"`
	SignMsg        bool     `json:"signMsg" db:"signMsg"`
	SignDelimiter  string   `json:"signDelimiter" db:"signDelimiter"`
	ReopenConv     bool     `json:"reopenConv" db:"reopenConv"`
	ConvPending    bool     `json:"convPending" db:"convPending"`
	ImportContacts bool     `json:"importContacts" db:"importContacts"`
	ImportMessages bool     `json:"importMessages" db:"importMessages"`
	ImportDays     int      `json:"importDays" db:"importDays"`
	MergeBrazil    bool     `json:"mergeBrazil" db:"mergeBrazil"`
	Organization   *string  `json:"organization,omitempty" db:"organization"`
	Logo           *string  `json:"logo,omitempty" db:"logo"`
	Number         *string  `json:"number,omitempty" db:"number"`
	IgnoreJids     []string `json:"ignoreJids,omitempty" db:"ignoreJids"`

	CreatedAt time.Time `json:"createdAt" db:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" db:"updatedAt"`
}

var (
	ErrConfigNotFound       = errors.New("chatwoot config not found")
	ErrContactNotFound      = errors.New("chatwoot contact not found")
	ErrConversationNotFound = errors.New("chatwoot conversation not found")
	ErrChatwootAPIError     = errors.New("chatwoot API error")
)

type SetConfigRequest struct {
	URL       string  `json:"url" validate:"required,url"`
	Token     string  `json:"token" validate:"required"`
	AccountID string  `json:"accountId" validate:"required"`
	InboxID   *string `json:"inboxId,omitempty"`
	Enabled   *bool   `json:"enabled,omitempty"`

	InboxName      *string  `json:"inboxName,omitempty"`
	AutoCreate     *bool    `json:"autoCreate,omitempty"`
	SignMsg        *bool    `json:"signMsg,omitempty"`
	SignDelimiter  *string  `json:"signDelimiter,omitempty"`
	ReopenConv     *bool    `json:"reopenConv,omitempty"`
	ConvPending    *bool    `json:"convPending,omitempty"`
	ImportContacts *bool    `json:"importContacts,omitempty"`
	ImportMessages *bool    `json:"importMessages,omitempty"`
	ImportDays     *int     `json:"importDays,omitempty"`
	MergeBrazil    *bool    `json:"mergeBrazil,omitempty"`
	Organization   *string  `json:"organization,omitempty"`
	Logo           *string  `json:"logo,omitempty"`
	Number         *string  `json:"number,omitempty"`
	IgnoreJids     []string `json:"ignoreJids,omitempty"`
}

func NewChatwootConfig(sessionID uuid.UUID, req *SetConfigRequest) *ChatwootConfig {
	now := time.Now()
	cfg := &ChatwootConfig{
		ID:            uuid.New(),
		SessionID:     sessionID,
		URL:           req.URL,
		Token:         req.Token,
		AccountID:     req.AccountID,
		InboxID:       req.InboxID,
		Enabled:       true,
		SignDelimiter: "\n",
		ReopenConv:    true,
		ImportDays:    60,
		IgnoreJids:    req.IgnoreJids,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	cfg.apply(req)
	return cfg
}

// Update aplica campos opcionais do request sobre a configuração existente
func (c *ChatwootConfig) Update(req *SetConfigRequest) {
	c.URL = req.URL
	c.Token = req.Token
	c.AccountID = req.AccountID
	if req.InboxID != nil {
		c.InboxID = req.InboxID
	}
	if req.IgnoreJids != nil {
		c.IgnoreJids = req.IgnoreJids
	}
	c.apply(req)
	c.UpdatedAt = time.Now()
}

func (c *ChatwootConfig) apply(req *SetConfigRequest) {
	if req.Enabled != nil {
		c.Enabled = *req.Enabled
	}
	if req.InboxName != nil {
		c.InboxName = req.InboxName
	}
	if req.AutoCreate != nil {
		c.AutoCreate = *req.AutoCreate
	}
	if req.SignMsg != nil {
		c.SignMsg = *req.SignMsg
	}
	if req.SignDelimiter != nil {
		c.SignDelimiter = *req.SignDelimiter
	}
	if req.ReopenConv != nil {
		c.ReopenConv = *req.ReopenConv
	}
	if req.ConvPending != nil {
		c.ConvPending = *req.ConvPending
	}
	if req.ImportContacts != nil {
		c.ImportContacts = *req.ImportContacts
	}
	if req.ImportMessages != nil {
		c.ImportMessages = *req.ImportMessages
	}
	if req.ImportDays != nil {
		c.ImportDays = *req.ImportDays
	}
	if req.MergeBrazil != nil {
		c.MergeBrazil = *req.MergeBrazil
	}
	if req.Organization != nil {
		c.Organization = req.Organization
	}
	if req.Logo != nil {
		c.Logo = req.Logo
	}
	if req.Number != nil {
		c.Number = req.Number
	}
}

func (c *ChatwootConfig) IsConfigured() bool {
	return c.URL != "" && c.Token != "" && c.AccountID != ""
}

// ShouldIgnoreJid verifica se o JID está na lista de ignorados
func (c *ChatwootConfig) ShouldIgnoreJid(jid string) bool {
	for _, ignored := range c.IgnoreJids {
		if ignored == jid {
			return true
		}
	}
	return false
}

// WebhookPayload é o payload enviado pelo Chatwoot para o endpoint de entrada
type WebhookPayload struct {
	Event        string       `json:"event"`
	Account      Account      `json:"account"`
	Conversation Conversation `json:"conversation"`

	Sender struct {
		ID          int     `json:"id"`
		Name        string  `json:"name"`
		Email       *string `json:"email"`
		PhoneNumber string  `json:"phone_number"`
		Type        string  `json:"type"`
	} `json:"sender"`

	// Campos da mensagem, diretos no payload
	ID          int          `json:"id"`
	Content     string       `json:"content"`
	ContentType string       `json:"content_type"`
	MessageType string       `json:"message_type"`
	Private     bool         `json:"private"`
	SourceID    *string      `json:"source_id"`
	Attachments []Attachment `json:"attachments,omitempty"`

	ContentAttributes map[string]interface{} `json:"content_attributes,omitempty"`
	Inbox             map[string]interface{} `json:"inbox,omitempty"`
}

type Account struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Attachment struct {
	ID       int    `json:"id"`
	FileType string `json:"file_type"`
	DataURL  string `json:"data_url"`
	FileName string `json:"file_name,omitempty"`
}

type Conversation struct {
	ID        int    `json:"id"`
	ContactID int    `json:"contact_id,omitempty"`
	InboxID   int    `json:"inbox_id"`
	Status    string `json:"status"`

	Meta struct {
		Sender struct {
			PhoneNumber string `json:"phone_number"`
			Identifier  string `json:"identifier"`
		} `json:"sender"`
	} `json:"meta"`
}
