package chatwoot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// Client implementa ports.ChatwootClient sobre a API REST do Chatwoot
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	baseURL    string
	token      string
	accountID  string
}

func NewClient(baseURL, token, accountID string, log *logger.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		token:     token,
		accountID: accountID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.WithModule("chatwoot-client"),
	}
}

// ============================================================================
// INBOX OPERATIONS
// ============================================================================

func (c *Client) CreateInbox(ctx context.Context, name, webhookURL string) (*ports.ChatwootInbox, error) {
	payload := map[string]interface{}{
		"name": name,
		"channel": map[string]interface{}{
			"type":        "api",
			"webhook_url": webhookURL,
		},
	}

	var inbox ports.ChatwootInbox
	if err := c.makeRequest(ctx, http.MethodPost, "/inboxes", payload, &inbox); err != nil {
		return nil, fmt.Errorf("failed to create inbox: %w", err)
	}
	return &inbox, nil
}

func (c *Client) ListInboxes(ctx context.Context) ([]ports.ChatwootInbox, error) {
	var response struct {
		Payload []ports.ChatwootInbox `json:"payload"`
	}

	if err := c.makeRequest(ctx, http.MethodGet, "/inboxes", nil, &response); err != nil {
		return nil, fmt.Errorf("failed to list inboxes: %w", err)
	}
	return response.Payload, nil
}

func (c *Client) GetInbox(ctx context.Context, inboxID int) (*ports.ChatwootInbox, error) {
	var inbox ports.ChatwootInbox
	if err := c.makeRequest(ctx, http.MethodGet, fmt.Sprintf("/inboxes/%d", inboxID), nil, &inbox); err != nil {
		return nil, fmt.Errorf("failed to get inbox: %w", err)
	}
	return &inbox, nil
}

// ============================================================================
// CONTACT OPERATIONS
// ============================================================================

func (c *Client) CreateContact(ctx context.Context, inboxID int, phone, name, identifier string) (*ports.ChatwootContact, error) {
	payload := map[string]interface{}{
		"name":         name,
		"phone_number": phone,
		"inbox_id":     inboxID,
	}
	if identifier != "" {
		payload["identifier"] = identifier
	}

	// Chatwoot wraps creation responses in a payload envelope
	var response struct {
		Payload struct {
			Contact ports.ChatwootContact `json:"contact"`
		} `json:"payload"`
	}
	if err := c.makeRequest(ctx, http.MethodPost, "/contacts", payload, &response); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return &response.Payload.Contact, nil
}

func (c *Client) SearchContact(ctx context.Context, query string) ([]ports.ChatwootContact, error) {
	var response struct {
		Payload []ports.ChatwootContact `json:"payload"`
	}

	endpoint := fmt.Sprintf("/contacts/search?q=%s", url.QueryEscape(query))
	if err := c.makeRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to search contact: %w", err)
	}
	return response.Payload, nil
}

// FilterContacts busca contatos por uma lista de números usando o endpoint
// de filtro avançado, necessário para detectar duplicatas brasileiras
func (c *Client) FilterContacts(ctx context.Context, phoneNumbers []string) ([]ports.ChatwootContact, error) {
	query := make([]map[string]interface{}, 0, len(phoneNumbers))
	for i, phone := range phoneNumbers {
		filter := map[string]interface{}{
			"attribute_key":     "phone_number",
			"filter_operator":   "equal_to",
			"values":            []string{phone},
			"attribute_model":   "standard",
			"custom_attribute_type": "",
		}
		if i < len(phoneNumbers)-1 {
			filter["query_operator"] = "OR"
		}
		query = append(query, filter)
	}

	payload := map[string]interface{}{
		"payload": query,
	}

	var response struct {
		Payload []ports.ChatwootContact `json:"payload"`
	}
	if err := c.makeRequest(ctx, http.MethodPost, "/contacts/filter", payload, &response); err != nil {
		return nil, fmt.Errorf("failed to filter contacts: %w", err)
	}
	return response.Payload, nil
}

func (c *Client) MergeContacts(ctx context.Context, baseContactID, mergeContactID int) error {
	c.logger.InfoWithFields("Merging Chatwoot contacts", map[string]interface{}{
		"base_contact_id":  baseContactID,
		"merge_contact_id": mergeContactID,
	})

	payload := map[string]interface{}{
		"base_contact_id":   baseContactID,
		"mergee_contact_id": mergeContactID,
	}

	if err := c.makeRequest(ctx, http.MethodPost, "/actions/contact_merge", payload, nil); err != nil {
		return fmt.Errorf("failed to merge contacts: %w", err)
	}
	return nil
}

// ============================================================================
// CONVERSATION OPERATIONS
// ============================================================================

func (c *Client) CreateConversation(ctx context.Context, contactID, inboxID int, sourceID string) (*ports.ChatwootConversation, error) {
	payload := map[string]interface{}{
		"contact_id": contactID,
		"inbox_id":   inboxID,
	}
	if sourceID != "" {
		payload["source_id"] = sourceID
	}

	var conversation ports.ChatwootConversation
	if err := c.makeRequest(ctx, http.MethodPost, "/conversations", payload, &conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conversation, nil
}

func (c *Client) ListContactConversations(ctx context.Context, contactID int) ([]ports.ChatwootConversation, error) {
	var response struct {
		Payload []ports.ChatwootConversation `json:"payload"`
	}

	endpoint := fmt.Sprintf("/contacts/%d/conversations", contactID)
	if err := c.makeRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to list contact conversations: %w", err)
	}
	return response.Payload, nil
}

func (c *Client) ToggleConversationStatus(ctx context.Context, conversationID int, status string) error {
	payload := map[string]interface{}{
		"status": status,
	}

	endpoint := fmt.Sprintf("/conversations/%d/toggle_status", conversationID)
	if err := c.makeRequest(ctx, http.MethodPost, endpoint, payload, nil); err != nil {
		return fmt.Errorf("failed to toggle conversation status: %w", err)
	}
	return nil
}

func (c *Client) AddConversationLabels(ctx context.Context, conversationID int, labels []string) error {
	payload := map[string]interface{}{
		"labels": labels,
	}

	endpoint := fmt.Sprintf("/conversations/%d/labels", conversationID)
	if err := c.makeRequest(ctx, http.MethodPost, endpoint, payload, nil); err != nil {
		return fmt.Errorf("failed to add conversation labels: %w", err)
	}
	return nil
}

// ============================================================================
// MESSAGE OPERATIONS
// ============================================================================

func (c *Client) CreateMessage(ctx context.Context, conversationID int, req *ports.CreateMessageRequest) (*ports.ChatwootMessage, error) {
	var message ports.ChatwootMessage
	endpoint := fmt.Sprintf("/conversations/%d/messages", conversationID)
	if err := c.makeRequest(ctx, http.MethodPost, endpoint, req, &message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return &message, nil
}

// CreateMediaMessage envia o anexo como multipart/form-data
func (c *Client) CreateMediaMessage(ctx context.Context, conversationID int, req *ports.CreateMessageRequest, attachment io.Reader, filename, mimeType string) (*ports.ChatwootMessage, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if req.Content != "" {
		if err := writer.WriteField("content", req.Content); err != nil {
			return nil, fmt.Errorf("failed to write content field: %w", err)
		}
	}
	if err := writer.WriteField("message_type", req.MessageType); err != nil {
		return nil, fmt.Errorf("failed to write message_type field: %w", err)
	}
	if req.SourceID != "" {
		if err := writer.WriteField("source_id", req.SourceID); err != nil {
			return nil, fmt.Errorf("failed to write source_id field: %w", err)
		}
	}

	part, err := writer.CreateFormFile("attachments[]", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachment part: %w", err)
	}
	if _, err := io.Copy(part, attachment); err != nil {
		return nil, fmt.Errorf("failed to copy attachment: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/accounts/%s/conversations/%d/messages", c.baseURL, c.accountID, conversationID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("api_access_token", c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send media message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("media upload failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var message ports.ChatwootMessage
	if err := json.NewDecoder(resp.Body).Decode(&message); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &message, nil
}

func (c *Client) DeleteMessage(ctx context.Context, conversationID, messageID int) error {
	endpoint := fmt.Sprintf("/conversations/%d/messages/%d", conversationID, messageID)
	if err := c.makeRequest(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// ============================================================================
// HTTP CLIENT UTILITIES
// ============================================================================

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, payload interface{}, result interface{}) error {
	fullURL := fmt.Sprintf("%s/api/v1/accounts/%s%s", c.baseURL, c.accountID, endpoint)

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api_access_token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("API request failed with status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

var _ ports.ChatwootClient = (*Client)(nil)
