package chatwoot

import (
	"context"
	"fmt"
	"strings"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chatwoot"
	"github.com/felipyfgs/onwapp-sub000/internal/infra/wameow"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// ContactSync resolve contatos do WhatsApp em contatos do Chatwoot
type ContactSync struct {
	logger *logger.Logger
	client ports.ChatwootClient
	config *chatwoot.ChatwootConfig
}

func NewContactSync(log *logger.Logger, client ports.ChatwootClient, config *chatwoot.ChatwootConfig) *ContactSync {
	return &ContactSync{
		logger: log.WithModule("chatwoot-contact"),
		client: client,
		config: config,
	}
}

// ResolveContact encontra ou cria o contato para o JID informado.
// Para números brasileiros com merge habilitado, as duas grafias (com e
// sem o nono dígito) são procuradas e fundidas quando coexistem.
func (cs *ContactSync) ResolveContact(ctx context.Context, jid, name string) (*ports.ChatwootContact, error) {
	inboxID, err := cs.inboxID()
	if err != nil {
		return nil, err
	}

	if wameow.IsGroupJID(jid) {
		return cs.resolveGroupContact(ctx, jid, name, inboxID)
	}

	phone := wameow.ExtractPhoneFromJID(jid)
	if phone == "" {
		return nil, fmt.Errorf("cannot extract phone from jid %s", jid)
	}

	if cs.config.MergeBrazil {
		if contact, err := cs.resolveBrazilianContact(ctx, phone, name, inboxID); err == nil && contact != nil {
			return contact, nil
		} else if err != nil {
			cs.logger.WarnWithFields("Brazilian contact merge failed, falling back to search", map[string]interface{}{
				"phone": phone,
				"error": err.Error(),
			})
		}
	}

	contacts, err := cs.client.SearchContact(ctx, "+"+phone)
	if err != nil {
		return nil, fmt.Errorf("failed to search contact: %w", err)
	}
	if match := pickContactByPhone(contacts, phone); match != nil {
		return match, nil
	}

	if name == "" {
		name = phone
	}
	contact, err := cs.client.CreateContact(ctx, inboxID, "+"+phone, name, jid)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	cs.logger.InfoWithFields("Chatwoot contact created", map[string]interface{}{
		"contact_id": contact.ID,
		"phone":      phone,
	})
	return contact, nil
}

// resolveGroupContact usa o JID do grupo como identificador, sem telefone
func (cs *ContactSync) resolveGroupContact(ctx context.Context, jid, name string, inboxID int) (*ports.ChatwootContact, error) {
	contacts, err := cs.client.SearchContact(ctx, jid)
	if err != nil {
		return nil, fmt.Errorf("failed to search group contact: %w", err)
	}
	for i := range contacts {
		if contacts[i].Identifier == jid {
			return &contacts[i], nil
		}
	}

	if name == "" {
		name = jid
	}
	contact, err := cs.client.CreateContact(ctx, inboxID, "", name, jid)
	if err != nil {
		return nil, fmt.Errorf("failed to create group contact: %w", err)
	}
	return contact, nil
}

// resolveBrazilianContact procura as duas grafias do número e funde as
// duplicatas, mantendo como base o contato com o nono dígito
func (cs *ContactSync) resolveBrazilianContact(ctx context.Context, phone, name string, inboxID int) (*ports.ChatwootContact, error) {
	alternative := strings.TrimPrefix(wameow.GetBrazilianAlternativeNumber(phone), "+")
	if alternative == "" {
		return nil, nil
	}

	nineDigit := phone
	if len(alternative) > len(phone) {
		nineDigit = alternative
	}

	contacts, err := cs.client.FilterContacts(ctx, []string{"+" + phone, "+" + alternative})
	if err != nil {
		return nil, fmt.Errorf("failed to filter contacts: %w", err)
	}

	var base, mergee *ports.ChatwootContact
	for i := range contacts {
		candidate := strings.TrimPrefix(contacts[i].PhoneNumber, "+")
		switch candidate {
		case nineDigit:
			base = &contacts[i]
		case phone, alternative:
			mergee = &contacts[i]
		}
	}

	switch {
	case base != nil && mergee != nil && base.ID != mergee.ID:
		if err := cs.client.MergeContacts(ctx, base.ID, mergee.ID); err != nil {
			cs.logger.ErrorWithFields("Failed to merge Brazilian contacts", map[string]interface{}{
				"base_contact_id":  base.ID,
				"merge_contact_id": mergee.ID,
				"error":            err.Error(),
			})
		}
		return base, nil
	case base != nil:
		return base, nil
	case mergee != nil:
		return mergee, nil
	}

	if name == "" {
		name = nineDigit
	}
	contact, err := cs.client.CreateContact(ctx, inboxID, "+"+nineDigit, name, nineDigit+"@s.whatsapp.net")
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return contact, nil
}

func (cs *ContactSync) inboxID() (int, error) {
	if cs.config.InboxID == nil || *cs.config.InboxID == "" {
		return 0, fmt.Errorf("chatwoot inbox is not configured")
	}
	var id int
	if _, err := fmt.Sscanf(*cs.config.InboxID, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid inbox ID %q: %w", *cs.config.InboxID, err)
	}
	return id, nil
}

func pickContactByPhone(contacts []ports.ChatwootContact, phone string) *ports.ChatwootContact {
	for i := range contacts {
		if strings.TrimPrefix(contacts[i].PhoneNumber, "+") == phone {
			return &contacts[i]
		}
	}
	if len(contacts) > 0 {
		return &contacts[0]
	}
	return nil
}
