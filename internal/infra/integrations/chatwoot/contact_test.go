package chatwoot

import (
	"context"
	"testing"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chatwoot"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
)

func contactConfig(mergeBrazil bool) *chatwoot.ChatwootConfig {
	inboxID := "7"
	return &chatwoot.ChatwootConfig{
		Enabled:     true,
		InboxID:     &inboxID,
		MergeBrazil: mergeBrazil,
	}
}

func TestResolveContactCreatesWhenMissing(t *testing.T) {
	t.Parallel()

	client := &fakeChatwootClient{}
	cs := NewContactSync(testLogger(), client, contactConfig(false))

	contact, err := cs.ResolveContact(context.Background(), "5511999999999@s.whatsapp.net", "Maria")
	if err != nil {
		t.Fatalf("ResolveContact: %v", err)
	}
	if contact.Name != "Maria" || contact.PhoneNumber != "+5511999999999" {
		t.Errorf("contact = %+v", contact)
	}
	if len(client.createdContacts) != 1 {
		t.Errorf("expected one contact created, got %d", len(client.createdContacts))
	}
	if client.createdContacts[0].Identifier != "5511999999999@s.whatsapp.net" {
		t.Errorf("identifier = %q", client.createdContacts[0].Identifier)
	}
}

func TestResolveContactReusesExisting(t *testing.T) {
	t.Parallel()

	client := &fakeChatwootClient{
		searchResults: map[string][]ports.ChatwootContact{
			"+5511999999999": {{ID: 33, PhoneNumber: "+5511999999999", Name: "Maria"}},
		},
	}
	cs := NewContactSync(testLogger(), client, contactConfig(false))

	contact, err := cs.ResolveContact(context.Background(), "5511999999999@s.whatsapp.net", "Maria")
	if err != nil {
		t.Fatalf("ResolveContact: %v", err)
	}
	if contact.ID != 33 {
		t.Errorf("contact ID = %d, want 33", contact.ID)
	}
	if len(client.createdContacts) != 0 {
		t.Error("existing contact should not be recreated")
	}
}

func TestResolveContactMergesBrazilianDuplicates(t *testing.T) {
	t.Parallel()

	// both spellings exist: 13-digit (base) and 12-digit (mergee)
	client := &fakeChatwootClient{
		filterResults: []ports.ChatwootContact{
			{ID: 1, PhoneNumber: "+551188888888"},
			{ID: 2, PhoneNumber: "+5511988888888"},
		},
	}
	cs := NewContactSync(testLogger(), client, contactConfig(true))

	contact, err := cs.ResolveContact(context.Background(), "5511988888888@s.whatsapp.net", "João")
	if err != nil {
		t.Fatalf("ResolveContact: %v", err)
	}
	if contact.ID != 2 {
		t.Errorf("resolved contact ID = %d, want the nine-digit spelling (2)", contact.ID)
	}
	if len(client.merges) != 1 {
		t.Fatalf("expected one merge, got %d", len(client.merges))
	}
	if client.merges[0] != [2]int{2, 1} {
		t.Errorf("merge = %v, want base 2 absorbing 1", client.merges[0])
	}
}

func TestResolveContactBrazilianSingleSpelling(t *testing.T) {
	t.Parallel()

	client := &fakeChatwootClient{
		filterResults: []ports.ChatwootContact{
			{ID: 5, PhoneNumber: "+551188888888"},
		},
	}
	cs := NewContactSync(testLogger(), client, contactConfig(true))

	contact, err := cs.ResolveContact(context.Background(), "5511988888888@s.whatsapp.net", "João")
	if err != nil {
		t.Fatalf("ResolveContact: %v", err)
	}
	if contact.ID != 5 {
		t.Errorf("contact ID = %d, want 5", contact.ID)
	}
	if len(client.merges) != 0 {
		t.Error("a single spelling has nothing to merge")
	}
}

func TestResolveContactBrazilianCreatesNineDigit(t *testing.T) {
	t.Parallel()

	client := &fakeChatwootClient{}
	cs := NewContactSync(testLogger(), client, contactConfig(true))

	contact, err := cs.ResolveContact(context.Background(), "551188888888@s.whatsapp.net", "João")
	if err != nil {
		t.Fatalf("ResolveContact: %v", err)
	}
	// new contacts always get the nine-digit spelling
	if contact.PhoneNumber != "+5511988888888" {
		t.Errorf("PhoneNumber = %q, want +5511988888888", contact.PhoneNumber)
	}
}

func TestResolveContactGroup(t *testing.T) {
	t.Parallel()

	jid := "123456789-987654@g.us"
	client := &fakeChatwootClient{
		searchResults: map[string][]ports.ChatwootContact{
			jid: {{ID: 9, Identifier: jid, Name: "Family Group"}},
		},
	}
	cs := NewContactSync(testLogger(), client, contactConfig(false))

	contact, err := cs.ResolveContact(context.Background(), jid, "Family Group")
	if err != nil {
		t.Fatalf("ResolveContact: %v", err)
	}
	if contact.ID != 9 {
		t.Errorf("contact ID = %d, want 9", contact.ID)
	}
}

func TestResolveContactRequiresInbox(t *testing.T) {
	t.Parallel()

	cs := NewContactSync(testLogger(), &fakeChatwootClient{}, &chatwoot.ChatwootConfig{Enabled: true})

	if _, err := cs.ResolveContact(context.Background(), "5511999999999@s.whatsapp.net", "Maria"); err == nil {
		t.Error("missing inbox should fail")
	}
}
