package wameow

import "testing"

func TestNormalizeJID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare number", "5511999999999", "5511999999999@s.whatsapp.net"},
		{"plus prefix", "+5511999999999", "5511999999999@s.whatsapp.net"},
		{"formatted number", "+55 (11) 99999-9999", "5511999999999@s.whatsapp.net"},
		{"already a jid", "5511999999999@s.whatsapp.net", "5511999999999@s.whatsapp.net"},
		{"group jid untouched", "123456789-987654@g.us", "123456789-987654@g.us"},
		{"whitespace trimmed", "  5511999999999  ", "5511999999999@s.whatsapp.net"},
		{"non numeric passthrough", "not-a-phone", "not-a-phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeJID(tt.input); got != tt.want {
				t.Errorf("NormalizeJID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseJID(t *testing.T) {
	t.Parallel()

	jid, err := ParseJID("5511999999999")
	if err != nil {
		t.Fatalf("ParseJID: %v", err)
	}
	if jid.User != "5511999999999" || jid.Server != "s.whatsapp.net" {
		t.Errorf("ParseJID = %v", jid)
	}

	if _, err := ParseJID(""); err == nil {
		t.Error("ParseJID(\"\") should fail")
	}
}

func TestIsGroupJID(t *testing.T) {
	t.Parallel()

	if !IsGroupJID("123456789-987654@g.us") {
		t.Error("group jid should be detected")
	}
	if IsGroupJID("5511999999999@s.whatsapp.net") {
		t.Error("individual jid is not a group")
	}
}

func TestExtractPhoneFromJID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain jid", "5511999999999@s.whatsapp.net", "5511999999999"},
		{"device suffix stripped", "5511999999999:12@s.whatsapp.net", "5511999999999"},
		{"bare number normalized first", "5511999999999", "5511999999999"},
		{"non numeric user", "abc@s.whatsapp.net", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPhoneFromJID(tt.input); got != tt.want {
				t.Errorf("ExtractPhoneFromJID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetBrazilianAlternativeNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		// 12-digit numbers always gain the ninth digit
		{"twelve digits gains nine", "+551188888888", "+5511988888888"},
		{"twelve digits no plus", "552177777777", "+5521977777777"},
		// 13-digit numbers drop the joker when joker < 7 or DDD < 31
		{"thirteen digits low ddd", "+5511988888888", "+551188888888"},
		{"thirteen digits high ddd low joker", "+5584388888888", "+558488888888"},
		{"thirteen digits high ddd high joker", "+5584988888888", ""},
		// everything else has no alternative
		{"foreign number", "+14155552671", ""},
		{"too short", "+551199999", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetBrazilianAlternativeNumber(tt.input); got != tt.want {
				t.Errorf("GetBrazilianAlternativeNumber(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseJIDWithBrazilianFallback(t *testing.T) {
	t.Parallel()

	jids, err := ParseJIDWithBrazilianFallback("+5511988888888")
	if err != nil {
		t.Fatalf("ParseJIDWithBrazilianFallback: %v", err)
	}
	if len(jids) != 2 {
		t.Fatalf("expected 2 candidate JIDs, got %d", len(jids))
	}
	if jids[0].User != "5511988888888" {
		t.Errorf("primary candidate = %q", jids[0].User)
	}
	if jids[1].User != "551188888888" {
		t.Errorf("alternative candidate = %q", jids[1].User)
	}
}

func TestValidateSessionID(t *testing.T) {
	t.Parallel()

	if err := ValidateSessionID("my-session"); err != nil {
		t.Errorf("valid session ID rejected: %v", err)
	}
	if err := ValidateSessionID(""); err == nil {
		t.Error("empty session ID should be rejected")
	}
	if err := ValidateSessionID("   "); err == nil {
		t.Error("blank session ID should be rejected")
	}
}
