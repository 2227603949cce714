package wameow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	waTypes "go.mau.fi/whatsmeow/types"
)

var phoneRegex = regexp.MustCompile(`^\d+$`)

// NormalizeJID converts phone-like input to standard WhatsApp JID format.
// Accepts +5511999999999, 5511999999999, full JIDs and group JIDs.
func NormalizeJID(jid string) string {
	jid = strings.TrimSpace(jid)

	if strings.Contains(jid, "@") {
		return jid
	}

	candidate := strings.TrimPrefix(jid, "+")
	candidate = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(candidate)

	if phoneRegex.MatchString(candidate) {
		return candidate + "@s.whatsapp.net"
	}

	return jid
}

// ParseJID parses a string into a types.JID after normalization
func ParseJID(jid string) (waTypes.JID, error) {
	if jid == "" {
		return waTypes.EmptyJID, fmt.Errorf("JID cannot be empty")
	}

	normalized := NormalizeJID(jid)

	parsed, err := waTypes.ParseJID(normalized)
	if err != nil {
		return waTypes.EmptyJID, fmt.Errorf("failed to parse JID %s: %w", normalized, err)
	}
	if parsed.User == "" {
		return waTypes.EmptyJID, fmt.Errorf("JID missing user part: %s", normalized)
	}

	return parsed, nil
}

// IsGroupJID reports whether the JID addresses a group chat
func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, "@g.us")
}

// ExtractPhoneFromJID returns the bare phone number of an individual JID
func ExtractPhoneFromJID(jid string) string {
	normalized := NormalizeJID(jid)
	if idx := strings.Index(normalized, "@"); idx > 0 {
		user := normalized[:idx]
		// Strip the device/agent suffix (e.g. 5511999999999:12)
		if colon := strings.Index(user, ":"); colon > 0 {
			user = user[:colon]
		}
		if phoneRegex.MatchString(user) {
			return user
		}
	}
	return ""
}

func cleanPhoneNumber(phone string) string {
	return strings.NewReplacer("+", "", " ", "", "-", "", "(", "", ")", "").Replace(phone)
}

// GetBrazilianAlternativeNumber returns the alternative format for Brazilian
// mobile numbers, which may exist on WhatsApp with or without the ninth
// digit. Returns "" when the number has no alternative form.
func GetBrazilianAlternativeNumber(phoneNumber string) string {
	cleaned := cleanPhoneNumber(phoneNumber)

	// 13-digit format: 55 + DDD + 9 + 8 digits; drop the ninth digit for
	// older area codes / joker digits
	if len(cleaned) == 13 && strings.HasPrefix(cleaned, "55") {
		ddd := cleaned[2:4]
		joker := cleaned[4:5]
		number := cleaned[5:]

		dddInt, _ := strconv.Atoi(ddd)
		jokerInt, _ := strconv.Atoi(joker)

		if jokerInt < 7 || dddInt < 31 {
			return "+55" + ddd + number
		}
		return ""
	}

	// 12-digit format: 55 + DDD + 8 digits; add the ninth digit
	if len(cleaned) == 12 && strings.HasPrefix(cleaned, "55") {
		ddd := cleaned[2:4]
		number := cleaned[4:]
		return "+55" + ddd + "9" + number
	}

	return ""
}

// ParseJIDWithBrazilianFallback parses a phone number into candidate JIDs,
// including the alternative Brazilian form when one exists
func ParseJIDWithBrazilianFallback(phoneNumber string) ([]waTypes.JID, error) {
	var jids []waTypes.JID

	jid, err := ParseJID(phoneNumber)
	if err == nil {
		jids = append(jids, jid)
	}

	if alt := GetBrazilianAlternativeNumber(phoneNumber); alt != "" {
		if altJid, altErr := ParseJID(alt); altErr == nil {
			jids = append(jids, altJid)
		}
	}

	if len(jids) == 0 {
		return nil, fmt.Errorf("failed to parse JID for %s: %w", phoneNumber, err)
	}

	return jids, nil
}

// ValidateSessionID ensures a session ID is a usable registry key
func ValidateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	if len(sessionID) > 255 {
		return fmt.Errorf("session ID too long")
	}
	return nil
}
