package profiles

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultPhoneRegion = "GB"

// NormalizePhone parses a phone number and returns it in E.164 form, or ""
// if it cannot be parsed as a valid number. Numbers without a country code
// are interpreted in the default region.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
