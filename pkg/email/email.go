package email

import (
	"net/mail"
	"strings"
)

// maxLength follows the RFC 5321 path limit.
const maxLength = 254

// Normalize trims and lower-cases an address so uniqueness checks are case-insensitive.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsValid reports whether address is a single bare addr-spec with a dotted domain.
func IsValid(address string) bool {
	if address == "" || len(address) > maxLength {
		return false
	}
	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Address != address {
		return false
	}
	at := strings.LastIndexByte(address, '@')
	if at <= 0 {
		return false
	}
	domain := address[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}
