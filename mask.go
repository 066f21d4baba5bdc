package authcore

import (
	"strings"
	"unicode/utf8"
)

// maskEmail keeps the first character of the local part and the domain:
// "tom@example.com" becomes "t***@example.com". Addresses without "@" or
// with a one-character local part are fully masked.
func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at < 0 || utf8.RuneCountInString(email[:at]) < 2 {
		return "***"
	}
	first, _ := utf8.DecodeRuneInString(email)
	return string(first) + "***" + email[at:]
}
