package utils

import "strings"

// MaskEmail hides the local part of an address for log output.
// Example: abcd@domain.com -> a***@domain.com
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return "***"
	}
	if at <= 1 {
		return "***" + email[at:]
	}
	return email[:1] + "***" + email[at:]
}
