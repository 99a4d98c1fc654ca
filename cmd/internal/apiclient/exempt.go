package apiclient

import "strings"

var exemptMarkers = []string{"/auth/", "/send-otp", "/verify-otp"}

// IsExempt reports whether path is a credential-issuing endpoint that must
// never go through the refresh-and-retry protocol.
func IsExempt(path string) bool {
	for _, m := range exemptMarkers {
		if strings.Contains(path, m) {
			return true
		}
	}
	return false
}
