package auth

import (
	"crypto/subtle"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// csrfTokenBytes is the entropy of a CSRF token; the hex form is twice as long.
const csrfTokenBytes = 16

// GenerateCSRFToken returns a fresh random token for the double-submit check.
func GenerateCSRFToken() (string, error) {
	return common.MakeRandHexString(csrfTokenBytes)
}

// VerifyCSRFToken reports whether the cookie and header values are equal.
// The comparison runs in constant time; empty values never verify.
func VerifyCSRFToken(cookie, header string) bool {
	if cookie == "" || header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) == 1
}
