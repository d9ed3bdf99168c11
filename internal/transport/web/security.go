package web

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"io"
)

// generateCSRFToken creates a secure, random token for CSRF (Cross-Site Request Forgery) protection.
// It generates 32 random bytes using `crypto/rand` and then encodes them into a URL-safe
// base64 string. The token is sent in a cookie and must come back in the
// csrf_token form field or the X-CSRF-Token header ("Double Submit Cookie").
func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// csrfTokensMatch compares the cookie and submitted tokens in constant time.
func csrfTokensMatch(cookieToken, submitted string) bool {
	if cookieToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) == 1
}
