package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// CSRF derives form tokens from the learner identity with HMAC-SHA256, so any
// replica holding the same secret can validate them.
type CSRF struct {
	secret []byte
}

func NewCSRF(secret string) *CSRF {
	return &CSRF{secret: []byte(secret)}
}

// Token returns the form token for learnerID. An empty identity has no token.
func (c *CSRF) Token(learnerID string) string {
	if learnerID == "" {
		return ""
	}
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte("csrf:"))
	mac.Write([]byte(learnerID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Valid reports whether token was issued for learnerID.
func (c *CSRF) Valid(learnerID, token string) bool {
	if learnerID == "" || token == "" {
		return false
	}
	return hmac.Equal([]byte(c.Token(learnerID)), []byte(token))
}
