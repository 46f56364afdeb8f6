package domain

import "time"

// SessionToken is an opaque bearer capability issued after OTP verification.
// It authorizes access to exactly one contact identifier and carries its own
// expiry; it is never renewed in place. The token itself is stored, not a
// signed claim. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type SessionToken struct {
	Token             string    `json:"token" dynamodbav:"token"`
	ContactIdentifier string    `json:"contact_identifier" dynamodbav:"contact_identifier"`
	IssuedAt          time.Time `json:"issued_at" dynamodbav:"issued_at"`
	ExpiresAt         int64     `json:"expires_at" dynamodbav:"expires_at"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (s *SessionToken) Expired(now time.Time) bool {
	return s.ExpiresAt < now.Unix()
}

// Session is the authenticated view handed to components after token
// verification.
type Session struct {
	ContactIdentifier string `json:"contact_identifier"`
}
