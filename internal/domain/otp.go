package domain

import "time"

// OTPTTL is how long an issued code stays valid.
const OTPTTL = 10 * time.Minute

// OneTimeCode is a short-lived credential proving control of a contact
// channel. At most one live row exists per contact identifier; the table
// is keyed by contact_identifier so a new code replaces the old one in a
// single write. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OneTimeCode struct {
	ContactIdentifier string      `json:"contact_identifier" dynamodbav:"contact_identifier"`
	ChannelKind       ChannelKind `json:"channel_kind" dynamodbav:"channel_kind"`
	Code              string      `json:"-" dynamodbav:"code"`
	ExpiresAt         int64       `json:"expires_at" dynamodbav:"expires_at"`
	CreatedAt         time.Time   `json:"created_at" dynamodbav:"created_at"`
}

// Expired reports whether the code is past its expiry at the given instant.
func (c *OneTimeCode) Expired(now time.Time) bool {
	return c.ExpiresAt < now.Unix()
}
