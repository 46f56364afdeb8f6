package domain

import "time"

// ChannelBinding maps a normalized messaging handle to the platform chat id
// needed to push a message to that user. One binding per handle; writes are
// last-write-wins. Bindings never expire.
type ChannelBinding struct {
	ContactIdentifier string    `json:"contact_identifier" dynamodbav:"contact_identifier"`
	ChatID            string    `json:"chat_id" dynamodbav:"chat_id"`
	Handle            string    `json:"handle" dynamodbav:"handle"` // original case
	FirstName         string    `json:"first_name,omitempty" dynamodbav:"first_name"`
	LastName          string    `json:"last_name,omitempty" dynamodbav:"last_name"`
	UpdatedAt         time.Time `json:"updated_at" dynamodbav:"updated_at"`
}
