package domain

import "time"

// QuestionnaireRecord is an encrypted submission. EncryptedData is the
// "ivhex:cipherhex" envelope produced by the vault cipher; the IV is unique
// per encryption call. Records are only ever written by the owning
// contact's session.
type QuestionnaireRecord struct {
	RecordID          string    `json:"id" dynamodbav:"record_id"`
	ContactIdentifier string    `json:"contact_identifier" dynamodbav:"contact_identifier"`
	EncryptedData     string    `json:"-" dynamodbav:"encrypted_data"`
	SubmittedAt       time.Time `json:"submitted_at" dynamodbav:"submitted_at"`
}
