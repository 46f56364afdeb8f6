package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	// ErrUnavailable marks a transient provider failure (timeout, network,
	// upstream 5xx). Callers must not treat it as "does not exist".
	ErrUnavailable = errors.New("temporarily unavailable")

	// ErrDecrypt marks a record that could not be decrypted. Listing code
	// skips such records instead of failing the batch.
	ErrDecrypt = errors.New("decryption failed")
)
