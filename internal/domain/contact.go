package domain

import (
	"fmt"
	"strings"
)

// ChannelKind discriminates the two supported contact channels.
type ChannelKind string

const (
	ChannelHandle ChannelKind = "handle" // messaging-platform username
	ChannelPhone  ChannelKind = "phone"
)

// Channel is a tagged variant holding exactly one contact channel.
// Value is already normalized and doubles as the contact identifier.
type Channel struct {
	Kind  ChannelKind `json:"kind"`
	Value string      `json:"value"`
}

// NewHandleChannel builds a handle channel from raw user input.
func NewHandleChannel(raw string) Channel {
	return Channel{Kind: ChannelHandle, Value: NormalizeHandle(raw)}
}

// NewPhoneChannel builds a phone channel from raw user input.
func NewPhoneChannel(raw string) Channel {
	return Channel{Kind: ChannelPhone, Value: NormalizePhone(raw)}
}

// ChannelFromInput resolves the two optional request fields into one channel.
// When both are present the handle wins; when neither is, ErrBadRequest.
func ChannelFromInput(handle, phone *string) (Channel, error) {
	switch {
	case handle != nil && strings.TrimSpace(*handle) != "":
		return NewHandleChannel(*handle), nil
	case phone != nil && strings.TrimSpace(*phone) != "":
		return NewPhoneChannel(*phone), nil
	default:
		return Channel{}, fmt.Errorf("handle or phone is required: %w", ErrBadRequest)
	}
}

// NormalizeHandle canonicalizes a messaging handle: trim, strip a single
// leading "@", lowercase. Total and idempotent; shape validation happens
// at the edge.
func NormalizeHandle(raw string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "@"))
}

// NormalizePhone strips whitespace, dashes and parentheses. A leading "+"
// is preserved.
func NormalizePhone(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}
