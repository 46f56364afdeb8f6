package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNormalizeHandle(t *testing.T) {
	for _, in := range []string{"@JohnDoe", "johndoe", " johndoe ", "@johndoe", "\tJohnDoe"} {
		assert.Equal(t, "johndoe", NormalizeHandle(in), "input %q", in)
	}
}

func TestNormalizeHandle_Idempotent(t *testing.T) {
	once := NormalizeHandle("@JohnDoe")
	assert.Equal(t, once, NormalizeHandle(once))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+15551234567", NormalizePhone(" +1 (555) 123-4567 "))
	assert.Equal(t, "0123456", NormalizePhone("012-34 56"))
	// Idempotent.
	assert.Equal(t, "+15551234567", NormalizePhone("+15551234567"))
}

func TestChannelFromInput_HandleWins(t *testing.T) {
	ch, err := ChannelFromInput(strPtr("@Alice"), strPtr("+1555"))
	require.NoError(t, err)
	assert.Equal(t, ChannelHandle, ch.Kind)
	assert.Equal(t, "alice", ch.Value)
}

func TestChannelFromInput_PhoneOnly(t *testing.T) {
	ch, err := ChannelFromInput(nil, strPtr("+1 (555) 000"))
	require.NoError(t, err)
	assert.Equal(t, ChannelPhone, ch.Kind)
	assert.Equal(t, "+1555000", ch.Value)
}

func TestChannelFromInput_NeitherPresent(t *testing.T) {
	_, err := ChannelFromInput(nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadRequest))

	// Whitespace-only counts as absent.
	_, err = ChannelFromInput(strPtr("  "), strPtr(""))
	assert.True(t, errors.Is(err, ErrBadRequest))
}
