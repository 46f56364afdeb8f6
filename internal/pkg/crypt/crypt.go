package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/intake-api/internal/domain"
)

// Cipher encrypts and decrypts questionnaire payloads with AES-256-CBC and
// PKCS#7 padding. The wire format is "ivhex:cipherhex"; the IV is random per
// call and not secret.
type Cipher struct {
	key []byte
}

// NewCipher builds a Cipher from a hex-encoded 32-byte key. Config
// validation guarantees the shape at startup, but the check is repeated here
// so the type cannot be constructed in a broken state.
func NewCipher(hexKey string) (*Cipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return &Cipher{key: key}, nil
}

// Encrypt encrypts plaintext with a fresh random IV and returns the
// "ivhex:cipherhex" envelope. Identical plaintexts never produce identical
// output.
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ct), nil
}

// Decrypt parses an "ivhex:cipherhex" envelope and returns the plaintext.
// Any malformation (missing separator, bad hex, wrong length, bad padding,
// wrong key) comes back wrapping domain.ErrDecrypt; Decrypt never panics.
func (c *Cipher) Decrypt(encoded string) ([]byte, error) {
	ivHex, ctHex, ok := strings.Cut(encoded, ":")
	if !ok {
		return nil, fmt.Errorf("missing iv separator: %w", domain.ErrDecrypt)
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("malformed iv: %w", domain.ErrDecrypt)
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil {
		return nil, fmt.Errorf("malformed ciphertext: %w", domain.ErrDecrypt)
	}
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d not a block multiple: %w", len(ct), domain.ErrDecrypt)
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)
	return pkcs7Unpad(pt, aes.BlockSize)
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, fmt.Errorf("bad padding: %w", domain.ErrDecrypt)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("bad padding: %w", domain.ErrDecrypt)
		}
	}
	return b[:len(b)-n], nil
}
