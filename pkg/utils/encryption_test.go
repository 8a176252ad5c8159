package utils

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestKey(t *testing.T) {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(key))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	setTestKey(t)

	ciphertext, err := Encrypt(`{"ip":"203.0.113.7","browser":"Chrome 120"}`)
	require.NoError(t, err)
	require.NotEmpty(t, ciphertext)

	plaintext, err := Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, `{"ip":"203.0.113.7","browser":"Chrome 120"}`, plaintext)
}

func TestEncryptProducesUniqueCiphertexts(t *testing.T) {
	setTestKey(t)

	a, err := Encrypt("same message")
	require.NoError(t, err)
	b, err := Encrypt("same message")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEncryptEmptyStringIsNoop(t *testing.T) {
	setTestKey(t)

	out, err := Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	setTestKey(t)

	ciphertext, err := Encrypt("secret context")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = Decrypt(tampered)
	assert.Error(t, err)
}

func TestGetEncryptionKeyValidation(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "")
	_, err := GetEncryptionKey()
	assert.Error(t, err)

	t.Setenv("ENCRYPTION_KEY", "not base64!!!")
	_, err = GetEncryptionKey()
	assert.Error(t, err)

	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString([]byte("short")))
	_, err = GetEncryptionKey()
	assert.Error(t, err)
}
