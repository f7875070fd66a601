package security

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, keySize)
	_, err := io.ReadFull(rand.Reader, key)
	require.NoError(t, err)
	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(t)

	tests := []struct {
		name      string
		plaintext string
	}{
		{name: "simple password", plaintext: "hunter2"},
		{name: "empty string", plaintext: ""},
		{name: "unicode", plaintext: "pässwörd-雪"},
		{name: "long value", plaintext: string(make([]byte, 4096))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted, err := encrypt(key, tt.plaintext)
			require.NoError(t, err)
			assert.NotEqual(t, tt.plaintext, encrypted)

			decrypted, err := decrypt(key, encrypted)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, decrypted)
		})
	}
}

func TestDecryptWrongKey(t *testing.T) {
	encrypted, err := encrypt(testKey(t), "secret")
	require.NoError(t, err)

	_, err = decrypt(testKey(t), encrypted)
	assert.Error(t, err)
}

func TestDecryptCorruptedInput(t *testing.T) {
	key := testKey(t)

	_, err := decrypt(key, "not-base64!!!")
	assert.Error(t, err)

	short := base64.StdEncoding.EncodeToString([]byte("tiny"))
	_, err = decrypt(key, short)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ciphertext too short")
}

func TestFileFallbackStoreAndRetrieve(t *testing.T) {
	t.Setenv("SNOWSEARCH_CONFIG", t.TempDir())

	cs := &CredentialStore{useKeyring: false}
	key, err := cs.loadMasterKey()
	require.NoError(t, err)
	cs.masterKey = key

	require.NoError(t, cs.StorePassword("myaccount", "analyst", "s3cret"))

	got, err := cs.GetPassword("myaccount", "analyst")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	require.NoError(t, cs.DeletePassword("myaccount", "analyst"))
	_, err = cs.GetPassword("myaccount", "analyst")
	assert.Error(t, err)
}

func TestMasterKeyStable(t *testing.T) {
	t.Setenv("SNOWSEARCH_CONFIG", t.TempDir())

	cs := &CredentialStore{useKeyring: false}
	first, err := cs.loadMasterKey()
	require.NoError(t, err)

	second, err := cs.loadMasterKey()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCredentialNameSafeFilename(t *testing.T) {
	cs := &CredentialStore{useKeyring: false}
	t.Setenv("SNOWSEARCH_CONFIG", t.TempDir())

	path := cs.credentialFile(credentialName("org-acct/region", "user"))
	assert.NotContains(t, path[len(cs.credentialsDir()):], "/region")
}
