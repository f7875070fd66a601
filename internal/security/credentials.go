package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/pbkdf2"

	"snowsearch/internal/config"
)

const (
	// Keyring service name
	keyringService = "snowsearch"
	// Salt size for key derivation
	saltSize = 32
	// Number of iterations for PBKDF2
	pbkdf2Iterations = 100000
	// Key size for AES-256
	keySize = 32
)

// CredentialStore holds the warehouse password either in the system keyring
// or, when no keyring is available, in an encrypted file under the config dir.
type CredentialStore struct {
	useKeyring bool
	masterKey  []byte
}

// NewCredentialStore creates a credential store, preferring the system keyring
func NewCredentialStore() (*CredentialStore, error) {
	cs := &CredentialStore{
		useKeyring: isKeyringAvailable(),
	}

	if !cs.useKeyring {
		key, err := cs.loadMasterKey()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize master key: %w", err)
		}
		cs.masterKey = key
	}

	return cs, nil
}

// StorePassword stores the password for an account/user pair
func (cs *CredentialStore) StorePassword(account, username, password string) error {
	name := credentialName(account, username)
	if cs.useKeyring {
		return keyring.Set(keyringService, name, password)
	}

	encrypted, err := encrypt(cs.masterKey, password)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}
	return os.WriteFile(cs.credentialFile(name), []byte(encrypted), 0600)
}

// GetPassword retrieves the password for an account/user pair
func (cs *CredentialStore) GetPassword(account, username string) (string, error) {
	name := credentialName(account, username)
	if cs.useKeyring {
		return keyring.Get(keyringService, name)
	}

	data, err := os.ReadFile(cs.credentialFile(name))
	if err != nil {
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	return decrypt(cs.masterKey, string(data))
}

// DeletePassword removes the stored password for an account/user pair
func (cs *CredentialStore) DeletePassword(account, username string) error {
	name := credentialName(account, username)
	if cs.useKeyring {
		return keyring.Delete(keyringService, name)
	}
	return os.Remove(cs.credentialFile(name))
}

func credentialName(account, username string) string {
	return account + ":" + username
}

func (cs *CredentialStore) credentialsDir() string {
	dir := filepath.Join(config.GetConfigPath(), "credentials")
	_ = os.MkdirAll(dir, 0700)
	return dir
}

func (cs *CredentialStore) credentialFile(name string) string {
	// Avoid path separators from account identifiers
	safe := base64.RawURLEncoding.EncodeToString([]byte(name))
	return filepath.Join(cs.credentialsDir(), safe+".cred")
}

func (cs *CredentialStore) loadMasterKey() ([]byte, error) {
	keyPath := filepath.Join(cs.credentialsDir(), "master.key")

	if data, err := os.ReadFile(keyPath); err == nil {
		if len(data) < saltSize {
			return nil, fmt.Errorf("master key file corrupted")
		}
		return deriveKey(data[:saltSize]), nil
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	if err := os.WriteFile(keyPath, salt, 0600); err != nil {
		return nil, err
	}
	return deriveKey(salt), nil
}

func deriveKey(salt []byte) []byte {
	host, _ := os.Hostname()
	secret := []byte("snowsearch:" + host)
	return pbkdf2.Key(secret, salt, pbkdf2Iterations, keySize, sha256.New)
}

func isKeyringAvailable() bool {
	probe := "snowsearch-probe"
	if err := keyring.Set(keyringService, probe, "ok"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, probe)
	return true
}

func encrypt(key []byte, plaintext string) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func decrypt(key []byte, ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, encryptedData := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, encryptedData, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}
