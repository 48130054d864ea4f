package cli

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

const (
	// ServiceName namespaces the stored credentials.
	ServiceName = "flatbridge"
	keyToken    = "bearer_token"
)

// ErrNoToken means no bearer token is stored.
var ErrNoToken = errors.New("no stored token; run 'flatbridge login'")

// TokenStore keeps the boundary bearer token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Delete() error
}

// keyringStore keeps the token in the OS credential store. The ring is
// opened lazily so commands that never need it do not touch the keychain.
type keyringStore struct {
	once sync.Once
	ring keyring.Keyring
	err  error
}

// NewKeyringStore returns a TokenStore backed by the OS keychain.
func NewKeyringStore() TokenStore {
	return &keyringStore{}
}

func (k *keyringStore) open() (keyring.Keyring, error) {
	k.once.Do(func() {
		cfg := keyring.Config{
			ServiceName:   ServiceName,
			PassPrefix:    ServiceName,
			WinCredPrefix: ServiceName,
		}
		switch runtime.GOOS {
		case "darwin":
			cfg.AllowedBackends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
		case "windows":
			cfg.AllowedBackends = []keyring.BackendType{keyring.WinCredBackend}
		default:
			cfg.AllowedBackends = []keyring.BackendType{
				keyring.SecretServiceBackend,
				keyring.KWalletBackend,
				keyring.PassBackend,
			}
		}
		k.ring, k.err = keyring.Open(cfg)
		if k.err != nil {
			k.err = fmt.Errorf("open keychain: %w", k.err)
		}
	})
	return k.ring, k.err
}

func (k *keyringStore) Load() (string, error) {
	ring, err := k.open()
	if err != nil {
		return "", err
	}
	it, err := ring.Get(keyToken)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	if len(it.Data) == 0 {
		return "", ErrNoToken
	}
	return string(it.Data), nil
}

func (k *keyringStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	ring, err := k.open()
	if err != nil {
		return err
	}
	return ring.Set(keyring.Item{
		Key:         keyToken,
		Data:        []byte(token),
		Label:       "flatbridge bearer token",
		Description: "Bearer token for the flatbridge boundary",
	})
}

func (k *keyringStore) Delete() error {
	ring, err := k.open()
	if err != nil {
		return err
	}
	if err := ring.Remove(keyToken); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}

// MemoryStore is a TokenStore that lives in memory.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNoToken
	}
	return m.token, nil
}

func (m *MemoryStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = strings.TrimSpace(token)
	return nil
}

func (m *MemoryStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
