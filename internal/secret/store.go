// Package secret stores database passwords outside the config file.
package secret

import (
	"errors"
	"fmt"
	"strings"
)

// Placeholder is replaced in a storage DSN with the stored password.
const Placeholder = "{password}"

// ErrNotFound is returned by Get when no secret is stored under the key.
var ErrNotFound = errors.New("secret not found")

// SecretStore holds secrets by key. Get returns ErrNotFound for a missing
// key; Delete of a missing key succeeds.
type SecretStore interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
}

// ExpandDSN substitutes Placeholder in dsn with the secret stored under key.
// A dsn without the placeholder, or an empty key, is returned unchanged.
func ExpandDSN(store SecretStore, dsn, key string) (string, error) {
	if key == "" || !strings.Contains(dsn, Placeholder) {
		return dsn, nil
	}
	value, err := store.Get(key)
	if errors.Is(err, ErrNotFound) || (err == nil && len(value) == 0) {
		return "", fmt.Errorf("storage password %q is not set", key)
	}
	if err != nil {
		return "", fmt.Errorf("read storage password %q: %w", key, err)
	}
	return strings.ReplaceAll(dsn, Placeholder, string(value)), nil
}

// MemoryStore keeps secrets in a map. It backs tests and hosts without a
// keychain.
type MemoryStore struct {
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Delete(key string) error {
	delete(m.values, key)
	return nil
}
