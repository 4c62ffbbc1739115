package secret

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultKeychainService is the keychain service the storage password is
// filed under when the config names none.
const DefaultKeychainService = "visualeditor-storage"

// security(1) exits with 44 when no matching item exists.
const exitItemNotFound = 44

// runFunc runs the security tool and returns its stdout on success or its
// stderr and exit code on failure.
type runFunc func(args ...string) (out []byte, code int, err error)

func runSecurity(args ...string) ([]byte, int, error) {
	out, err := exec.Command("security", args...).Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Stderr, exitErr.ExitCode(), nil
	}
	return out, 0, err
}

// KeychainStore reads database passwords from the macOS login keychain as
// generic passwords: the account is the config's password_key and the
// service is fixed per store.
type KeychainStore struct {
	service string
	run     runFunc
}

// NewKeychainStore files secrets under service, or DefaultKeychainService
// when service is empty.
func NewKeychainStore(service string) *KeychainStore {
	if service == "" {
		service = DefaultKeychainService
	}
	return &KeychainStore{service: service, run: runSecurity}
}

func (k *KeychainStore) Set(key string, value []byte) error {
	// -U updates an existing item in place
	out, code, err := k.run("add-generic-password", "-a", key, "-s", k.service, "-w", string(value), "-U")
	if err != nil {
		return fmt.Errorf("keychain set %q: %w", key, err)
	}
	if code != 0 {
		return fmt.Errorf("keychain set %q: exit %d: %s", key, code, strings.TrimSpace(string(out)))
	}
	return nil
}

func (k *KeychainStore) Get(key string) ([]byte, error) {
	out, code, err := k.run("find-generic-password", "-a", key, "-s", k.service, "-w")
	switch {
	case err != nil:
		return nil, fmt.Errorf("keychain get %q: %w", key, err)
	case code == exitItemNotFound:
		return nil, ErrNotFound
	case code != 0:
		return nil, fmt.Errorf("keychain get %q: exit %d: %s", key, code, strings.TrimSpace(string(out)))
	}
	return []byte(strings.TrimRight(string(out), "\n")), nil
}

func (k *KeychainStore) Delete(key string) error {
	out, code, err := k.run("delete-generic-password", "-a", key, "-s", k.service)
	switch {
	case err != nil:
		return fmt.Errorf("keychain delete %q: %w", key, err)
	case code == 0, code == exitItemNotFound:
		return nil
	}
	return fmt.Errorf("keychain delete %q: exit %d: %s", key, code, strings.TrimSpace(string(out)))
}
