// Package secrets stores dealflow credentials in the OS keychain.
package secrets

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/zalando/go-keyring"

	"dealflow/internal/config"
)

// KeyringService groups dealflow's entries in the keychain.
const KeyringService = "dealflow"

// ErrUnknownName is returned for names outside config.SecretNames.
var ErrUnknownName = errors.New("unknown secret name")

func checkName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !slices.Contains(config.SecretNames(), name) {
		return "", fmt.Errorf("%w %q (known: %s)", ErrUnknownName, name, strings.Join(config.SecretNames(), ", "))
	}
	return name, nil
}

// Set stores value under name.
func Set(name, value string) error {
	name, err := checkName(name)
	if err != nil {
		return err
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(KeyringService, name, value)
}

// Delete removes name from the keychain. Deleting a missing entry is not an
// error.
func Delete(name string) error {
	name, err := checkName(name)
	if err != nil {
		return err
	}
	if err := keyring.Delete(KeyringService, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// Lookup reads name from the keychain. Any failure, including a keychain
// that is unavailable on headless hosts, reports not found.
func Lookup(name string) (string, bool) {
	value, err := keyring.Get(KeyringService, name)
	if err != nil || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

// Stored reports which known names currently have a keychain entry.
func Stored() []string {
	var out []string
	for _, name := range config.SecretNames() {
		if _, ok := Lookup(name); ok {
			out = append(out, name)
		}
	}
	return out
}
