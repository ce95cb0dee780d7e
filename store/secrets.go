package store

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// Secrets holds values that should not be written into the stored records.
type Secrets interface {
	Get(name string) (string, error)
	Set(name, value string) error
	Delete(name string) error
}

// ErrSecretNotFound is returned by Secrets.Get for an unknown name.
var ErrSecretNotFound = errors.New("secret not found")

// KeyringSecrets keeps secrets in the OS keyring under one service name.
type KeyringSecrets struct {
	Service string
}

func (k KeyringSecrets) Get(name string) (string, error) {
	v, err := keyring.Get(k.Service, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrSecretNotFound
	}
	return v, err
}

func (k KeyringSecrets) Set(name, value string) error {
	return keyring.Set(k.Service, name, value)
}

func (k KeyringSecrets) Delete(name string) error {
	err := keyring.Delete(k.Service, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
