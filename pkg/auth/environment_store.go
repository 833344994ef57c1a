package auth

import (
	"os"
	"time"
)

const (
	// EnvToken holds a feed token.
	EnvToken = "MEDIAFETCH_TOKEN"
	// EnvAccount optionally names the environment account.
	EnvAccount = "MEDIAFETCH_ACCOUNT"
)

// EnvironmentStore is a read-only store over MEDIAFETCH_TOKEN.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment account. An empty name matches it.
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	token := os.Getenv(EnvToken)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	envName := os.Getenv(EnvAccount)
	if envName == "" {
		envName = "default"
	}
	if name != "" && name != envName {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Name:         envName,
		Token:        token,
		LastModified: time.Now(),
	}, nil
}

// List returns the environment account if set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
