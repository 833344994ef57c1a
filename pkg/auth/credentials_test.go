package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestCredentialManager(t *testing.T) {
	t.Setenv(EnvToken, "")
	store := NewMemoryStore()
	manager := NewManagerWithStores(store)

	account := &Account{Name: "work", Token: "tok_1234567890abcdef", BaseURL: "https://feed.example.com"}
	if err := manager.Store(account); err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}
	assert.False(t, account.LastModified.IsZero(), "Store stamps LastModified")

	retrieved, err := manager.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, account.Token, retrieved.Token)
	assert.Equal(t, account.BaseURL, retrieved.BaseURL)

	resolved, err := manager.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "work", resolved.Name)

	require.NoError(t, manager.Delete("work"))
	assert.Equal(t, 0, store.Count())

	_, err = manager.Retrieve("work")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	err = manager.Delete("work")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerValidation(t *testing.T) {
	manager := NewManagerWithStores(NewMemoryStore())

	assert.Error(t, manager.Store(&Account{Token: "x"}), "name is required")
	assert.Error(t, manager.Store(&Account{Name: "x"}), "token is required")
	assert.Error(t, manager.Store(nil))
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMemoryStore()
	broken.StoreError = errors.New("keychain locked")
	fallback := NewMemoryStore()

	manager := NewManagerWithStores(broken, fallback)
	require.NoError(t, manager.Store(&Account{Name: "a", Token: "t"}))

	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, fallback.Count())
}

func TestManagerListNewestFirst(t *testing.T) {
	t.Setenv(EnvToken, "")
	first := NewMemoryStore()
	second := NewMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, first.Store(&Account{Name: "a", Token: "old", LastModified: base}))
	require.NoError(t, second.Store(&Account{Name: "a", Token: "new", LastModified: base.Add(time.Hour)}))
	require.NoError(t, second.Store(&Account{Name: "b", Token: "b", LastModified: base.Add(2 * time.Hour)}))

	accounts, err := NewManagerWithStores(first, second).List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "b", accounts[0].Name)
	assert.Equal(t, "new", accounts[1].Token)
}

func TestEnvironmentStore(t *testing.T) {
	env := NewEnvironmentStore()

	t.Setenv(EnvToken, "")
	assert.False(t, env.Exists(""))

	t.Setenv(EnvToken, "env-token")
	t.Setenv(EnvAccount, "ci")

	account, err := env.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "ci", account.Name)
	assert.Equal(t, "env-token", account.Token)

	_, err = env.Retrieve("other")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	assert.ErrorIs(t, env.Store(account), ErrStoreUnavailable)
	assert.ErrorIs(t, env.Delete("ci"), ErrStoreUnavailable)

	manager := NewManagerWithStores(NewMemoryStore(), env)
	def, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "env-token", def.Token)
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds", "credentials.enc")
	store, err := NewEncryptedFileStore(path, "correct horse")
	require.NoError(t, err)

	_, err = store.Retrieve("work")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(&Account{Name: "work", Token: "secret-token"}))
	require.NoError(t, store.Store(&Account{Name: "home", Token: "other-token"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-token", "token must not be stored in clear")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := NewEncryptedFileStore(path, "correct horse")
	require.NoError(t, err)
	got, err := reopened.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "secret-token", got.Token)

	list, err := reopened.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	wrong, err := NewEncryptedFileStore(path, "wrong")
	require.NoError(t, err)
	_, err = wrong.Retrieve("work")
	assert.Error(t, err)

	require.NoError(t, reopened.Delete("work"))
	require.NoError(t, reopened.Delete("home"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file removed with the last account")
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	t.Setenv(EnvPassphrase, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")

	store, err := NewEncryptedFileStore(path, "")
	require.NoError(t, err)
	require.NoError(t, store.Store(&Account{Name: "a", Token: "t"}))

	_, err = os.Stat(filepath.Join(dir, ".passphrase"))
	require.NoError(t, err)

	again, err := NewEncryptedFileStore(path, "")
	require.NoError(t, err)
	assert.True(t, again.Exists("a"))
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(&Account{Name: "work", Token: "t1"}))
	require.NoError(t, store.Store(&Account{Name: "home", Token: "t2"}))
	require.NoError(t, store.Store(&Account{Name: "work", Token: "t3"}))

	got, err := store.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "t3", got.Token)

	list, err := store.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, store.Delete("work"))
	assert.False(t, store.Exists("work"))
	assert.ErrorIs(t, store.Delete("work"), ErrCredentialsNotFound)

	list, err = store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "home", list[0].Name)
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{Name: "a", Token: "tok_1234567890abcdef"}
	masked := SanitizeAccount(account)

	assert.Equal(t, "tok_...cdef", masked.Token)
	assert.Equal(t, "tok_1234567890abcdef", account.Token, "original untouched")
	assert.Equal(t, "********", MaskToken("short"))
	assert.Nil(t, SanitizeAccount(nil))
}

func TestWriteTokenGuide(t *testing.T) {
	var buf bytes.Buffer
	WriteTokenGuide(&buf)
	assert.Contains(t, buf.String(), "mediafetch auth login")
	assert.Contains(t, buf.String(), EnvToken)
}
