package license_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate-core/pkg/license"
)

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "license.cache.json")

	store, err := license.NewFileStore(path)
	require.NoError(t, err)

	t.Run("Empty store loads nil", func(t *testing.T) {
		record, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	record := &license.CacheRecord{
		TokenHash:  license.TokenHash("tok-1"),
		Claims:     license.Claims{Tier: license.TierPro, Expiry: time.Now().Add(time.Hour).Unix(), CustomerID: "cust-1"},
		VerifiedAt: time.Now().UTC().Truncate(time.Second),
	}

	t.Run("Store and load", func(t *testing.T) {
		require.NoError(t, store.Store(record))

		loaded, err := store.Load()
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, record.TokenHash, loaded.TokenHash)
		assert.Equal(t, license.TierPro, loaded.Claims.Tier)
	})

	t.Run("Persistence across instances", func(t *testing.T) {
		store2, err := license.NewFileStore(path)
		require.NoError(t, err)

		loaded, err := store2.Load()
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, record.TokenHash, loaded.TokenHash)
		assert.True(t, record.VerifiedAt.Equal(loaded.VerifiedAt))
	})

	t.Run("Overwrite replaces the record", func(t *testing.T) {
		replacement := &license.CacheRecord{
			TokenHash:  license.TokenHash("tok-2"),
			Claims:     license.Claims{Tier: license.TierEnterprise, Expiry: time.Now().Add(time.Hour).Unix()},
			VerifiedAt: time.Now(),
		}
		require.NoError(t, store.Store(replacement))

		loaded, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, replacement.TokenHash, loaded.TokenHash)
	})

	t.Run("No temp files left behind", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestFileStore_CorruptFileReadsAsAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "license.cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	store, err := license.NewFileStore(path)
	require.NoError(t, err)

	record, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestFileStore_WritesWellFormedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "license.cache.json")

	store, err := license.NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&license.CacheRecord{
		TokenHash:  license.TokenHash("tok"),
		Claims:     license.Claims{Tier: license.TierPro, Expiry: 42, Features: []string{"a", "b"}},
		VerifiedAt: time.Now(),
	}))

	// The on-disk record stores the token hash, never the token, and the
	// tier under its wire name.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"tok"`)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, license.TokenHash("tok"), raw["token_hash"])
	claims := raw["claims"].(map[string]interface{})
	assert.Equal(t, "pro", claims["tier"])
}

func TestDefaultCachePath(t *testing.T) {
	t.Setenv("KEYGATE_LICENSE_CACHE_PATH", "/custom/license.json")
	assert.Equal(t, "/custom/license.json", license.DefaultCachePath())

	t.Setenv("KEYGATE_LICENSE_CACHE_PATH", "")
	assert.Contains(t, license.DefaultCachePath(), ".keygate")
}

func TestMemoryStore(t *testing.T) {
	store := license.NewMemoryStore()

	record, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, record)

	stored := &license.CacheRecord{TokenHash: "h", VerifiedAt: time.Now()}
	require.NoError(t, store.Store(stored))

	record, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, stored, record)
}
