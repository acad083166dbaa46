package credentials

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	var h Holder = NewMemory("")
	assert.Empty(t, h.Token())

	require.NoError(t, h.Set("abc"))
	assert.Equal(t, "abc", h.Token())

	require.NoError(t, h.Clear())
	assert.Empty(t, h.Token())
}

func TestFileStore_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")

	store, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.Empty(t, store.Token())

	require.NoError(t, store.Set("abc"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", reopened.Token())

	require.NoError(t, reopened.Clear())
	assert.Empty(t, reopened.Token())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// clearing twice is fine
	require.NoError(t, reopened.Clear())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := OpenFileStore(path)
	assert.Error(t, err)
}

func TestFileStore_ConcurrentUse(t *testing.T) {
	store, err := OpenFileStore(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Set("tok"))
			_ = store.Token()
		}()
	}
	wg.Wait()
	assert.Equal(t, "tok", store.Token())
}
