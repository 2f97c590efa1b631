// pkg/keystore/keystore_test.go

package keystore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) *lethe_io.RuntimeContext {
	t.Helper()
	return lethe_io.NewContext(context.Background(), "test")
}

func TestGenerate(t *testing.T) {
	key1, err := Generate()
	require.NoError(t, err)
	assert.Len(t, key1, KeySize)

	key2, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, key1, key2, "two generated keys must differ")
}

func TestSaveAndLoad(t *testing.T) {
	rc := testContext(t)
	path := filepath.Join(t.TempDir(), "keys", "test.key")

	material, err := Generate()
	require.NoError(t, err)

	require.NoError(t, Save(rc, material, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(rc, path)
	require.NoError(t, err)
	assert.Equal(t, material, loaded)
}

func TestLoadMissingKey(t *testing.T) {
	rc := testContext(t)

	_, err := Load(rc, filepath.Join(t.TempDir(), "absent.key"))
	require.Error(t, err)
	assert.True(t, cerr.Is(err, ErrNotFound))
}

func TestSaveOverwritesExisting(t *testing.T) {
	rc := testContext(t)
	path := filepath.Join(t.TempDir(), "test.key")

	first, err := Generate()
	require.NoError(t, err)
	require.NoError(t, Save(rc, first, path))

	second, err := Generate()
	require.NoError(t, err)
	require.NoError(t, Save(rc, second, path))

	loaded, err := Load(rc, path)
	require.NoError(t, err)
	assert.Equal(t, second, loaded)
}
