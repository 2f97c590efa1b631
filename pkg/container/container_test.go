// pkg/container/container_test.go

package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/authz"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/keystore"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) *lethe_io.RuntimeContext {
	t.Helper()
	return lethe_io.NewContext(context.Background(), "test")
}

func testPaths(t *testing.T) (containerPath, keyPath string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "test.lethe"), filepath.Join(dir, "test.key")
}

func TestCreateGeneratesKeyWhenAbsent(t *testing.T) {
	rc := testContext(t)
	containerPath, keyPath := testPaths(t)

	require.NoError(t, Create(rc, containerPath, keyPath))

	_, err := os.Stat(containerPath)
	require.NoError(t, err)
	_, err = keystore.Load(rc, keyPath)
	require.NoError(t, err)

	names, err := List(rc, containerPath, keyPath)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCreateRefusesExisting(t *testing.T) {
	rc := testContext(t)
	containerPath, keyPath := testPaths(t)

	require.NoError(t, Create(rc, containerPath, keyPath))

	err := Create(rc, containerPath, keyPath)
	require.Error(t, err)
	assert.True(t, cerr.Is(err, ErrAlreadyExists))
}

func TestAddListExtractRoundTrip(t *testing.T) {
	rc := testContext(t)
	containerPath, keyPath := testPaths(t)

	require.NoError(t, Create(rc, containerPath, keyPath))
	require.NoError(t, AddFile(rc, containerPath, keyPath, "first.txt", []byte("alpha")))
	require.NoError(t, AddFile(rc, containerPath, keyPath, "second.bin", []byte{0x00, 0xFF, 0x10}))

	names, err := List(rc, containerPath, keyPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"first.txt", "second.bin"}, names)

	outDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, ExtractAll(rc, containerPath, keyPath, outDir))

	first, err := os.ReadFile(filepath.Join(outDir, "first.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("alpha"), first)

	second, err := os.ReadFile(filepath.Join(outDir, "second.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xFF, 0x10}, second)
}

func TestAddFileTruncatesPathName(t *testing.T) {
	rc := testContext(t)
	containerPath, keyPath := testPaths(t)

	require.NoError(t, Create(rc, containerPath, keyPath))
	require.NoError(t, AddFile(rc, containerPath, keyPath, "../../etc/passwd", []byte("nope")))

	names, err := List(rc, containerPath, keyPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"passwd"}, names)
}

func TestDuplicateNamesRetained(t *testing.T) {
	rc := testContext(t)
	containerPath, keyPath := testPaths(t)

	require.NoError(t, Create(rc, containerPath, keyPath))
	require.NoError(t, AddFile(rc, containerPath, keyPath, "dup.txt", []byte("one")))
	require.NoError(t, AddFile(rc, containerPath, keyPath, "dup.txt", []byte("two")))

	names, err := List(rc, containerPath, keyPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"dup.txt", "dup.txt"}, names)

	// The later record wins on extraction.
	outDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, ExtractAll(rc, containerPath, keyPath, outDir))
	data, err := os.ReadFile(filepath.Join(outDir, "dup.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data)
}

func TestTamperDetection(t *testing.T) {
	rc := testContext(t)

	flip := func(t *testing.T, path string, offset int) {
		t.Helper()
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Greater(t, len(raw), offset)
		raw[offset] ^= 0x01
		require.NoError(t, os.WriteFile(path, raw, 0600))
	}

	t.Run("flipped ciphertext byte", func(t *testing.T) {
		containerPath, keyPath := testPaths(t)
		require.NoError(t, Create(rc, containerPath, keyPath))
		require.NoError(t, AddFile(rc, containerPath, keyPath, "a.txt", []byte("payload")))

		raw, err := os.ReadFile(containerPath)
		require.NoError(t, err)
		flip(t, containerPath, len(raw)-1)

		_, err = List(rc, containerPath, keyPath)
		require.Error(t, err)
		assert.True(t, cerr.Is(err, ErrAuthenticationFailed))
	})

	t.Run("flipped nonce byte", func(t *testing.T) {
		containerPath, keyPath := testPaths(t)
		require.NoError(t, Create(rc, containerPath, keyPath))
		require.NoError(t, AddFile(rc, containerPath, keyPath, "a.txt", []byte("payload")))

		flip(t, containerPath, len(Magic)+1)

		_, err := List(rc, containerPath, keyPath)
		require.Error(t, err)
		assert.True(t, cerr.Is(err, ErrAuthenticationFailed))
	})

	t.Run("wrong key", func(t *testing.T) {
		containerPath, keyPath := testPaths(t)
		require.NoError(t, Create(rc, containerPath, keyPath))
		require.NoError(t, AddFile(rc, containerPath, keyPath, "a.txt", []byte("payload")))

		otherKey := filepath.Join(t.TempDir(), "other.key")
		material, err := keystore.Generate()
		require.NoError(t, err)
		require.NoError(t, keystore.Save(rc, material, otherKey))

		_, err = List(rc, containerPath, otherKey)
		require.Error(t, err)
		assert.True(t, cerr.Is(err, ErrAuthenticationFailed))
	})

	t.Run("bad magic", func(t *testing.T) {
		containerPath, keyPath := testPaths(t)
		require.NoError(t, Create(rc, containerPath, keyPath))

		flip(t, containerPath, 0)

		_, err := List(rc, containerPath, keyPath)
		require.Error(t, err)
		assert.True(t, cerr.Is(err, ErrInvalidContainer))
	})
}

func TestMissingContainer(t *testing.T) {
	rc := testContext(t)
	containerPath, keyPath := testPaths(t)

	material, err := keystore.Generate()
	require.NoError(t, err)
	require.NoError(t, keystore.Save(rc, material, keyPath))

	// A missing container is its own condition, distinct from a missing key.
	_, err = List(rc, containerPath, keyPath)
	require.Error(t, err)
	assert.True(t, cerr.Is(err, ErrNotFound))
	assert.False(t, cerr.Is(err, keystore.ErrNotFound))
}

func TestNonceRotatesOnEveryMutation(t *testing.T) {
	rc := testContext(t)
	containerPath, keyPath := testPaths(t)

	require.NoError(t, Create(rc, containerPath, keyPath))

	readNonce := func(t *testing.T) string {
		t.Helper()
		raw, err := os.ReadFile(containerPath)
		require.NoError(t, err)
		require.Greater(t, len(raw), len(Magic)+1+NonceSize)
		return string(raw[len(Magic)+1 : len(Magic)+1+NonceSize])
	}

	seen := map[string]bool{readNonce(t): true}
	for i := 0; i < 20; i++ {
		require.NoError(t, AddFile(rc, containerPath, keyPath, "f.txt", []byte{byte(i)}))
		nonce := readNonce(t)
		assert.False(t, seen[nonce], "nonce reused across mutations")
		seen[nonce] = true
	}
}

// A shredded key makes the container permanently unreadable: every operation
// that needs the key fails with keystore.ErrNotFound, and the ciphertext on
// disk is all that remains.
func TestShreddedKeyOrphansContainer(t *testing.T) {
	rc := testContext(t)
	containerPath, keyPath := testPaths(t)

	require.NoError(t, Create(rc, containerPath, keyPath))
	require.NoError(t, AddFile(rc, containerPath, keyPath, "secret.txt", []byte("gone forever")))

	attestation, err := authz.Attest(authz.OwnershipPhrase)
	require.NoError(t, err)
	require.NoError(t, keystore.Shred(rc, keyPath, 3, attestation))

	// The container file itself is untouched.
	_, err = os.Stat(containerPath)
	require.NoError(t, err)

	_, err = List(rc, containerPath, keyPath)
	require.Error(t, err)
	assert.True(t, cerr.Is(err, keystore.ErrNotFound))

	err = AddFile(rc, containerPath, keyPath, "more.txt", []byte("too late"))
	require.Error(t, err)
	assert.True(t, cerr.Is(err, keystore.ErrNotFound))

	err = ExtractAll(rc, containerPath, keyPath, filepath.Join(t.TempDir(), "out"))
	require.Error(t, err)
	assert.True(t, cerr.Is(err, keystore.ErrNotFound))
}
