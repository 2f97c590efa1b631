// pkg/keystore/shred_test.go

package keystore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/authz"
	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAttestation(t *testing.T) authz.Attestation {
	t.Helper()
	attestation, err := authz.Attest(authz.OwnershipPhrase)
	require.NoError(t, err)
	return attestation
}

func TestShredRemovesKey(t *testing.T) {
	rc := testContext(t)
	path := filepath.Join(t.TempDir(), "doomed.key")

	material, err := Generate()
	require.NoError(t, err)
	require.NoError(t, Save(rc, material, path))

	require.NoError(t, Shred(rc, path, 3, testAttestation(t)))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "key file must be gone after shred")

	_, err = Load(rc, path)
	require.Error(t, err)
	assert.True(t, cerr.Is(err, ErrNotFound))
}

func TestShredMissingKey(t *testing.T) {
	rc := testContext(t)

	err := Shred(rc, filepath.Join(t.TempDir(), "absent.key"), 3, testAttestation(t))
	require.Error(t, err)
	assert.True(t, cerr.Is(err, ErrNotFound))
}

func TestShredRequiresAttestation(t *testing.T) {
	rc := testContext(t)
	path := filepath.Join(t.TempDir(), "guarded.key")

	material, err := Generate()
	require.NoError(t, err)
	require.NoError(t, Save(rc, material, path))

	err = Shred(rc, path, 1, authz.Attestation{})
	require.Error(t, err)

	// The key must survive an unattested attempt untouched.
	loaded, err := Load(rc, path)
	require.NoError(t, err)
	assert.Equal(t, material, loaded)
}

func TestShredRejectsZeroPasses(t *testing.T) {
	rc := testContext(t)
	path := filepath.Join(t.TempDir(), "test.key")

	material, err := Generate()
	require.NoError(t, err)
	require.NoError(t, Save(rc, material, path))

	err = Shred(rc, path, 0, testAttestation(t))
	require.Error(t, err)
}

func TestShredLargeKeyFile(t *testing.T) {
	rc := testContext(t)
	path := filepath.Join(t.TempDir(), "big.key")

	// Larger than one shred chunk to exercise the chunked overwrite path.
	big := make([]byte, shredChunkSize+4096)
	require.NoError(t, os.WriteFile(path, big, 0600))

	require.NoError(t, Shred(rc, path, 1, testAttestation(t)))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
