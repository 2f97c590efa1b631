// pkg/certificate/signer_test.go

package certificate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) *lethe_io.RuntimeContext {
	t.Helper()
	return lethe_io.NewContext(context.Background(), "test")
}

func testRecord(jobID string) Record {
	return Record{
		Action:    "header-zero",
		JobID:     jobID,
		OS:        "linux",
		Status:    "success",
		Target:    "/dev/sdX",
		Timestamp: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
}

func TestCanonicalIsDeterministic(t *testing.T) {
	record := testRecord("job-1")

	first, err := Canonical(record)
	require.NoError(t, err)
	second, err := Canonical(record)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Keys appear in alphabetical order so independent implementations can
	// reproduce the signed bytes.
	assert.Equal(t,
		`{"action":"header-zero","job_id":"job-1","os":"linux","status":"success","target":"/dev/sdX","timestamp":"2026-08-31T12:00:00Z"}`,
		string(first))
}

func TestEnsureSigningKeyIdempotent(t *testing.T) {
	rc := testContext(t)
	dir := t.TempDir()

	first, err := EnsureSigningKey(rc, dir)
	require.NoError(t, err)
	second, err := EnsureSigningKey(rc, dir)
	require.NoError(t, err)

	assert.Equal(t, first.PublicKey(), second.PublicKey(), "repeated calls must reuse the persisted key pair")

	info, err := os.Stat(filepath.Join(dir, "signing_key.pem"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSignAndVerify(t *testing.T) {
	rc := testContext(t)
	signer, err := EnsureSigningKey(rc, t.TempDir())
	require.NoError(t, err)

	record := testRecord("job-1")
	sig1, err := signer.Sign(record)
	require.NoError(t, err)
	sig2, err := signer.Sign(record)
	require.NoError(t, err)
	assert.Equal(t, sig1, sig2, "signing the same record twice must yield identical signatures")

	ok, err := Verify(record, sig1, signer.PublicKey())
	require.NoError(t, err)
	assert.True(t, ok)

	// A different job produces a different signature.
	other, err := signer.Sign(testRecord("job-2"))
	require.NoError(t, err)
	assert.NotEqual(t, sig1, other)

	// Any field change invalidates the signature.
	tampered := record
	tampered.Status = "failed"
	ok, err = Verify(tampered, sig1, signer.PublicKey())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteProducesSiblingArtifacts(t *testing.T) {
	rc := testContext(t)
	dir := t.TempDir()
	signer, err := EnsureSigningKey(rc, dir)
	require.NoError(t, err)

	record := testRecord("job-9")
	sig, err := signer.Sign(record)
	require.NoError(t, err)

	payloadPath, err := Write(rc, dir, record, sig)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "job-9.json"), payloadPath)

	payload, err := os.ReadFile(payloadPath)
	require.NoError(t, err)
	var parsed Record
	require.NoError(t, json.Unmarshal(payload, &parsed))
	assert.Equal(t, record, parsed)

	sigBytes, err := os.ReadFile(filepath.Join(dir, "job-9.sig"))
	require.NoError(t, err)

	// An auditor holding only the on-disk artifacts and the public key can
	// verify the certificate.
	pub, err := LoadPublicKey(dir)
	require.NoError(t, err)
	ok, err := Verify(parsed, sigBytes, pub)
	require.NoError(t, err)
	assert.True(t, ok)
}
