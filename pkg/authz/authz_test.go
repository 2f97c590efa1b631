// pkg/authz/authz_test.go

package authz

import (
	"testing"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttest(t *testing.T) {
	attestation, err := Attest(OwnershipPhrase)
	require.NoError(t, err)
	assert.True(t, attestation.Valid())
}

func TestAttestRejectsWrongPhrase(t *testing.T) {
	tests := []string{
		"",
		"i-own-this-device",
		"I-OWN-THIS-DEVICE ",
		"yes",
	}

	for _, phrase := range tests {
		attestation, err := Attest(phrase)
		require.Error(t, err, "phrase %q must be rejected", phrase)
		assert.True(t, lethe_err.IsExpectedUserError(err))
		assert.False(t, attestation.Valid())
	}
}

func TestZeroValueIsInvalid(t *testing.T) {
	var attestation Attestation
	assert.False(t, attestation.Valid())
}
