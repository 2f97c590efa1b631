// pkg/authz/authz.go
//
// Typed ownership attestation for destructive operations. Admission control
// (prompting, flag parsing) happens at the CLI boundary; the core packages
// only accept an Attestation value, so the compiler enforces that attestation
// happened before anything irreversible runs.

package authz

import (
	"crypto/subtle"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_err"
	cerr "github.com/cockroachdb/errors"
)

// OwnershipPhrase is what the caller must type to attest that they own the
// target of a destructive operation.
const OwnershipPhrase = "I-OWN-THIS-DEVICE"

// Attestation is an opaque capability proving that ownership was attested.
// The zero value is useless; the only way to obtain a valid one is Attest.
type Attestation struct {
	valid bool
}

// Attest validates the ownership phrase and returns a capability on success.
func Attest(phrase string) (Attestation, error) {
	if subtle.ConstantTimeCompare([]byte(phrase), []byte(OwnershipPhrase)) != 1 {
		return Attestation{}, lethe_err.NewExpectedError(
			cerr.Newf("ownership not confirmed: expected the exact phrase %q", OwnershipPhrase))
	}
	return Attestation{valid: true}, nil
}

// Valid reports whether this attestation was issued by Attest.
func (a Attestation) Valid() bool {
	return a.valid
}
