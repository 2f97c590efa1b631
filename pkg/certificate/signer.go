// pkg/certificate/signer.go

// Package certificate produces signed completion certificates for destructive
// jobs. The payload is canonical JSON (alphabetical key order, no extra
// whitespace) so the same logical record always signs to the same bytes, and
// the signature is written as a detached sibling artifact so the payload can
// be hashed and verified independent of signature encoding.
package certificate

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// ErrSigningFailed wraps any failure in the signing step.
var ErrSigningFailed = cerr.New("certificate signing failed")

const (
	privateKeyFile = "signing_key.pem"
	publicKeyFile  = "signing_key.pub.pem"
)

// Record is the canonical completion record for one destructive job.
// Fields are declared in alphabetical key order; encoding/json preserves
// declaration order, which makes Canonical deterministic.
type Record struct {
	Action    string `json:"action"`
	JobID     string `json:"job_id"`
	OS        string `json:"os"`
	Status    string `json:"status"`
	Target    string `json:"target"`
	Timestamp string `json:"timestamp"`
}

// Signer signs completion records with a process-wide Ed25519 key pair that
// is persisted on first use and reused across restarts.
type Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// EnsureSigningKey loads the persisted key pair from dir, generating and
// persisting a new one only if none exists. Idempotent.
func EnsureSigningKey(rc *lethe_io.RuntimeContext, dir string) (*Signer, error) {
	logger := otelzap.Ctx(rc.Ctx)

	privPath := filepath.Join(dir, privateKeyFile)
	pubPath := filepath.Join(dir, publicKeyFile)

	if pemBytes, err := os.ReadFile(privPath); err == nil {
		priv, err := parsePrivateKey(pemBytes)
		if err != nil {
			return nil, cerr.Wrapf(err, "parse signing key %s", privPath)
		}
		return &Signer{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
	} else if !os.IsNotExist(err) {
		return nil, cerr.Wrapf(err, "read signing key %s", privPath)
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, cerr.Wrap(err, "generate signing key pair")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, cerr.Wrapf(err, "create certificate directory %s", dir)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, cerr.Wrap(err, "marshal private signing key")
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	if err := os.WriteFile(privPath, privPEM, 0600); err != nil {
		return nil, cerr.Wrapf(err, "write private signing key %s", privPath)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, cerr.Wrap(err, "marshal public signing key")
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	if err := os.WriteFile(pubPath, pubPEM, 0644); err != nil {
		return nil, cerr.Wrapf(err, "write public signing key %s", pubPath)
	}

	logger.Info("Generated new certificate signing key pair",
		zap.String("private_key", privPath),
		zap.String("public_key", pubPath))

	return &Signer{priv: priv, pub: pub}, nil
}

// Canonical returns the deterministic byte serialization of a record.
func Canonical(record Record) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, cerr.Wrap(err, "canonicalize certificate record")
	}
	return data, nil
}

// Sign produces a detached signature over the canonical serialization.
func (s *Signer) Sign(record Record) ([]byte, error) {
	data, err := Canonical(record)
	if err != nil {
		return nil, cerr.Wrap(ErrSigningFailed, err.Error())
	}
	return ed25519.Sign(s.priv, data), nil
}

// PublicKey returns the verification key for this signer.
func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.pub
}

// Verify checks a detached signature against the same canonicalization that
// Sign uses. Intended for auditors and tests.
func Verify(record Record, signature []byte, pub ed25519.PublicKey) (bool, error) {
	data, err := Canonical(record)
	if err != nil {
		return false, err
	}
	return ed25519.Verify(pub, data, signature), nil
}

// Write persists the payload and its signature as sibling artifacts
// (<job_id>.json, <job_id>.sig) and returns the payload path.
func Write(rc *lethe_io.RuntimeContext, dir string, record Record, signature []byte) (string, error) {
	logger := otelzap.Ctx(rc.Ctx)

	payload, err := Canonical(record)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", cerr.Wrapf(err, "create certificate directory %s", dir)
	}

	payloadPath := filepath.Join(dir, record.JobID+".json")
	if err := os.WriteFile(payloadPath, payload, 0644); err != nil {
		return "", cerr.Wrapf(err, "write certificate payload %s", payloadPath)
	}

	sigPath := filepath.Join(dir, record.JobID+".sig")
	if err := os.WriteFile(sigPath, signature, 0644); err != nil {
		return "", cerr.Wrapf(err, "write certificate signature %s", sigPath)
	}

	logger.Info("Certificate written",
		zap.String("payload", payloadPath),
		zap.String("signature", sigPath))
	return payloadPath, nil
}

// LoadPublicKey reads the persisted verification key from dir.
func LoadPublicKey(dir string) (ed25519.PublicKey, error) {
	pemBytes, err := os.ReadFile(filepath.Join(dir, publicKeyFile))
	if err != nil {
		return nil, cerr.Wrap(err, "read public signing key")
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, cerr.New("no PEM block found in public signing key")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, cerr.Wrap(err, "parse public signing key")
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, cerr.Newf("unexpected public key type %T", key)
	}
	return pub, nil
}

func parsePrivateKey(pemBytes []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, cerr.New("no PEM block found")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, cerr.Newf("unexpected key type %T", key)
	}
	return priv, nil
}
