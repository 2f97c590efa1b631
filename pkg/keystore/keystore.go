// pkg/keystore/keystore.go

// Package keystore holds raw symmetric key material on disk with owner-only
// permissions, and provides the secure shred primitive that makes a
// cryptographic erase irreversible. Key bytes are never logged.
package keystore

import (
	"crypto/rand"
	"os"
	"path/filepath"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a key file does not exist.
var ErrNotFound = cerr.New("key not found")

// KeySize is the symmetric key length in bytes (AES-256).
const KeySize = 32

// Generate returns fresh 256-bit cryptographically random key material.
func Generate() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, cerr.Wrap(err, "generate key material")
	}
	return key, nil
}

// Save persists key material to path with owner-only permissions. A chmod
// failure is logged but not fatal: some filesystems do not support the mode.
func Save(rc *lethe_io.RuntimeContext, material []byte, path string) error {
	logger := otelzap.Ctx(rc.Ctx)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return cerr.Wrapf(err, "create key directory for %s", path)
	}

	if err := os.WriteFile(path, material, 0600); err != nil {
		return cerr.Wrapf(err, "write key file %s", path)
	}

	if err := os.Chmod(path, 0600); err != nil {
		logger.Warn("Failed to restrict key file permissions",
			zap.String("path", path),
			zap.Error(err))
	}

	logger.Info("Key material saved",
		zap.String("path", path),
		zap.Int("bytes", len(material)))
	return nil
}

// Load reads raw key bytes from path.
func Load(rc *lethe_io.RuntimeContext, path string) ([]byte, error) {
	material, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cerr.Wrapf(ErrNotFound, "key file %s", path)
		}
		return nil, cerr.Wrapf(err, "read key file %s", path)
	}
	return material, nil
}
