// pkg/container/container.go

// Package container implements the encrypted file container: a single AES-GCM
// blob holding an append-only list of named file records. Every mutation is a
// whole-container decrypt → append → re-encrypt cycle with a fresh nonce and
// an atomic replace of the container file. That is a deliberate trade: O(size)
// per mutation, in exchange for strong atomicity and no partial-update state.
package container

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"os"
	"path/filepath"
	"sync"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/keystore"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyExists is returned by Create when the container file exists.
	ErrAlreadyExists = cerr.New("container already exists")
	// ErrNotFound is returned when the container file does not exist.
	ErrNotFound = cerr.New("container not found")
	// ErrInvalidContainer is returned when the magic tag does not match.
	ErrInvalidContainer = cerr.New("invalid container")
	// ErrAuthenticationFailed is returned when the GCM tag check fails. This
	// signals tampering or a wrong key, not ordinary corruption, and is never
	// silently ignored.
	ErrAuthenticationFailed = cerr.New("container authentication failed")
)

// pathLocks serializes mutations per container path within this process.
// The decrypt-modify-re-encrypt cycle is read-modify-write with no on-disk
// locking, so concurrent AddFile calls against one container would race and
// lose writes. Cross-process callers must serialize externally.
var pathLocks sync.Map // containerPath -> *sync.Mutex

func lockPath(path string) *sync.Mutex {
	mu, _ := pathLocks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Create initializes an empty encrypted container at containerPath. If the
// key file is absent, fresh key material is generated and saved first.
func Create(rc *lethe_io.RuntimeContext, containerPath, keyPath string) error {
	logger := otelzap.Ctx(rc.Ctx)

	mu := lockPath(containerPath)
	mu.Lock()
	defer mu.Unlock()

	// ASSESS
	if _, err := os.Stat(containerPath); err == nil {
		return cerr.Wrapf(ErrAlreadyExists, "container %s", containerPath)
	} else if !os.IsNotExist(err) {
		return cerr.Wrapf(err, "stat container %s", containerPath)
	}

	key, err := keystore.Load(rc, keyPath)
	if cerr.Is(err, keystore.ErrNotFound) {
		key, err = keystore.Generate()
		if err != nil {
			return err
		}
		if err := keystore.Save(rc, key, keyPath); err != nil {
			return err
		}
		logger.Info("Generated new container key", zap.String("key_path", keyPath))
	} else if err != nil {
		return err
	}

	// INTERVENE
	if err := sealToFile(containerPath, key, nil); err != nil {
		return err
	}

	// EVALUATE
	logger.Info("Container created",
		zap.String("container", containerPath),
		zap.String("key_path", keyPath))
	return nil
}

// AddFile appends a named record and atomically rewrites the container.
// The name is truncated to its final path element so a crafted name cannot
// traverse directories on extraction.
func AddFile(rc *lethe_io.RuntimeContext, containerPath, keyPath, name string, content []byte) error {
	logger := otelzap.Ctx(rc.Ctx)

	mu := lockPath(containerPath)
	mu.Lock()
	defer mu.Unlock()

	key, err := keystore.Load(rc, keyPath)
	if err != nil {
		return err
	}

	plaintext, err := openFromFile(containerPath, key)
	if err != nil {
		return err
	}

	safeName := filepath.Base(name)
	plaintext, err = appendRecord(plaintext, safeName, content)
	if err != nil {
		return err
	}

	if err := sealToFile(containerPath, key, plaintext); err != nil {
		return err
	}

	logger.Info("File added to container",
		zap.String("container", containerPath),
		zap.String("name", safeName),
		zap.Int("bytes", len(content)))
	return nil
}

// List returns the ordered record names, duplicates included.
func List(rc *lethe_io.RuntimeContext, containerPath, keyPath string) ([]string, error) {
	key, err := keystore.Load(rc, keyPath)
	if err != nil {
		return nil, err
	}

	plaintext, err := openFromFile(containerPath, key)
	if err != nil {
		return nil, err
	}

	records, err := parseRecords(plaintext)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.Name)
	}
	return names, nil
}

// ExtractAll decrypts every record and writes each under its stored name in
// outDir, creating outDir if absent. Records extract in order, so a later
// duplicate name overwrites an earlier one on the filesystem.
func ExtractAll(rc *lethe_io.RuntimeContext, containerPath, keyPath, outDir string) error {
	logger := otelzap.Ctx(rc.Ctx)

	key, err := keystore.Load(rc, keyPath)
	if err != nil {
		return err
	}

	plaintext, err := openFromFile(containerPath, key)
	if err != nil {
		return err
	}

	records, err := parseRecords(plaintext)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0700); err != nil {
		return cerr.Wrapf(err, "create output directory %s", outDir)
	}

	for _, rec := range records {
		dest := filepath.Join(outDir, filepath.Base(rec.Name))
		if err := os.WriteFile(dest, rec.Data, 0600); err != nil {
			return cerr.Wrapf(err, "extract record %q to %s", rec.Name, dest)
		}
	}

	logger.Info("Container extracted",
		zap.String("container", containerPath),
		zap.String("out_dir", outDir),
		zap.Int("records", len(records)))
	return nil
}

// sealToFile encrypts plaintext under a fresh random nonce and atomically
// replaces the container file (write-to-temp-then-rename, so a crash mid-write
// never leaves a torn container).
func sealToFile(containerPath string, key, plaintext []byte) error {
	gcm, err := newGCM(key)
	if err != nil {
		return err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return cerr.Wrap(err, "draw container nonce")
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, len(Magic)+1+len(nonce)+len(ciphertext))
	out = append(out, Magic...)
	out = append(out, byte(len(nonce)))
	out = append(out, nonce...)
	out = append(out, ciphertext...)

	dir := filepath.Dir(containerPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return cerr.Wrapf(err, "create container directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(containerPath)+".tmp-*")
	if err != nil {
		return cerr.Wrap(err, "create temp container file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return cerr.Wrap(err, "write temp container file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return cerr.Wrap(err, "sync temp container file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return cerr.Wrap(err, "close temp container file")
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return cerr.Wrap(err, "chmod temp container file")
	}

	if err := os.Rename(tmpPath, containerPath); err != nil {
		os.Remove(tmpPath)
		return cerr.Wrapf(err, "replace container %s", containerPath)
	}
	return nil
}

// openFromFile reads and decrypts the whole container, re-validating the
// authentication tag on every read.
func openFromFile(containerPath string, key []byte) ([]byte, error) {
	raw, err := os.ReadFile(containerPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cerr.Wrapf(ErrNotFound, "container %s", containerPath)
		}
		return nil, cerr.Wrapf(err, "read container %s", containerPath)
	}

	if len(raw) < len(Magic)+1 {
		return nil, cerr.Wrapf(ErrInvalidContainer, "container %s too short", containerPath)
	}
	if string(raw[:len(Magic)]) != Magic {
		return nil, cerr.Wrapf(ErrInvalidContainer, "bad magic in %s", containerPath)
	}

	nonceLen := int(raw[len(Magic)])
	rest := raw[len(Magic)+1:]
	if len(rest) < nonceLen {
		return nil, cerr.Wrapf(ErrInvalidContainer, "truncated nonce in %s", containerPath)
	}
	nonce := rest[:nonceLen]
	ciphertext := rest[nonceLen:]

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if nonceLen != gcm.NonceSize() {
		return nil, cerr.Wrapf(ErrInvalidContainer, "nonce length %d in %s", nonceLen, containerPath)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, cerr.Wrapf(ErrAuthenticationFailed, "container %s", containerPath)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, cerr.Wrap(err, "create cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, cerr.Wrap(err, "create GCM")
	}
	return gcm, nil
}
