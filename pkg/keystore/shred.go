// pkg/keystore/shred.go

package keystore

import (
	"crypto/rand"
	"os"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/authz"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

const shredChunkSize = 1 << 20 // 1 MiB

// Shred overwrites the key file with `passes` rounds of random data, then one
// all-zero pass, then removes it. Each pass is flushed to stable storage
// before the next starts so overwrites are not coalesced by buffering. The
// random passes defeat pattern-based recovery; the final zero pass leaves a
// deterministic, auditable end state.
//
// LIMITATION: on wear-leveling flash (SSD/NVMe) and copy-on-write filesystems
// (btrfs, ZFS), old blocks may survive remapping. Shred cannot guarantee
// physical destruction there; pair it with device-level erase where that
// matters.
func Shred(rc *lethe_io.RuntimeContext, path string, passes int, attestation authz.Attestation) error {
	logger := otelzap.Ctx(rc.Ctx)

	// ASSESS
	if !attestation.Valid() {
		return cerr.New("shred requires a valid ownership attestation")
	}
	if passes < 1 {
		return cerr.Newf("shred requires at least 1 pass, got %d", passes)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cerr.Wrapf(ErrNotFound, "key file %s", path)
		}
		return cerr.Wrapf(err, "stat key file %s", path)
	}
	size := info.Size()

	logger.Info("Shredding key file",
		zap.String("path", path),
		zap.Int64("size", size),
		zap.Int("passes", passes))

	// INTERVENE
	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return cerr.Wrapf(err, "open key file %s for overwrite", path)
	}
	defer file.Close()

	for pass := 1; pass <= passes; pass++ {
		if err := overwrite(file, size, randomChunk); err != nil {
			return cerr.Wrapf(err, "random overwrite pass %d of %s", pass, path)
		}
		if err := unix.Fdatasync(int(file.Fd())); err != nil {
			return cerr.Wrapf(err, "sync after pass %d of %s", pass, path)
		}
	}

	if err := overwrite(file, size, zeroChunk); err != nil {
		return cerr.Wrapf(err, "zero overwrite of %s", path)
	}
	if err := unix.Fdatasync(int(file.Fd())); err != nil {
		return cerr.Wrapf(err, "sync after zero pass of %s", path)
	}

	if err := file.Close(); err != nil {
		return cerr.Wrapf(err, "close key file %s", path)
	}

	if err := os.Remove(path); err != nil {
		return cerr.Wrapf(err, "remove key file %s", path)
	}

	// EVALUATE
	logger.Info("Key file shredded and removed",
		zap.String("path", path),
		zap.Int("random_passes", passes))
	return nil
}

// overwrite rewrites the whole file from offset 0 in chunks produced by fill.
func overwrite(file *os.File, size int64, fill func([]byte) error) error {
	if _, err := file.Seek(0, 0); err != nil {
		return err
	}
	buf := make([]byte, shredChunkSize)
	remaining := size
	for remaining > 0 {
		chunk := buf
		if remaining < int64(len(buf)) {
			chunk = buf[:remaining]
		}
		if err := fill(chunk); err != nil {
			return err
		}
		if _, err := file.Write(chunk); err != nil {
			return err
		}
		remaining -= int64(len(chunk))
	}
	return nil
}

func randomChunk(buf []byte) error {
	_, err := rand.Read(buf)
	return err
}

func zeroChunk(buf []byte) error {
	for i := range buf {
		buf[i] = 0
	}
	return nil
}
