// pkg/config/config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(s.BaseDir, "containers"), s.ContainerDir)
	assert.Equal(t, filepath.Join(s.BaseDir, "keys"), s.KeyDir)
	assert.Equal(t, filepath.Join(s.BaseDir, "certs"), s.CertDir)
	assert.Equal(t, filepath.Join(s.BaseDir, "jobs"), s.JobLogDir)
	assert.Equal(t, 3, s.WipePasses)
	assert.Equal(t, 128, s.HeaderZeroMB)
}

func TestLoadEnvOverrides(t *testing.T) {
	base := t.TempDir()
	t.Setenv("LETHE_BASE_DIR", base)
	t.Setenv("LETHE_WIPE_PASSES", "7")
	t.Setenv("LETHE_WIPE_HEADER_ZERO_MB", "16")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, base, s.BaseDir)
	assert.Equal(t, 7, s.WipePasses)
	assert.Equal(t, 16, s.HeaderZeroMB)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("LETHE_WIPE_PASSES", "0")
	_, err := Load()
	require.Error(t, err)
}

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	t.Setenv("LETHE_BASE_DIR", base)

	s, err := Load()
	require.NoError(t, err)
	require.NoError(t, s.EnsureDirs())

	for _, dir := range []string{s.ContainerDir, s.KeyDir, s.CertDir, s.JobLogDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	}
}

func TestPathResolution(t *testing.T) {
	s := &Settings{
		ContainerDir: "/var/lib/lethe/containers",
		KeyDir:       "/var/lib/lethe/keys",
	}

	assert.Equal(t, "/var/lib/lethe/containers/vault.lethe", s.ContainerPath("vault.lethe"))
	assert.Equal(t, "/tmp/elsewhere.lethe", s.ContainerPath("/tmp/elsewhere.lethe"))

	// Relative names cannot escape the key directory.
	assert.Equal(t, "/var/lib/lethe/keys/vault.key", s.KeyPath("../../vault.key"))
}
