// pkg/config/config.go
//
// Directory layout and tunables for lethe. Everything is overridable via
// LETHE_* environment variables (e.g. LETHE_BASE_DIR, LETHE_WIPE_PASSES).

package config

import (
	"os"
	"path/filepath"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Settings holds the resolved configuration for one process.
type Settings struct {
	BaseDir      string
	ContainerDir string
	KeyDir       string
	CertDir      string
	JobLogDir    string

	WipePasses   int
	HeaderZeroMB int
}

// Load resolves configuration from defaults and LETHE_* environment variables.
func Load() (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("LETHE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("base_dir", defaultBaseDir())
	v.SetDefault("wipe.passes", 3)
	v.SetDefault("wipe.header_zero_mb", 128)

	base := v.GetString("base_dir")

	s := &Settings{
		BaseDir:      base,
		ContainerDir: filepath.Join(base, "containers"),
		KeyDir:       filepath.Join(base, "keys"),
		CertDir:      filepath.Join(base, "certs"),
		JobLogDir:    filepath.Join(base, "jobs"),
		WipePasses:   v.GetInt("wipe.passes"),
		HeaderZeroMB: v.GetInt("wipe.header_zero_mb"),
	}

	if s.WipePasses < 1 {
		return nil, cerr.Newf("wipe.passes must be at least 1, got %d", s.WipePasses)
	}
	if s.HeaderZeroMB < 1 {
		return nil, cerr.Newf("wipe.header_zero_mb must be at least 1, got %d", s.HeaderZeroMB)
	}

	return s, nil
}

// EnsureDirs creates the on-disk layout with owner-only permissions.
func (s *Settings) EnsureDirs() error {
	for _, dir := range []string{s.ContainerDir, s.KeyDir, s.CertDir, s.JobLogDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return cerr.Wrapf(err, "create directory %s", dir)
		}
	}
	return nil
}

// ContainerPath resolves a container name inside the container directory.
// Absolute paths pass through untouched.
func (s *Settings) ContainerPath(name string) string {
	return resolve(s.ContainerDir, name)
}

// KeyPath resolves a key name inside the key directory.
func (s *Settings) KeyPath(name string) string {
	return resolve(s.KeyDir, name)
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, filepath.Base(name))
}

func defaultBaseDir() string {
	if os.Geteuid() == 0 {
		return "/var/lib/lethe"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./lethe-data"
	}
	return filepath.Join(home, ".lethe")
}
