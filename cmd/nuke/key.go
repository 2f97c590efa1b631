// cmd/nuke/key.go

package nuke

import (
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/authz"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/config"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/interaction"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/keystore"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_cli"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_err"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var nukeKeyCmd = &cobra.Command{
	Use:   "key",
	Short: "Shred a container key file (cryptographic erase)",
	Long: `Overwrite a key file with random data, then zeros, then remove it. Every
container encrypted under this key becomes permanently unrecoverable.

The overwrite passes defeat straightforward forensic recovery of the key
bytes. On wear-leveling flash storage (SSD/NVMe) and copy-on-write
filesystems old blocks may still survive remapping; pair this with a
device-level erase where that matters.

Examples:
  lethe nuke key --key vault.key
  lethe nuke key --key vault.key --passes 7 --attest I-OWN-THIS-DEVICE`,
	RunE: lethe_cli.Wrap(runNukeKey),
}

func init() {
	NukeCmd.AddCommand(nukeKeyCmd)

	nukeKeyCmd.Flags().String("key", "", "Key name or path to destroy")
	nukeKeyCmd.Flags().Int("passes", 0, "Random overwrite passes (default from config)")
	_ = nukeKeyCmd.MarkFlagRequired("key")
}

func runNukeKey(rc *lethe_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	logger := otelzap.Ctx(rc.Ctx)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	keyName, _ := cmd.Flags().GetString("key")
	passes, _ := cmd.Flags().GetInt("passes")
	if passes <= 0 {
		passes = cfg.WipePasses
	}

	attestation, err := attest(cmd)
	if err != nil {
		return err
	}

	keyPath := cfg.KeyPath(keyName)
	logger.Info("Shredding key",
		zap.String("key_path", keyPath),
		zap.Int("passes", passes))

	if err := keystore.Shred(rc, keyPath, passes, attestation); err != nil {
		if cerr.Is(err, keystore.ErrNotFound) {
			return lethe_err.NewExpectedError(err)
		}
		return err
	}

	logger.Info("Key destroyed; containers encrypted under it are now unrecoverable",
		zap.String("key_path", keyPath))
	return nil
}

// attest resolves the ownership attestation from the --attest flag or an
// interactive prompt.
func attest(cmd *cobra.Command) (authz.Attestation, error) {
	phrase, err := interaction.PromptIfMissing(cmd, "attest",
		"Type "+authz.OwnershipPhrase+" to confirm ownership", true)
	if err != nil {
		return authz.Attestation{}, err
	}
	return authz.Attest(phrase)
}
