// cmd/read/container.go

package read

import (
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/config"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/container"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/keystore"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_cli"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_err"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var readContainerCmd = &cobra.Command{
	Use:   "container",
	Short: "Extract all files from an encrypted container",
	Long: `Decrypt the container and write every record into the output directory
under its stored name. Records extract in order, so when duplicate names
exist the last record wins on the filesystem.

Examples:
  lethe read container --container vault.bin --key vault.key --out ./extracted`,
	RunE: lethe_cli.Wrap(runReadContainer),
}

func init() {
	ReadCmd.AddCommand(readContainerCmd)

	readContainerCmd.Flags().String("container", "", "Container name or path")
	readContainerCmd.Flags().String("key", "", "Key name or path")
	readContainerCmd.Flags().String("out", "", "Output directory")
	_ = readContainerCmd.MarkFlagRequired("container")
	_ = readContainerCmd.MarkFlagRequired("key")
	_ = readContainerCmd.MarkFlagRequired("out")
}

func runReadContainer(rc *lethe_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	logger := otelzap.Ctx(rc.Ctx)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	containerName, _ := cmd.Flags().GetString("container")
	keyName, _ := cmd.Flags().GetString("key")
	outDir, _ := cmd.Flags().GetString("out")

	err = container.ExtractAll(rc, cfg.ContainerPath(containerName), cfg.KeyPath(keyName), outDir)
	if err != nil {
		if cerr.Is(err, keystore.ErrNotFound) || cerr.Is(err, container.ErrNotFound) || cerr.Is(err, container.ErrInvalidContainer) {
			return lethe_err.NewExpectedError(err)
		}
		return err
	}

	logger.Info("Container extracted",
		zap.String("container", containerName),
		zap.String("out_dir", outDir))
	return nil
}
