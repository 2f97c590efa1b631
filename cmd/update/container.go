// cmd/update/container.go

package update

import (
	"os"
	"path/filepath"

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

var updateContainerCmd = &cobra.Command{
	Use:   "container",
	Short: "Add a file to an encrypted container",
	Long: `Decrypt the container, append the file as a new record, and re-encrypt the
whole container under a fresh nonce. The container file is replaced
atomically. Duplicate names are retained, not overwritten.

Examples:
  lethe update container --container vault.bin --key vault.key --file ./notes.txt
  lethe update container --container vault.bin --key vault.key --file ./a.txt --name renamed.txt`,
	RunE: lethe_cli.Wrap(runUpdateContainer),
}

func init() {
	UpdateCmd.AddCommand(updateContainerCmd)

	updateContainerCmd.Flags().String("container", "", "Container name or path")
	updateContainerCmd.Flags().String("key", "", "Key name or path")
	updateContainerCmd.Flags().String("file", "", "File to add")
	updateContainerCmd.Flags().String("name", "", "Stored name (defaults to the file's base name)")
	_ = updateContainerCmd.MarkFlagRequired("container")
	_ = updateContainerCmd.MarkFlagRequired("key")
	_ = updateContainerCmd.MarkFlagRequired("file")
}

func runUpdateContainer(rc *lethe_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	logger := otelzap.Ctx(rc.Ctx)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	containerName, _ := cmd.Flags().GetString("container")
	keyName, _ := cmd.Flags().GetString("key")
	filePath, _ := cmd.Flags().GetString("file")
	storedName, _ := cmd.Flags().GetString("name")

	if storedName == "" {
		storedName = filepath.Base(filePath)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return lethe_err.NewExpectedError(cerr.Wrapf(err, "read input file %s", filePath))
	}

	err = container.AddFile(rc, cfg.ContainerPath(containerName), cfg.KeyPath(keyName), storedName, content)
	if err != nil {
		if cerr.Is(err, keystore.ErrNotFound) || cerr.Is(err, container.ErrNotFound) || cerr.Is(err, container.ErrInvalidContainer) {
			return lethe_err.NewExpectedError(err)
		}
		return err
	}

	logger.Info("File added",
		zap.String("container", containerName),
		zap.String("name", storedName),
		zap.Int("bytes", len(content)))
	return nil
}
