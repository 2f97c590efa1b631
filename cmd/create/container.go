// cmd/create/container.go

package create

import (
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/config"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/container"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_cli"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_err"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var createContainerCmd = &cobra.Command{
	Use:   "container",
	Short: "Create a new encrypted container",
	Long: `Create an empty encrypted container. If the named key does not exist yet,
fresh 256-bit key material is generated and saved with owner-only permissions.

Examples:
  lethe create container --container vault.bin --key vault.key`,
	RunE: lethe_cli.Wrap(runCreateContainer),
}

func init() {
	CreateCmd.AddCommand(createContainerCmd)

	createContainerCmd.Flags().String("container", "", "Container name or path")
	createContainerCmd.Flags().String("key", "", "Key name or path")
	_ = createContainerCmd.MarkFlagRequired("container")
	_ = createContainerCmd.MarkFlagRequired("key")
}

func runCreateContainer(rc *lethe_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	logger := otelzap.Ctx(rc.Ctx)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	containerName, _ := cmd.Flags().GetString("container")
	keyName, _ := cmd.Flags().GetString("key")

	containerPath := cfg.ContainerPath(containerName)
	keyPath := cfg.KeyPath(keyName)

	if err := container.Create(rc, containerPath, keyPath); err != nil {
		if cerr.Is(err, container.ErrAlreadyExists) {
			return lethe_err.NewExpectedError(err)
		}
		return err
	}

	logger.Info("Container created",
		zap.String("container", containerPath),
		zap.String("key", keyPath))
	return nil
}
