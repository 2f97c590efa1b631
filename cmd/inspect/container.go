// cmd/inspect/container.go

package inspect

import (
	"fmt"

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

var inspectContainerCmd = &cobra.Command{
	Use:   "container",
	Short: "List the contents of an encrypted container",
	Long: `Decrypt the container and print every record name in order. Duplicate
names are surfaced as-is; containers are append-only lists, not maps.`,
	RunE: lethe_cli.Wrap(runInspectContainer),
}

func init() {
	InspectCmd.AddCommand(inspectContainerCmd)

	inspectContainerCmd.Flags().String("container", "", "Container name or path")
	inspectContainerCmd.Flags().String("key", "", "Key name or path")
	_ = inspectContainerCmd.MarkFlagRequired("container")
	_ = inspectContainerCmd.MarkFlagRequired("key")
}

func runInspectContainer(rc *lethe_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	logger := otelzap.Ctx(rc.Ctx)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	containerName, _ := cmd.Flags().GetString("container")
	keyName, _ := cmd.Flags().GetString("key")

	names, err := container.List(rc, cfg.ContainerPath(containerName), cfg.KeyPath(keyName))
	if err != nil {
		if cerr.Is(err, keystore.ErrNotFound) || cerr.Is(err, container.ErrNotFound) || cerr.Is(err, container.ErrInvalidContainer) {
			return lethe_err.NewExpectedError(err)
		}
		return err
	}

	logger.Info("Container listed",
		zap.String("container", containerName),
		zap.Int("records", len(names)))

	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
