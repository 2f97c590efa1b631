// cmd/inspect/inspect.go
package inspect

import (
	"github.com/spf13/cobra"
)

// InspectCmd is the root command for read-only inspection operations.
var InspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect resources (containers, jobs, certificates)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}
