// cmd/create/create.go
package create

import (
	"github.com/spf13/cobra"
)

// CreateCmd is the root command for create operations.
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create resources (e.g., encrypted containers)",
	Long:  `The create command creates lethe-managed resources such as encrypted containers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}
