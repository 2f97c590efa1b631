// cmd/update/update.go
package update

import (
	"github.com/spf13/cobra"
)

// UpdateCmd is the root command for update operations.
var UpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update resources (e.g., add files to containers)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}
