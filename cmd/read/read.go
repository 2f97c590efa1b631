// cmd/read/read.go
package read

import (
	"github.com/spf13/cobra"
)

// ReadCmd is the root command for read/extract operations.
var ReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Read resources (e.g., extract container contents)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}
