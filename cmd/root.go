/* cmd/root.go */

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	// Subcommands
	"github.com/CodeMonkeyCybersecurity/lethe/cmd/create"
	"github.com/CodeMonkeyCybersecurity/lethe/cmd/inspect"
	"github.com/CodeMonkeyCybersecurity/lethe/cmd/nuke"
	"github.com/CodeMonkeyCybersecurity/lethe/cmd/read"
	"github.com/CodeMonkeyCybersecurity/lethe/cmd/update"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_err"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/logger"
)

// RootCmd is the base command for lethe.
var RootCmd = &cobra.Command{
	Use:   "lethe",
	Short: "Lethe CLI for irreversible cryptographic destruction",
	Long: `Lethe manages encrypted file containers whose keys can be destroyed to
render their contents permanently unrecoverable, and orchestrates OS-level
cryptographic erase actions with signed completion certificates.

Run it only against devices and data you own, after backups.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("⚠️  No subcommand provided. Try `lethe help`.")
		return cmd.Help()
	},
}

// RegisterCommands adds all subcommands to the root command.
func RegisterCommands() {
	for _, subCmd := range []*cobra.Command{
		create.CreateCmd,
		update.UpdateCmd,
		inspect.InspectCmd,
		read.ReadCmd,
		nuke.NukeCmd,
	} {
		RootCmd.AddCommand(subCmd)
	}
}

// Execute initializes and runs the root command.
func Execute() {
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Failed to flush logs: %v\n", err)
		}
	}()

	RegisterCommands()

	if err := RootCmd.Execute(); err != nil {
		if lethe_err.IsExpectedUserError(err) {
			logger.L().Warn("CLI completed with user error", zap.Error(err))
			os.Exit(0)
		}
		logger.L().Error("CLI execution failed", zap.Error(err))
		os.Exit(1)
	}
}
