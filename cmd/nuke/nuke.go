// cmd/nuke/nuke.go

package nuke

import (
	"github.com/spf13/cobra"
)

// NukeCmd groups the destructive operations.
var NukeCmd = &cobra.Command{
	Use:   "nuke",
	Short: "Irreversibly destroy keys or device encryption headers",
	Long: `Destructive operations that cannot be undone.

'nuke key' shreds a container key file, making every container encrypted
under it permanently unrecoverable (cryptographic erase).

'nuke device' launches an OS-level wipe job against a block device through
external privileged tools, and signs a completion certificate on success.

Every nuke subcommand requires ownership attestation: you must supply the
exact phrase I-OWN-THIS-DEVICE, via --attest or the interactive prompt.
Run these only against devices and data you own, after backups.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	NukeCmd.PersistentFlags().String("attest", "", "Ownership attestation phrase (prompted if omitted)")
}
