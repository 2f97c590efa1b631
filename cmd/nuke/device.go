// cmd/nuke/device.go

package nuke

import (
	"fmt"
	"os"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/certificate"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/config"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_cli"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_io"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/wipejob"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var nukeDeviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Run an OS-level cryptographic erase action against a device",
	Long: `Start a destructive wipe job against a block device and wait for it to
finish. On success a completion certificate is signed and written next to
the job's audit log.

Supported actions on linux:
  luks-kill-slot  destroy a LUKS key slot via cryptsetup
  header-zero     overwrite the leading region of the device with zeros

header-zero only overwrites a fixed leading region (LETHE_WIPE_HEADER_ZERO_MB,
default 128 MiB). Whether that constitutes a complete cryptographic erase
depends on where the key material actually resides on the device; verify
your disk layout before relying on it.

Windows and macOS encryption management is deliberately manual-only: the job
logs guidance and fails without executing anything.

Examples:
  lethe nuke device --os linux --action header-zero --target /dev/sdX
  lethe nuke device --os linux --action luks-kill-slot --target /dev/sdX --key-slot 0`,
	RunE: lethe_cli.Wrap(runNukeDevice),
}

func init() {
	NukeCmd.AddCommand(nukeDeviceCmd)

	nukeDeviceCmd.Flags().String("os", "", "Target OS class (linux, windows, macos)")
	nukeDeviceCmd.Flags().String("target", "", "Target device or path")
	nukeDeviceCmd.Flags().String("action", "", "Wipe action to perform")
	nukeDeviceCmd.Flags().Int("key-slot", 0, "LUKS key slot for luks-kill-slot")
	_ = nukeDeviceCmd.MarkFlagRequired("os")
	_ = nukeDeviceCmd.MarkFlagRequired("target")
	_ = nukeDeviceCmd.MarkFlagRequired("action")
}

func runNukeDevice(rc *lethe_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	logger := otelzap.Ctx(rc.Ctx)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	osName, _ := cmd.Flags().GetString("os")
	target, _ := cmd.Flags().GetString("target")
	action, _ := cmd.Flags().GetString("action")
	keySlot, _ := cmd.Flags().GetInt("key-slot")

	attestation, err := attest(cmd)
	if err != nil {
		return err
	}

	if os.Geteuid() != 0 {
		logger.Warn("Not running as root; the external wipe tool will likely be denied access to the device")
	}

	signer, err := certificate.EnsureSigningKey(rc, cfg.CertDir)
	if err != nil {
		return err
	}
	registry, err := wipejob.NewRegistry(cfg.JobLogDir)
	if err != nil {
		return err
	}
	engine := wipejob.NewEngine(registry, signer, cfg.CertDir, cfg.JobLogDir, cfg.HeaderZeroMB)

	jobID, err := engine.Start(rc, wipejob.Request{
		OS:      osName,
		Target:  target,
		Action:  action,
		KeySlot: keySlot,
	}, attestation)
	if err != nil {
		return err
	}

	fmt.Printf("job_id: %s\n", jobID)

	// The worker goroutine dies with the process, so the command must not
	// return until the job is terminal: once the external action is launched
	// it has to be waited out.
	if err := engine.Wait(rc.Ctx, jobID); err != nil {
		return err
	}

	job, err := engine.Status(jobID)
	if err != nil {
		return err
	}

	logger.Info("Job completed",
		zap.String("job_id", jobID),
		zap.String("state", string(job.State)),
		zap.Bool("certified", job.Certified))

	fmt.Printf("state: %s\n", job.State)
	if job.CertificatePath != "" {
		fmt.Printf("certificate: %s\n", job.CertificatePath)
	}
	if job.State == wipejob.StateFinished && !job.Certified {
		fmt.Println("WARNING: wipe completed but certificate signing failed; see the job log")
	}
	if job.State == wipejob.StateIndeterminate {
		fmt.Println("WARNING: the external tool was interrupted and may have partially run; see the job log")
	}
	return nil
}
