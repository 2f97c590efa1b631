// cmd/inspect/job.go

package inspect

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/config"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_cli"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_err"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/lethe_io"
	"github.com/CodeMonkeyCybersecurity/lethe/pkg/wipejob"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var inspectJobCmd = &cobra.Command{
	Use:   "job <job-id>",
	Short: "Show the status and audit log of a wipe job",
	Long: `Print the state, outcome and accumulated audit log of a destructive job.
Status reads are snapshots: a running job may have moved on by the time the
output is printed. Job IDs act as bearer tokens; treat them as secrets.`,
	Args: cobra.ExactArgs(1),
	RunE: lethe_cli.Wrap(runInspectJob),
}

func init() {
	InspectCmd.AddCommand(inspectJobCmd)
}

func runInspectJob(rc *lethe_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	logger := otelzap.Ctx(rc.Ctx)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	registry, err := wipejob.NewRegistry(cfg.JobLogDir)
	if err != nil {
		return err
	}

	job, err := registry.Get(args[0])
	if err != nil {
		if cerr.Is(err, wipejob.ErrJobNotFound) {
			return lethe_err.NewExpectedError(err)
		}
		return err
	}

	logger.Info("Job inspected",
		zap.String("job_id", job.ID),
		zap.String("state", string(job.State)))

	fmt.Printf("Job:       %s\n", job.ID)
	fmt.Printf("OS:        %s\n", job.OS)
	fmt.Printf("Target:    %s\n", job.Target)
	fmt.Printf("Action:    %s\n", job.Action)
	fmt.Printf("State:     %s\n", job.State)
	fmt.Printf("Success:   %t\n", job.Success)
	fmt.Printf("Certified: %t\n", job.Certified)
	if job.CertificatePath != "" {
		fmt.Printf("Certificate: %s\n", job.CertificatePath)
	}
	fmt.Println("Log:")
	for _, line := range job.Log {
		fmt.Println("  " + line)
	}
	return nil
}
