// cmd/inspect/certificate.go

package inspect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CodeMonkeyCybersecurity/lethe/pkg/certificate"
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

var inspectCertificateCmd = &cobra.Command{
	Use:   "certificate <job-id>",
	Short: "Show and verify the completion certificate of a finished wipe job",
	Long: `Print the canonical certificate payload for a finished job and verify its
detached signature against the persisted public signing key.`,
	Args: cobra.ExactArgs(1),
	RunE: lethe_cli.Wrap(runInspectCertificate),
}

func init() {
	InspectCmd.AddCommand(inspectCertificateCmd)
}

func runInspectCertificate(rc *lethe_io.RuntimeContext, cmd *cobra.Command, args []string) error {
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

	if job.State != wipejob.StateFinished || job.CertificatePath == "" {
		return lethe_err.NewExpectedError(
			cerr.Newf("certificate not ready for job %s (state %s, certified %t)",
				job.ID, job.State, job.Certified))
	}

	payload, err := os.ReadFile(job.CertificatePath)
	if err != nil {
		return cerr.Wrapf(err, "read certificate payload %s", job.CertificatePath)
	}

	var record certificate.Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return cerr.Wrap(err, "parse certificate payload")
	}

	sigPath := filepath.Join(filepath.Dir(job.CertificatePath), job.ID+".sig")
	signature, err := os.ReadFile(sigPath)
	if err != nil {
		return cerr.Wrapf(err, "read certificate signature %s", sigPath)
	}

	pub, err := certificate.LoadPublicKey(cfg.CertDir)
	if err != nil {
		return err
	}

	ok, err := certificate.Verify(record, signature, pub)
	if err != nil {
		return err
	}

	logger.Info("Certificate inspected",
		zap.String("job_id", job.ID),
		zap.Bool("signature_valid", ok))

	fmt.Println(string(payload))
	if ok {
		fmt.Println("signature: VALID")
	} else {
		fmt.Println("signature: INVALID")
	}
	return nil
}
