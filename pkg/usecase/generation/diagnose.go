package generation

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/genlang/pkg/adapter"
	"github.com/m-mizutani/genlang/pkg/model"
	"github.com/m-mizutani/genlang/pkg/utils/logging"
)

type Backend string

const (
	BackendGenerativeLanguage Backend = "generativelanguage"
	BackendVertex             Backend = "vertex"
)

const (
	DefaultProbeTimeout = 10 * time.Second

	probePrompt  = "Hi"
	excerptLimit = 200
)

// Probe is one backend and model combination tried by Diagnose.
type Probe struct {
	Name    string        `yaml:"name"`
	Backend Backend       `yaml:"backend"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// Endpoint overrides the generative-language host for this probe only.
	Endpoint string `yaml:"endpoint,omitempty"`
}

func (p *Probe) Validate() error {
	if p.Name == "" {
		return goerr.New("probe name is required", goerr.T(model.TagConfig))
	}
	switch p.Backend {
	case BackendGenerativeLanguage, BackendVertex:
	default:
		return goerr.New("unknown probe backend",
			goerr.V("probe", p.Name), goerr.V("backend", p.Backend), goerr.T(model.TagConfig))
	}
	if err := model.NewModelID(p.Model).Validate(); err != nil {
		return goerr.Wrap(err, "invalid probe model", goerr.V("probe", p.Name), goerr.T(model.TagConfig))
	}
	if p.Timeout < 0 {
		return goerr.New("probe timeout must not be negative",
			goerr.V("probe", p.Name), goerr.V("timeout", p.Timeout), goerr.T(model.TagConfig))
	}
	return nil
}

type ProbeResult struct {
	Probe Probe
	// Status is the HTTP status of the attempt, or zero when no response was received.
	Status  int
	Excerpt string
	Err     error
}

func (r *ProbeResult) OK() bool { return r.Err == nil }

type DiagnoseReport struct {
	Source      model.CredentialSource
	ProjectID   string
	ClientEmail string
	Results     []*ProbeResult
}

// Succeeded returns the first successful attempt, or nil.
func (r *DiagnoseReport) Succeeded() *ProbeResult {
	for _, res := range r.Results {
		if res.OK() {
			return res
		}
	}
	return nil
}

// Diagnose tries the probes in order and stops at the first success. Failed
// attempts are recorded in the report; if none succeeds, remediation steps
// are printed and a verification error is returned.
func (u *UseCase) Diagnose(ctx context.Context, probes []Probe) (*DiagnoseReport, error) {
	if len(probes) == 0 {
		return nil, goerr.New("no probe to run", goerr.T(model.TagConfig))
	}
	for i := range probes {
		if err := probes[i].Validate(); err != nil {
			return nil, err
		}
	}

	cred, tok, err := u.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	report := &DiagnoseReport{
		Source:      cred.Source,
		ProjectID:   cred.ProjectID,
		ClientEmail: cred.ClientEmail,
	}

	u.printf("Credential: %s\n", describeCredential(cred))
	u.printf("Project ID: %s\n", valueOrNone(cred.ProjectID))
	u.printf("Service account: %s\n", valueOrNone(cred.ClientEmail))

	logger := logging.From(ctx)
	for _, probe := range probes {
		u.printf("\nTesting: %s (%s, %s)\n", probe.Name, probe.Backend, probe.Model)

		result := u.runProbe(ctx, cred, tok, probe)
		report.Results = append(report.Results, result)
		logger.Debug("probe finished", "probe", probe.Name, "status", result.Status, "ok", result.OK())

		if result.OK() {
			u.printf("Status: %d\n", result.Status)
			u.printf("✓ Success\n")
			u.printf("Response: %s\n", result.Excerpt)
			return report, nil
		}

		if result.Status != 0 {
			u.printf("Status: %d\n", result.Status)
		}
		u.printf("✗ Failed: %s\n", result.Excerpt)
	}

	u.printRemediation(cred)

	return report, goerr.New("all probes failed",
		goerr.V("probes", len(probes)),
		goerr.V("project_id", cred.ProjectID),
		goerr.T(model.TagVerify))
}

func (u *UseCase) runProbe(ctx context.Context, cred *model.Credential, tok *model.AccessToken, probe Probe) *ProbeResult {
	result := &ProbeResult{Probe: probe}

	timeout := probe.Timeout
	if timeout == 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var client adapter.Generator
	var err error
	switch probe.Backend {
	case BackendVertex:
		client, err = u.connectVertex(ctx, cred, u.location)
	default:
		endpoint := probe.Endpoint
		if endpoint == "" {
			endpoint = u.endpoint
		}
		client, err = u.connect(ctx, cred, tok, adapter.WithEndpoint(endpoint))
	}
	if err != nil {
		result.Err = err
		result.Excerpt = excerpt(err.Error())
		return result
	}

	resp, err := client.GenerateContent(ctx, &model.GenerationRequest{
		Model:  model.NewModelID(probe.Model),
		Prompt: probePrompt,
	})
	if err != nil {
		result.Err = err
		result.Status = statusOf(err)
		result.Excerpt = excerpt(err.Error())
		return result
	}

	text, err := resp.Text()
	if err != nil {
		result.Err = err
		result.Status = http.StatusOK
		result.Excerpt = excerpt(err.Error())
		return result
	}

	result.Status = http.StatusOK
	result.Excerpt = excerpt(text)
	return result
}

func (u *UseCase) printRemediation(cred *model.Credential) {
	u.printf("\nSuggestions:\n")
	u.printf("1. Make sure the Generative Language API is enabled:\n")
	u.printf("   https://console.cloud.google.com/apis/library/generativelanguage.googleapis.com\n")
	u.printf("   Project: %s\n", valueOrNone(cred.ProjectID))
	u.printf("2. Make sure the service account has permission:\n")
	u.printf("   Account: %s\n", valueOrNone(cred.ClientEmail))
	u.printf("   Required role: Generative Language User or Vertex AI User\n")
	u.printf("3. Check whether an API key from Google AI Studio is needed instead:\n")
	u.printf("   https://aistudio.google.com/apikey\n")
	u.printf("4. On first use, permissions can take a few minutes to propagate\n")
}

func (u *UseCase) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(u.output, format, args...)
}

func statusOf(err error) int {
	if e := goerr.Unwrap(err); e != nil {
		if status, ok := e.Values()["status"].(int); ok {
			return status
		}
	}
	return 0
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= excerptLimit {
		return s
	}
	return string(runes[:excerptLimit]) + "..."
}

func describeCredential(cred *model.Credential) string {
	switch {
	case cred.Path != "":
		return fmt.Sprintf("%s (%s=%s)", cred.Source, cred.Variable, cred.Path)
	case cred.Variable != "":
		return fmt.Sprintf("%s (%s)", cred.Source, cred.Variable)
	default:
		return string(cred.Source)
	}
}

func valueOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
