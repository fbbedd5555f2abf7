package cli

import (
	"bytes"
	_ "embed"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/genlang/pkg/model"
	"github.com/m-mizutani/genlang/pkg/usecase/generation"
	"gopkg.in/yaml.v3"
)

//go:embed probes.yaml
var defaultProbePlan []byte

type probePlan struct {
	Probes []generation.Probe `yaml:"probes"`
}

// loadProbes reads a probe plan from filePath, or the built-in plan when
// filePath is empty.
func loadProbes(filePath string) ([]generation.Probe, error) {
	content := defaultProbePlan
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read probe plan",
				goerr.V("file", filePath), goerr.T(model.TagConfig))
		}
		content = data
	}

	var plan probePlan
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&plan); err != nil {
		return nil, goerr.Wrap(err, "failed to parse probe plan",
			goerr.V("file", filePath), goerr.T(model.TagConfig))
	}

	if len(plan.Probes) == 0 {
		return nil, goerr.New("probe plan has no probes", goerr.V("file", filePath), goerr.T(model.TagConfig))
	}
	for i := range plan.Probes {
		if err := plan.Probes[i].Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid probe in plan",
				goerr.V("file", filePath), goerr.V("index", i), goerr.T(model.TagConfig))
		}
	}

	return plan.Probes, nil
}
