// Package testutil provides shared test helpers for ttbl Go tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/thomasrohde/ttbl/pkg/config"
)

// ScenariosDir is the relative path from the module root to the golden
// scenarios.
const ScenariosDir = "testdata/scenarios"

// Scenario represents a test scenario loaded from a scenario.json file.
type Scenario struct {
	// Cmd is the command followed by its arguments, e.g. ["eval", "p & q"].
	Cmd    []string       `json:"cmd"`
	Config *config.Config `json:"config,omitempty"`
	Pretty bool           `json:"pretty,omitempty"`
	Meta   *ScenarioMeta  `json:"meta,omitempty"`
	Expect ExpectedResult `json:"expect"`
}

// ScenarioMeta holds optional scenario metadata.
type ScenarioMeta struct {
	Tags []string `json:"tags,omitempty"`
}

// ExpectedResult describes the expected outcome of running a scenario.
type ExpectedResult struct {
	ExitCode         int             `json:"exitCode"`
	StdoutJSON       json.RawMessage `json:"stdoutJson,omitempty"`
	StdoutJSONSubset json.RawMessage `json:"stdoutJsonSubset,omitempty"`
	StdoutText       string          `json:"stdoutText,omitempty"`
	StdoutContains   string          `json:"stdoutContains,omitempty"`
	StderrJSONSubset json.RawMessage `json:"stderrJsonSubset,omitempty"`
	StderrContains   string          `json:"stderrContains,omitempty"`
}

// LoadScenario loads a scenario from a directory containing scenario.json.
func LoadScenario(dir string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Join(dir, "scenario.json"))
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListScenarios returns all scenario directories under the given root.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			scenarioPath := filepath.Join(root, e.Name(), "scenario.json")
			if _, err := os.Stat(scenarioPath); err == nil {
				dirs = append(dirs, filepath.Join(root, e.Name()))
			}
		}
	}
	return dirs, nil
}

// Command returns the scenario command, its flags and the expression joined
// from the remaining arguments.
func (s *Scenario) Command() (string, []string, string) {
	if len(s.Cmd) == 0 {
		return "", nil, ""
	}
	var flags, args []string
	for _, a := range s.Cmd[1:] {
		if strings.HasPrefix(a, "--") {
			flags = append(flags, a)
		} else {
			args = append(args, a)
		}
	}
	return s.Cmd[0], flags, strings.Join(args, " ")
}

// EffectiveConfig returns the defaults with the scenario's settings applied.
func (s *Scenario) EffectiveConfig() (*config.Config, error) {
	cfg := config.Defaults()
	if s.Config != nil {
		cfg.Merge(s.Config)
	}
	return cfg, cfg.Validate()
}
