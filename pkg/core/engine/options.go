package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"ledger_audit/pkg/core/checks"
	"ledger_audit/pkg/core/schema"

	"github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"
)

// Options is the per-domain calibration file: role bindings plus every check
// threshold. YAML for machine-managed configs; HJSON for hand-edited override
// files, since auditors annotate their calibrations with comments.
type Options struct {
	Thresholds *checks.Config `json:"thresholds" yaml:"thresholds"`
}

// LoadOptions reads a threshold override file. Format follows the extension:
// .yaml/.yml via YAML, .hjson/.json via HJSON (a strict-JSON file is valid
// HJSON). The file is an overlay: keys it omits keep their calibrated
// defaults.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read options %s: %w", path, err)
	}

	opts := Options{Thresholds: checks.DefaultConfig()}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &opts); err != nil {
			return nil, &schema.ConfigurationError{Reason: fmt.Sprintf("options YAML: %v", err)}
		}
	case ".hjson", ".json":
		if err := hjson.Unmarshal(data, &opts); err != nil {
			return nil, &schema.ConfigurationError{Reason: fmt.Sprintf("options HJSON: %v", err)}
		}
	default:
		return nil, &schema.ConfigurationError{Reason: fmt.Sprintf("unsupported options format %q", filepath.Ext(path))}
	}

	return &opts, nil
}
