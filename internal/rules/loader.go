package rules

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"statement-import-service/pkg/errors"
)

// ruleSpec is the YAML form of a rule. The match field uses the string
// forms accepted by ParseMatchType ("contains", "exact", "regex",
// "fuzzy:<threshold>").
type ruleSpec struct {
	Name           string `yaml:"name"`
	Priority       int    `yaml:"priority"`
	Pattern        string `yaml:"pattern"`
	Match          string `yaml:"match"`
	AccountCode    string `yaml:"account_code"`
	AmountMinCents *int64 `yaml:"amount_min_cents"`
	AmountMaxCents *int64 `yaml:"amount_max_cents"`
}

// Load reads a YAML rule list from r. Unlike an individually malformed
// regex pattern, a malformed file or unknown match type fails the whole
// load: the rule set itself must be well-formed.
func Load(r io.Reader) ([]Rule, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryFile, errors.CodeIOError, "failed to read rule set")
	}

	var specs []ruleSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "rules", nil, err)
	}

	ruleSet := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		match, threshold, err := ParseMatchType(spec.Match)
		if err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig,
				fmt.Sprintf("rules[%d].match", i), spec.Match, err)
		}

		ruleSet = append(ruleSet, Rule{
			Name:           spec.Name,
			Priority:       spec.Priority,
			Pattern:        spec.Pattern,
			Match:          match,
			FuzzyThreshold: threshold,
			AccountCode:    spec.AccountCode,
			AmountMinCents: spec.AmountMinCents,
			AmountMaxCents: spec.AmountMaxCents,
		})
	}

	return ruleSet, nil
}

// LoadFile reads a YAML rule list from disk.
func LoadFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		return nil, errors.FileError(errors.CodeIOError, path, err)
	}
	defer f.Close()

	return Load(f)
}
