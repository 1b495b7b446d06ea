package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statement-import-service/pkg/errors"
)

const sampleRuleYAML = `- name: groceries
  priority: 10
  pattern: rewe
  match: contains
  account_code: "6000"
  amount_min_cents: -20000
  amount_max_cents: -100
- name: coffee
  priority: 5
  pattern: starbucks
  match: fuzzy:0.8
  account_code: "6200"
`

func TestLoad(t *testing.T) {
	ruleSet, err := Load(strings.NewReader(sampleRuleYAML))
	require.NoError(t, err)
	require.Len(t, ruleSet, 2)

	groceries := ruleSet[0]
	assert.Equal(t, "groceries", groceries.Name)
	assert.Equal(t, 10, groceries.Priority)
	assert.Equal(t, MatchContains, groceries.Match)
	assert.Equal(t, "6000", groceries.AccountCode)
	require.NotNil(t, groceries.AmountMinCents)
	assert.Equal(t, int64(-20000), *groceries.AmountMinCents)
	require.NotNil(t, groceries.AmountMaxCents)
	assert.Equal(t, int64(-100), *groceries.AmountMaxCents)

	coffee := ruleSet[1]
	assert.Equal(t, MatchFuzzy, coffee.Match)
	assert.Equal(t, 0.8, coffee.FuzzyThreshold)
	assert.Nil(t, coffee.AmountMinCents)
}

func TestLoadInvalidMatchType(t *testing.T) {
	input := `- name: broken
  pattern: x
  match: banana
  account_code: "1"
`

	_, err := Load(strings.NewReader(input))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidConfig))
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(strings.NewReader("not: [valid"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidConfig))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRuleYAML), 0o644))

	ruleSet, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, ruleSet, 2)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeFileNotFound))
}
