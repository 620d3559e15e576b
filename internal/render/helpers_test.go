package render

import (
	"testing"

	"transitinsight/internal/formulas"
	"transitinsight/internal/rules"
)

func allRules(t *testing.T) []rules.Rule {
	t.Helper()
	reg := rules.NewRegistry(formulas.DefaultThresholds())
	rs, err := reg.Lookup(reg.IDs())
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	return rs
}
