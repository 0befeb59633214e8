package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterKeys(filters []Filter) []string {
	keys := make([]string, 0, len(filters))
	for _, f := range filters {
		keys = append(keys, f.Key)
	}
	return keys
}

func TestFiltersFor_FC(t *testing.T) {
	filters := FiltersFor(RoleFC, DefaultPolicy())

	assert.Equal(t,
		[]string{"all", "step1", "step2", "step3", "step4", "step5"},
		filterKeys(filters))

	// "all" matches any profile, including an empty one.
	assert.True(t, filters[0].Match(Profile{}))
}

func TestFiltersFor_AdminOmitsBasicInfo(t *testing.T) {
	filters := FiltersFor(RoleAdmin, DefaultPolicy())

	assert.Equal(t,
		[]string{"all", "step2", "step3", "step4", "step5"},
		filterKeys(filters))
}

func TestFilters_MatchExactlyOneStep(t *testing.T) {
	policy := DefaultPolicy()
	p := completeProfile() // step 4: docs approved, no appointment

	filters := FiltersFor(RoleAdmin, policy)

	var matched []string
	for _, f := range filters {
		if f.Key == "all" {
			continue
		}
		if f.Match(p) {
			matched = append(matched, f.Key)
		}
	}

	require.Equal(t, []string{"step4"}, matched)
}

func TestFilters_PolicyFlowsThrough(t *testing.T) {
	strict := Policy{RequireBothAppointments: true}
	p := completeProfile()
	p.AppointmentDateLife = "2025-03-01"

	for _, f := range FiltersFor(RoleAdmin, strict) {
		switch f.Key {
		case "step4":
			assert.True(t, f.Match(p), "one-track profile stays on step4 under strict policy")
		case "step5":
			assert.False(t, f.Match(p))
		}
	}
}
