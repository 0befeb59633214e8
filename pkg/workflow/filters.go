package workflow

// Role identifies which filter set a consumer wants.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleFC    Role = "fc"
)

// Filter is one selectable grouping over workflow steps.
type Filter struct {
	Key   string
	Label string
	Match func(Profile) bool
}

func stepFilter(key StepKey, label string, policy Policy) Filter {
	return Filter{
		Key:   string(key),
		Label: label,
		Match: func(p Profile) bool {
			return StepOf(p, policy) == key
		},
	}
}

// FiltersFor returns the ordered filter set for a role. "all" always comes
// first and matches everything. The admin set omits the basic-info step:
// profiles still on step 1 are self-service and never surface on the admin
// dashboard.
func FiltersFor(role Role, policy Policy) []Filter {
	filters := []Filter{
		{Key: "all", Label: "전체", Match: func(Profile) bool { return true }},
	}

	if role == RoleFC {
		filters = append(filters, stepFilter(StepBasicInfo, "기본 정보", policy))
	}

	filters = append(filters,
		stepFilter(StepAllowance, "수당 동의", policy),
		stepFilter(StepDocuments, "서류 제출", policy),
		stepFilter(StepAppointment, "위촉 예정", policy),
		stepFilter(StepComplete, "완료", policy),
	)

	return filters
}
