package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeProfile() Profile {
	return Profile{
		Name:             "Kim",
		Affiliation:      "X",
		ResidentIDMasked: "901010-*******",
		Email:            "a@b.com",
		Status:           StatusDocsApproved,
		Documents: []Document{
			{DocType: "id_card", Upload: Uploaded("s3://a"), Review: ReviewApproved},
		},
	}
}

func TestCalc_BasicInfoGate(t *testing.T) {
	policy := DefaultPolicy()

	cases := []struct {
		name   string
		mutate func(*Profile)
	}{
		{"Missing name", func(p *Profile) { p.Name = "" }},
		{"Missing affiliation", func(p *Profile) { p.Affiliation = "" }},
		{"Missing resident ID", func(p *Profile) { p.ResidentIDMasked = "" }},
		{"Missing email and address", func(p *Profile) { p.Email = ""; p.Address = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := completeProfile()
			tc.mutate(&p)
			step, key := Calc(p, policy)
			assert.Equal(t, 1, step)
			assert.Equal(t, StepBasicInfo, key)
		})
	}

	t.Run("Address alone satisfies contact requirement", func(t *testing.T) {
		p := completeProfile()
		p.Email = ""
		p.Address = "Seoul"
		step, _ := Calc(p, policy)
		assert.GreaterOrEqual(t, step, 2)
	})
}

func TestCalc_AllowanceGate(t *testing.T) {
	policy := DefaultPolicy()

	notPassed := []Status{StatusDraft, StatusTempIDIssued, StatusAllowancePending}
	for _, status := range notPassed {
		t.Run(string(status), func(t *testing.T) {
			p := completeProfile()
			p.Status = status
			step, key := Calc(p, policy)
			assert.Equal(t, 2, step)
			assert.Equal(t, StepAllowance, key)
		})
	}

	passed := []Status{
		StatusAllowanceConsented, StatusDocsRequested, StatusDocsPending,
		StatusDocsSubmitted, StatusDocsRejected, StatusDocsApproved,
		StatusAppointmentCompleted, StatusFinalLinkSent,
	}
	for _, status := range passed {
		t.Run(string(status), func(t *testing.T) {
			p := completeProfile()
			p.Status = status
			step, _ := Calc(p, policy)
			assert.GreaterOrEqual(t, step, 3)
		})
	}
}

func TestCalc_DocumentGate(t *testing.T) {
	policy := DefaultPolicy()

	t.Run("Zero documents never approved", func(t *testing.T) {
		// Even with a status that claims docs-approved, an empty document
		// list must hold the profile at step 3.
		p := completeProfile()
		p.Documents = nil
		step, key := Calc(p, policy)
		assert.Equal(t, 3, step)
		assert.Equal(t, StepDocuments, key)
	})

	t.Run("Removed upload treated as absent", func(t *testing.T) {
		p := completeProfile()
		p.Documents = append(p.Documents, Document{
			DocType: "career_cert",
			Upload:  Removed(),
			Review:  ReviewApproved,
		})
		assert.False(t, AllDocsSubmitted(p))
		step, _ := Calc(p, policy)
		assert.Equal(t, 3, step)
	})

	t.Run("Never uploaded treated same as removed", func(t *testing.T) {
		p := completeProfile()
		p.Documents = append(p.Documents, Document{DocType: "career_cert", Upload: NotUploaded()})
		step, _ := Calc(p, policy)
		assert.Equal(t, 3, step)
	})

	t.Run("Pending review holds at step 3", func(t *testing.T) {
		p := completeProfile()
		p.Documents[0].Review = ReviewPending
		step, _ := Calc(p, policy)
		assert.Equal(t, 3, step)
	})

	t.Run("Rejected document holds at step 3", func(t *testing.T) {
		p := completeProfile()
		p.Documents[0].Review = ReviewRejected
		step, _ := Calc(p, policy)
		assert.Equal(t, 3, step)
	})
}

func TestCalc_AppointmentGate(t *testing.T) {
	policy := DefaultPolicy()

	t.Run("Approved docs without appointment is step 4", func(t *testing.T) {
		step, key := Calc(completeProfile(), policy)
		assert.Equal(t, 4, step)
		assert.Equal(t, StepAppointment, key)
	})

	t.Run("Life appointment completes", func(t *testing.T) {
		p := completeProfile()
		p.AppointmentDateLife = "2025-03-01"
		step, key := Calc(p, policy)
		assert.Equal(t, 5, step)
		assert.Equal(t, StepComplete, key)
	})

	t.Run("Nonlife appointment completes", func(t *testing.T) {
		p := completeProfile()
		p.AppointmentDateNonlife = "2025-03-01"
		step, _ := Calc(p, policy)
		assert.Equal(t, 5, step)
	})

	t.Run("Both tracks required by policy", func(t *testing.T) {
		strict := Policy{RequireBothAppointments: true}

		p := completeProfile()
		p.AppointmentDateLife = "2025-03-01"
		step, _ := Calc(p, strict)
		assert.Equal(t, 4, step)

		p.AppointmentDateNonlife = "2025-03-15"
		step, _ = Calc(p, strict)
		assert.Equal(t, 5, step)
	})
}

// TestCalc_Monotonicity verifies that satisfying an additional gate never
// lowers the computed step while earlier gates stay satisfied.
func TestCalc_Monotonicity(t *testing.T) {
	policy := DefaultPolicy()

	p := Profile{Status: StatusDraft}
	step, _ := Calc(p, policy)
	require.Equal(t, 1, step)

	p.Name = "Kim"
	p.Affiliation = "X"
	p.ResidentIDMasked = "901010-*******"
	p.Email = "a@b.com"
	next, _ := Calc(p, policy)
	require.GreaterOrEqual(t, next, 2)

	p.Status = StatusAllowanceConsented
	prev := next
	next, _ = Calc(p, policy)
	require.GreaterOrEqual(t, next, prev)
	require.GreaterOrEqual(t, next, 3)

	p.Documents = []Document{{DocType: "id_card", Upload: Uploaded("s3://a"), Review: ReviewApproved}}
	prev = next
	next, _ = Calc(p, policy)
	require.GreaterOrEqual(t, next, prev)
	require.GreaterOrEqual(t, next, 4)

	p.AppointmentDateLife = "2025-03-01"
	prev = next
	next, _ = Calc(p, policy)
	require.GreaterOrEqual(t, next, prev)
	require.Equal(t, 5, next)
}

func TestParseStatus(t *testing.T) {
	for _, s := range AllStatuses() {
		parsed, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStatus("shipped")
	assert.Error(t, err)
}

func TestStatusRankOrdering(t *testing.T) {
	statuses := AllStatuses()
	for i := 1; i < len(statuses); i++ {
		assert.Greater(t, statuses[i].Rank(), statuses[i-1].Rank(),
			"%s should rank above %s", statuses[i], statuses[i-1])
	}
}
