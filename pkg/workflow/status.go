package workflow

import "fmt"

// Status represents an FC onboarding workflow status.
type Status string

const (
	StatusDraft                Status = "draft"
	StatusTempIDIssued         Status = "temp-id-issued"
	StatusAllowancePending     Status = "allowance-pending"
	StatusAllowanceConsented   Status = "allowance-consented"
	StatusDocsRequested        Status = "docs-requested"
	StatusDocsPending          Status = "docs-pending"
	StatusDocsSubmitted        Status = "docs-submitted"
	StatusDocsRejected         Status = "docs-rejected"
	StatusDocsApproved         Status = "docs-approved"
	StatusAppointmentCompleted Status = "appointment-completed"
	StatusFinalLinkSent        Status = "final-link-sent"
)

// statusRank orders statuses along the nominal progression. The flow is not
// strictly linear (docs-rejected re-enters from docs-submitted, and
// allowance-pending re-enters after an allowance rejection), but the rank is
// still useful for display ordering and sanity checks.
var statusRank = map[Status]int{
	StatusDraft:                0,
	StatusTempIDIssued:         1,
	StatusAllowancePending:     2,
	StatusAllowanceConsented:   3,
	StatusDocsRequested:        4,
	StatusDocsPending:          5,
	StatusDocsSubmitted:        6,
	StatusDocsRejected:         7,
	StatusDocsApproved:         8,
	StatusAppointmentCompleted: 9,
	StatusFinalLinkSent:        10,
}

// statusLabels maps each status to its display label.
var statusLabels = map[Status]string{
	StatusDraft:                "작성 중",
	StatusTempIDIssued:         "임시사번 발급",
	StatusAllowancePending:     "수당동의 대기",
	StatusAllowanceConsented:   "수당동의 완료",
	StatusDocsRequested:        "서류 요청",
	StatusDocsPending:          "서류 준비 중",
	StatusDocsSubmitted:        "서류 제출 완료",
	StatusDocsRejected:         "서류 반려",
	StatusDocsApproved:         "서류 승인",
	StatusAppointmentCompleted: "위촉 완료",
	StatusFinalLinkSent:        "최종 링크 발송",
}

// allowancePassedStatuses is the set of statuses that indicate the allowance
// consent gate has been passed. This is the canonical gate definition; see
// DESIGN.md for the choice between this and the allowance_date based variant.
var allowancePassedStatuses = map[Status]bool{
	StatusAllowanceConsented:   true,
	StatusDocsRequested:        true,
	StatusDocsPending:          true,
	StatusDocsSubmitted:        true,
	StatusDocsRejected:         true,
	StatusDocsApproved:         true,
	StatusAppointmentCompleted: true,
	StatusFinalLinkSent:        true,
}

// AllStatuses returns every known status in progression order.
func AllStatuses() []Status {
	return []Status{
		StatusDraft,
		StatusTempIDIssued,
		StatusAllowancePending,
		StatusAllowanceConsented,
		StatusDocsRequested,
		StatusDocsPending,
		StatusDocsSubmitted,
		StatusDocsRejected,
		StatusDocsApproved,
		StatusAppointmentCompleted,
		StatusFinalLinkSent,
	}
}

// ParseStatus validates a raw string against the status vocabulary.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := statusRank[s]; !ok {
		return "", fmt.Errorf("unknown workflow status: %q", raw)
	}
	return s, nil
}

// IsValid reports whether the status belongs to the vocabulary.
func (s Status) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank returns the status position in the nominal progression (0-based).
// Unknown statuses rank below draft.
func (s Status) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// Label returns the display label for the status, or the raw value when the
// status is not part of the vocabulary.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// AllowancePassed reports whether the status indicates the allowance consent
// gate has been passed.
func (s Status) AllowancePassed() bool {
	return allowancePassedStatuses[s]
}
