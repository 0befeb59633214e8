package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kyobodev/fc-onboarding-backend/pkg/workflow"
)

// CareerType values for FC applicants.
const (
	CareerTypeNew         = "new"
	CareerTypeExperienced = "experienced"
)

// AppointmentTrack identifies one of the two independent licensing tracks.
type AppointmentTrack string

const (
	TrackLife    AppointmentTrack = "life"
	TrackNonlife AppointmentTrack = "nonlife"
)

// IsValid reports whether the track is one of the two known tracks.
func (t AppointmentTrack) IsValid() bool {
	return t == TrackLife || t == TrackNonlife
}

// FCProfile represents one FC candidate going through onboarding.
// Phone is the unique business key (11 digits, digits only).
type FCProfile struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Phone            string     `json:"phone" db:"phone"`
	Name             NullString `json:"name,omitempty" db:"name"`
	Affiliation      NullString `json:"affiliation,omitempty" db:"affiliation"`
	Email            NullString `json:"email,omitempty" db:"email"`
	Address          NullString `json:"address,omitempty" db:"address"`
	AddressDetail    NullString `json:"address_detail,omitempty" db:"address_detail"`
	ResidentIDMasked NullString `json:"resident_id_masked,omitempty" db:"resident_id_masked"`
	CareerType       NullString `json:"career_type,omitempty" db:"career_type"`

	Status                string     `json:"status" db:"status"`
	TempID                NullString `json:"temp_id,omitempty" db:"temp_id"`
	AllowanceDate         NullTime   `json:"allowance_date,omitempty" db:"allowance_date"`
	AllowanceRejectReason NullString `json:"allowance_reject_reason,omitempty" db:"allowance_reject_reason"`

	DocsDeadlineAt             NullTime `json:"docs_deadline_at,omitempty" db:"docs_deadline_at"`
	DocsDeadlineLastNotifiedAt NullTime `json:"docs_deadline_last_notified_at,omitempty" db:"docs_deadline_last_notified_at"`

	AppointmentScheduleLife       NullTime   `json:"appointment_schedule_life,omitempty" db:"appointment_schedule_life"`
	AppointmentScheduleNonlife    NullTime   `json:"appointment_schedule_nonlife,omitempty" db:"appointment_schedule_nonlife"`
	AppointmentDateLife           NullTime   `json:"appointment_date_life,omitempty" db:"appointment_date_life"`
	AppointmentDateLifeSub        NullTime   `json:"appointment_date_life_sub,omitempty" db:"appointment_date_life_sub"`
	AppointmentDateNonlife        NullTime   `json:"appointment_date_nonlife,omitempty" db:"appointment_date_nonlife"`
	AppointmentDateNonlifeSub     NullTime   `json:"appointment_date_nonlife_sub,omitempty" db:"appointment_date_nonlife_sub"`
	AppointmentRejectReasonLife   NullString `json:"appointment_reject_reason_life,omitempty" db:"appointment_reject_reason_life"`
	AppointmentRejectReasonNonlife NullString `json:"appointment_reject_reason_nonlife,omitempty" db:"appointment_reject_reason_nonlife"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// WorkflowStatus parses the stored status into the workflow vocabulary.
// Unknown values are treated as draft so a corrupted row never advances
// anyone past a gate.
func (p *FCProfile) WorkflowStatus() workflow.Status {
	status, err := workflow.ParseStatus(p.Status)
	if err != nil {
		return workflow.StatusDraft
	}
	return status
}

// ToWorkflow projects the profile and its documents into the step
// calculator's view.
func (p *FCProfile) ToWorkflow(docs []FCDocument) workflow.Profile {
	wdocs := make([]workflow.Document, 0, len(docs))
	for _, d := range docs {
		wdocs = append(wdocs, d.ToWorkflow())
	}

	return workflow.Profile{
		Name:                   p.Name.ValueOrZero(),
		Affiliation:            p.Affiliation.ValueOrZero(),
		Email:                  p.Email.ValueOrZero(),
		Address:                p.Address.ValueOrZero(),
		ResidentIDMasked:       p.ResidentIDMasked.ValueOrZero(),
		Status:                 p.WorkflowStatus(),
		AppointmentDateLife:    p.AppointmentDateLife.DateString(),
		AppointmentDateNonlife: p.AppointmentDateNonlife.DateString(),
		Documents:              wdocs,
	}
}
