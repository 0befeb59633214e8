package workflow

// Package workflow computes an FC applicant's onboarding progress from a
// profile snapshot. It is pure: every consumer (FC app endpoints, admin
// console listings, background jobs) imports this single implementation so
// the applicant and the admin always see the same step for the same data.

// StepKey is the symbolic name of a workflow step, used for filter grouping.
type StepKey string

const (
	StepBasicInfo   StepKey = "step1"
	StepAllowance   StepKey = "step2"
	StepDocuments   StepKey = "step3"
	StepAppointment StepKey = "step4"
	StepComplete    StepKey = "step5"
)

// UploadKind distinguishes a document that was never uploaded from one that
// was uploaded and later removed. The storage layer maps the legacy
// NULL / "deleted" column encoding into this type.
type UploadKind int

const (
	UploadNone UploadKind = iota
	UploadPresent
	UploadRemoved
)

// UploadState is the tagged upload state of a document.
type UploadState struct {
	kind UploadKind
	path string
}

// NotUploaded returns the state of a document with no file behind it.
func NotUploaded() UploadState { return UploadState{kind: UploadNone} }

// Uploaded returns the state of a document backed by a stored file.
func Uploaded(path string) UploadState {
	return UploadState{kind: UploadPresent, path: path}
}

// Removed returns the state of a document whose file was uploaded and then
// deleted by the applicant.
func Removed() UploadState { return UploadState{kind: UploadRemoved} }

// Present reports whether the document currently has a stored file.
func (u UploadState) Present() bool { return u.kind == UploadPresent }

// Path returns the storage path and whether one exists.
func (u UploadState) Path() (string, bool) {
	return u.path, u.kind == UploadPresent
}

// Kind returns the raw upload kind.
func (u UploadState) Kind() UploadKind { return u.kind }

// ReviewStatus is the admin review decision on a single document.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Document is the step calculator's view of one required or optional file.
type Document struct {
	DocType string
	Upload  UploadState
	Review  ReviewStatus
}

// Profile is the step calculator's view of an applicant. It carries only the
// fields the gates read, so it can be built from any storage representation.
type Profile struct {
	Name                   string
	Affiliation            string
	Email                  string
	Address                string
	ResidentIDMasked       string
	Status                 Status
	AppointmentDateLife    string
	AppointmentDateNonlife string
	Documents              []Document
}

// Policy holds the workflow rules that the source system left configurable.
type Policy struct {
	// RequireBothAppointments controls whether step 5 needs appointment
	// dates on both the life and non-life tracks, or either one.
	RequireBothAppointments bool
}

// DefaultPolicy returns the default workflow policy: either appointment
// track completes step 4.
func DefaultPolicy() Policy {
	return Policy{RequireBothAppointments: false}
}

// HasBasicInfo reports whether the step-1 identity gate is satisfied:
// name, affiliation and masked resident ID present, plus email or address.
func HasBasicInfo(p Profile) bool {
	if p.Name == "" || p.Affiliation == "" || p.ResidentIDMasked == "" {
		return false
	}
	return p.Email != "" || p.Address != ""
}

// HasAllowanceConsent reports whether the allowance consent gate is passed,
// judged purely by status membership.
func HasAllowanceConsent(p Profile) bool {
	return p.Status.AllowancePassed()
}

// AllDocsSubmitted reports whether the applicant has at least one document
// and every document currently has a stored file. A removed upload counts
// the same as a missing one.
func AllDocsSubmitted(p Profile) bool {
	if len(p.Documents) == 0 {
		return false
	}
	for _, d := range p.Documents {
		if !d.Upload.Present() {
			return false
		}
	}
	return true
}

// AllDocsApproved reports whether every submitted document passed review.
// A profile with zero documents is never approved, regardless of status.
func AllDocsApproved(p Profile) bool {
	if !AllDocsSubmitted(p) {
		return false
	}
	for _, d := range p.Documents {
		if d.Review != ReviewApproved {
			return false
		}
	}
	return true
}

// HasAppointment reports whether the appointment gate is satisfied under the
// given policy.
func HasAppointment(p Profile, policy Policy) bool {
	if policy.RequireBothAppointments {
		return p.AppointmentDateLife != "" && p.AppointmentDateNonlife != ""
	}
	return p.AppointmentDateLife != "" || p.AppointmentDateNonlife != ""
}

// Calc derives the applicant's current workflow step. Gates are checked in
// order and the first failing gate wins: missing fields never advance a
// profile past the gate they belong to, even if the stored status claims
// otherwise.
func Calc(p Profile, policy Policy) (int, StepKey) {
	if !HasBasicInfo(p) {
		return 1, StepBasicInfo
	}
	if !HasAllowanceConsent(p) {
		return 2, StepAllowance
	}
	if !AllDocsApproved(p) {
		return 3, StepDocuments
	}
	if !HasAppointment(p, policy) {
		return 4, StepAppointment
	}
	return 5, StepComplete
}

// StepOf is a convenience wrapper returning only the step key.
func StepOf(p Profile, policy Policy) StepKey {
	_, key := Calc(p, policy)
	return key
}
