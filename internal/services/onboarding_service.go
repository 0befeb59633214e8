package services

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kyobodev/fc-onboarding-backend/internal/database"
	"github.com/kyobodev/fc-onboarding-backend/internal/models"
	"github.com/kyobodev/fc-onboarding-backend/pkg/validator"
	"github.com/kyobodev/fc-onboarding-backend/pkg/workflow"
)

// msgTempIDRequired is returned when allowance consent is attempted before
// the admin has issued a provisional employee number.
const msgTempIDRequired = "임시사번 발급 후 수당 동의가 가능합니다."

// OnboardingService implements the guarded status transitions around
// provisioning, temp-ID issuance and allowance consent. Every operation
// normalizes the phone key first and validates preconditions before writing.
type OnboardingService struct {
	profiles *database.ProfileRepository
	phones   *validator.PhoneValidator
	logger   *logrus.Logger
}

// NewOnboardingService creates a new onboarding service
func NewOnboardingService(profiles *database.ProfileRepository, phones *validator.PhoneValidator, logger *logrus.Logger) *OnboardingService {
	return &OnboardingService{
		profiles: profiles,
		phones:   phones,
		logger:   logger,
	}
}

// Provision returns the profile for a phone, creating a draft profile when
// none exists. Used by the login flow. The bool result reports creation.
func (s *OnboardingService) Provision(rawPhone string) (*models.FCProfile, bool, error) {
	phone, err := s.phones.Validate(rawPhone)
	if err != nil {
		return nil, false, NewValidationError("phone", err.Error())
	}

	profile, created, err := s.profiles.GetOrCreate(phone)
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.WithField("phone", phone).Info("provisioned draft profile on first login")
	}

	return profile, created, nil
}

// GetByPhone resolves a profile, mapping absence to ErrProfileNotFound.
func (s *OnboardingService) GetByPhone(rawPhone string) (*models.FCProfile, error) {
	phone, err := s.phones.Validate(rawPhone)
	if err != nil {
		return nil, NewValidationError("phone", err.Error())
	}

	profile, err := s.profiles.GetByPhone(phone)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	return profile, nil
}

// BasicInfoInput carries the applicant's step-1 identity fields.
type BasicInfoInput struct {
	Name             string
	Affiliation      string
	Email            string
	Address          string
	AddressDetail    string
	ResidentIDMasked string
	CareerType       string
}

// UpdateBasicInfo stores the applicant's identity fields. Completion of the
// basic-info step is derived from the stored fields, not from a status write.
func (s *OnboardingService) UpdateBasicInfo(rawPhone string, in BasicInfoInput) (*models.FCProfile, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, NewValidationError("name", "name cannot be empty")
	}
	if in.CareerType != "" && in.CareerType != models.CareerTypeNew && in.CareerType != models.CareerTypeExperienced {
		return nil, NewValidationError("career_type", fmt.Sprintf("unknown career type: %q", in.CareerType))
	}

	profile, err := s.GetByPhone(rawPhone)
	if err != nil {
		return nil, err
	}

	err = s.profiles.UpdateBasicInfo(
		profile.ID,
		strings.TrimSpace(in.Name),
		strings.TrimSpace(in.Affiliation),
		strings.TrimSpace(in.Email),
		strings.TrimSpace(in.Address),
		strings.TrimSpace(in.AddressDetail),
		strings.TrimSpace(in.ResidentIDMasked),
		in.CareerType,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update basic info: %w", err)
	}

	return s.profiles.GetByPhone(profile.Phone)
}

// IssueTempID records the admin-issued provisional employee number and moves
// the profile to temp-id-issued, opening the allowance consent step.
func (s *OnboardingService) IssueTempID(rawPhone, tempID string) (*models.FCProfile, error) {
	if strings.TrimSpace(tempID) == "" {
		return nil, NewValidationError("temp_id", "temp ID cannot be empty")
	}

	profile, err := s.GetByPhone(rawPhone)
	if err != nil {
		return nil, err
	}

	if err := s.profiles.SetTempID(profile.Phone, strings.TrimSpace(tempID)); err != nil {
		return nil, fmt.Errorf("failed to issue temp ID: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"phone":   profile.Phone,
		"temp_id": tempID,
	}).Info("temp ID issued")

	return s.profiles.GetByPhone(profile.Phone)
}

// SubmitAllowanceConsent records the applicant's allowance consent. The
// consent is blocked until a temp ID has been issued; the profile is left
// unchanged on any precondition failure.
func (s *OnboardingService) SubmitAllowanceConsent(rawPhone, allowanceDate string) (*models.FCProfile, error) {
	date, err := parseDate("allowance_date", allowanceDate)
	if err != nil {
		return nil, err
	}

	profile, err := s.GetByPhone(rawPhone)
	if err != nil {
		return nil, err
	}

	if !profile.TempID.Valid || profile.TempID.String == "" {
		return nil, &PreconditionError{
			Code:    "temp_id_required",
			Message: msgTempIDRequired,
		}
	}

	if err := s.profiles.SetAllowanceConsent(profile.Phone, date); err != nil {
		return nil, fmt.Errorf("failed to submit allowance consent: %w", err)
	}

	s.logger.WithField("phone", profile.Phone).Info("allowance consent submitted")

	return s.profiles.GetByPhone(profile.Phone)
}

// ApproveAllowance confirms a pending consent and opens the document step.
func (s *OnboardingService) ApproveAllowance(rawPhone string) (*models.FCProfile, error) {
	profile, err := s.GetByPhone(rawPhone)
	if err != nil {
		return nil, err
	}

	if !profile.AllowanceDate.Valid {
		return nil, &PreconditionError{
			Code:    "consent_missing",
			Message: "수당 동의가 제출되지 않았습니다.",
		}
	}

	if err := s.profiles.SetAllowanceApproved(profile.Phone); err != nil {
		return nil, fmt.Errorf("failed to approve allowance: %w", err)
	}

	return s.profiles.GetByPhone(profile.Phone)
}

// RejectAllowance records an admin rejection reason and returns the profile
// to allowance-pending so the applicant can re-consent.
func (s *OnboardingService) RejectAllowance(rawPhone, reason string) (*models.FCProfile, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, NewValidationError("reason", "rejection reason cannot be empty")
	}

	profile, err := s.GetByPhone(rawPhone)
	if err != nil {
		return nil, err
	}

	if err := s.profiles.SetAllowanceRejected(profile.Phone, reason); err != nil {
		return nil, fmt.Errorf("failed to reject allowance: %w", err)
	}

	return s.profiles.GetByPhone(profile.Phone)
}

// RequestDocuments opens the document step with a submission deadline.
func (s *OnboardingService) RequestDocuments(rawPhone, deadline string) (*models.FCProfile, error) {
	deadlineAt, err := parseDate("docs_deadline_at", deadline)
	if err != nil {
		return nil, err
	}

	profile, err := s.GetByPhone(rawPhone)
	if err != nil {
		return nil, err
	}

	if err := s.profiles.SetDocsDeadline(profile.Phone, deadlineAt); err != nil {
		return nil, fmt.Errorf("failed to request documents: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"phone":    profile.Phone,
		"deadline": deadline,
	}).Info("document submission requested")

	return s.profiles.GetByPhone(profile.Phone)
}

// SendFinalLink marks the onboarding as finished by recording that the final
// registration link went out.
func (s *OnboardingService) SendFinalLink(rawPhone string) (*models.FCProfile, error) {
	profile, err := s.GetByPhone(rawPhone)
	if err != nil {
		return nil, err
	}

	if profile.WorkflowStatus() != workflow.StatusAppointmentCompleted {
		return nil, &PreconditionError{
			Code:    "appointment_incomplete",
			Message: "위촉 완료 후 최종 링크를 발송할 수 있습니다.",
		}
	}

	if err := s.profiles.SetStatus(profile.ID, workflow.StatusFinalLinkSent); err != nil {
		return nil, fmt.Errorf("failed to send final link: %w", err)
	}

	return s.profiles.GetByPhone(profile.Phone)
}

// BulkCreateResult reports the outcome of an admin roster import.
type BulkCreateResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// BulkCreate provisions draft profiles for an admin-supplied phone roster.
// Invalid and duplicate numbers are collected, not fatal.
func (s *OnboardingService) BulkCreate(rawPhones []string) BulkCreateResult {
	result := BulkCreateResult{}

	for _, raw := range rawPhones {
		phone, err := s.phones.Validate(raw)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", raw, err))
			continue
		}

		_, created, err := s.profiles.GetOrCreate(phone)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", phone, err))
			continue
		}

		if created {
			result.Created++
		} else {
			result.Skipped++
		}
	}

	return result
}
