package services

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kyobodev/fc-onboarding-backend/internal/database"
	"github.com/kyobodev/fc-onboarding-backend/internal/models"
	"github.com/kyobodev/fc-onboarding-backend/pkg/validator"
)

// AppointmentService implements the dual-track appointment transitions.
// Life and non-life licensing are independent regulatory tracks: each keeps
// its own requested dates, confirmed schedule and rejection reason, and an
// applicant can cycle through scheduling and rejection on each track
// separately.
type AppointmentService struct {
	profiles *database.ProfileRepository
	phones   *validator.PhoneValidator
	logger   *logrus.Logger
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(profiles *database.ProfileRepository, phones *validator.PhoneValidator, logger *logrus.Logger) *AppointmentService {
	return &AppointmentService{
		profiles: profiles,
		phones:   phones,
		logger:   logger,
	}
}

func parseTrack(raw string) (models.AppointmentTrack, error) {
	track := models.AppointmentTrack(strings.ToLower(strings.TrimSpace(raw)))
	if !track.IsValid() {
		return "", NewValidationError("type", fmt.Sprintf("unknown appointment track: %q", raw))
	}
	return track, nil
}

// SubmitDate records the applicant's requested appointment date for one
// track (or its backup slot) and clears that track's previous rejection.
func (s *AppointmentService) SubmitDate(rawPhone, rawTrack, dateValue string, backup bool) (*models.FCProfile, error) {
	phone, err := s.phones.Validate(rawPhone)
	if err != nil {
		return nil, NewValidationError("phone", err.Error())
	}

	track, err := parseTrack(rawTrack)
	if err != nil {
		return nil, err
	}

	date, err := parseDate("date_value", dateValue)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByPhone(phone)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	if err := s.profiles.SetAppointmentDate(phone, track, backup, date); err != nil {
		return nil, fmt.Errorf("failed to submit appointment date: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"phone":  phone,
		"track":  track,
		"backup": backup,
		"date":   dateValue,
	}).Info("appointment date submitted")

	return s.profiles.GetByPhone(phone)
}

// Confirm records the confirmed schedule for one track and completes the
// appointment step.
func (s *AppointmentService) Confirm(rawPhone, rawTrack, scheduleDate string) (*models.FCProfile, error) {
	phone, err := s.phones.Validate(rawPhone)
	if err != nil {
		return nil, NewValidationError("phone", err.Error())
	}

	track, err := parseTrack(rawTrack)
	if err != nil {
		return nil, err
	}

	schedule, err := parseDate("schedule_date", scheduleDate)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByPhone(phone)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	requested := profile.AppointmentDateLife.Valid || profile.AppointmentDateNonlife.Valid ||
		profile.AppointmentDateLifeSub.Valid || profile.AppointmentDateNonlifeSub.Valid
	if !requested {
		return nil, &PreconditionError{
			Code:    "no_requested_date",
			Message: "신청된 위촉 일정이 없습니다.",
		}
	}

	if err := s.profiles.SetAppointmentConfirmed(phone, track, schedule); err != nil {
		return nil, fmt.Errorf("failed to confirm appointment: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"phone": phone,
		"track": track,
	}).Info("appointment confirmed")

	return s.profiles.GetByPhone(phone)
}

// Reject records an admin rejection for one track. The track's requested
// dates are cleared so the applicant can submit new ones; the other track is
// untouched.
func (s *AppointmentService) Reject(rawPhone, rawTrack, reason string) (*models.FCProfile, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, NewValidationError("reason", "rejection reason cannot be empty")
	}

	phone, err := s.phones.Validate(rawPhone)
	if err != nil {
		return nil, NewValidationError("phone", err.Error())
	}

	track, err := parseTrack(rawTrack)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByPhone(phone)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	if err := s.profiles.SetAppointmentRejected(phone, track, reason); err != nil {
		return nil, fmt.Errorf("failed to reject appointment: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"phone": phone,
		"track": track,
	}).Info("appointment rejected")

	return s.profiles.GetByPhone(phone)
}
