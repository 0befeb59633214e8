package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kyobodev/fc-onboarding-backend/internal/config"
	"github.com/kyobodev/fc-onboarding-backend/internal/database"
	"github.com/kyobodev/fc-onboarding-backend/internal/models"
	"github.com/kyobodev/fc-onboarding-backend/pkg/mailer"
	"github.com/kyobodev/fc-onboarding-backend/pkg/push"
)

// Clock abstracts time for the reminder sweep so tests can pin "today".
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// reminderDayOffsets are the deadline distances (in days) that produce a
// reminder. Day 2 sits inside the query window but stays silent.
var reminderDayOffsets = map[int]bool{
	3:  true,
	1:  true,
	0:  true,
	-1: true,
}

// SweepResult reports one reminder sweep run.
type SweepResult struct {
	Candidates int      `json:"candidates"`
	Notified   int      `json:"notified"`
	Pushed     int      `json:"pushed"`
	Mailed     int      `json:"mailed"`
	Errors     []string `json:"errors,omitempty"`
}

// ReminderService runs the daily document-deadline sweep: it finds profiles
// still inside the document step whose deadline is close (or just missed),
// writes an in-app notification and fans out over push and mail. A
// per-profile notification stamp keeps the sweep idempotent within a day.
type ReminderService struct {
	profiles      *database.ProfileRepository
	notifications *database.NotificationRepository
	deviceTokens  *database.DeviceTokenRepository
	push          push.Gateway
	mail          mailer.Mailer
	config        config.ReminderConfig
	clock         Clock
	logger        *logrus.Logger
}

// NewReminderService creates a new reminder service
func NewReminderService(
	profiles *database.ProfileRepository,
	notifications *database.NotificationRepository,
	deviceTokens *database.DeviceTokenRepository,
	pushGateway push.Gateway,
	mail mailer.Mailer,
	cfg config.ReminderConfig,
	clock Clock,
	logger *logrus.Logger,
) *ReminderService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ReminderService{
		profiles:      profiles,
		notifications: notifications,
		deviceTokens:  deviceTokens,
		push:          pushGateway,
		mail:          mail,
		config:        cfg,
		clock:         clock,
		logger:        logger,
	}
}

// Sweep runs one reminder pass. Deadlines are calendar dates; "today" is
// determined in the configured fixed offset zone (KST by default), and day
// arithmetic happens on UTC-midnight dates to match how deadlines are stored.
func (s *ReminderService) Sweep() (SweepResult, error) {
	zone := time.FixedZone("reminder", s.config.UTCOffsetHour*3600)
	localNow := s.clock.Now().In(zone)
	afterCutoff := localNow.Hour() >= s.config.CutoffHour

	today := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, time.UTC)
	windowStart := today.AddDate(0, 0, -1)
	windowEnd := today.AddDate(0, 0, 3)

	candidates, err := s.profiles.ListDueForReminder(windowStart, windowEnd, today)
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to load reminder candidates: %w", err)
	}

	result := SweepResult{Candidates: len(candidates)}

	for _, profile := range candidates {
		if !profile.DocsDeadlineAt.Valid {
			continue
		}

		deadline := profile.DocsDeadlineAt.Time
		deadlineDay := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, time.UTC)
		offset := int(deadlineDay.Sub(today).Hours() / 24)

		if !reminderDayOffsets[offset] {
			continue
		}

		title, body := reminderMessage(offset, afterCutoff, s.config.CutoffHour, deadlineDay)
		s.deliver(&profile, title, body, &result)

		if err := s.profiles.StampDeadlineNotified(profile.ID, today); err != nil {
			s.recordError(&result, profile.Phone, "stamp", err)
			continue
		}

		result.Notified++
	}

	s.logger.WithFields(logrus.Fields{
		"candidates": result.Candidates,
		"notified":   result.Notified,
		"pushed":     result.Pushed,
		"mailed":     result.Mailed,
		"errors":     len(result.Errors),
	}).Info("deadline reminder sweep finished")

	return result, nil
}

// deliver writes the in-app notification and fans out to every registered
// device and the applicant's mail address. Delivery failures are collected;
// they never abort the sweep.
func (s *ReminderService) deliver(profile *models.FCProfile, title, body string, result *SweepResult) {
	if _, err := s.notifications.Create(profile.ID, title, body, models.NotificationKindDeadline); err != nil {
		s.recordError(result, profile.Phone, "notification", err)
	}

	tokens, err := s.deviceTokens.ListByProfile(profile.ID)
	if err != nil {
		s.recordError(result, profile.Phone, "device tokens", err)
	}
	for _, token := range tokens {
		if _, err := s.push.Send(token.Token, title, body); err != nil {
			s.recordError(result, profile.Phone, "push", err)
			continue
		}
		result.Pushed++
	}

	if email := profile.Email.ValueOrZero(); email != "" {
		if err := s.mail.Send(email, title, body); err != nil {
			s.recordError(result, profile.Phone, "mail", err)
		} else {
			result.Mailed++
		}
	}
}

func (s *ReminderService) recordError(result *SweepResult, phone, step string, err error) {
	result.Errors = append(result.Errors, fmt.Sprintf("%s %s: %v", phone, step, err))
	s.logger.WithFields(logrus.Fields{
		"phone": phone,
		"step":  step,
	}).WithError(err).Error("reminder delivery step failed")
}

// reminderMessage builds the notification text for a deadline distance.
func reminderMessage(offset int, afterCutoff bool, cutoffHour int, deadlineDay time.Time) (title, body string) {
	date := deadlineDay.Format("2006-01-02")

	switch {
	case offset == 3:
		return "서류 제출 마감 3일 전", fmt.Sprintf("서류 제출 마감일(%s)까지 3일 남았습니다. 기한 내 제출을 완료해 주세요.", date)
	case offset == 1:
		return "서류 제출 마감 하루 전", fmt.Sprintf("서류 제출 마감일(%s)이 내일입니다. 기한 내 제출을 완료해 주세요.", date)
	case offset == 0 && !afterCutoff:
		return "서류 제출 마감일입니다", fmt.Sprintf("오늘(%s)이 서류 제출 마감일입니다. 오늘 %d시까지 제출을 완료해 주세요.", date, cutoffHour)
	case offset == 0 && afterCutoff:
		return "서류 제출 마감 시간이 지났습니다", fmt.Sprintf("서류 제출 마감일(%s)의 마감 시간이 지났습니다. 담당자에게 문의해 주세요.", date)
	default:
		return "서류 제출 기한이 지났습니다", fmt.Sprintf("서류 제출 마감일(%s)이 지났습니다. 빠른 시일 내 제출하거나 담당자에게 문의해 주세요.", date)
	}
}
