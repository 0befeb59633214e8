package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/kyobodev/fc-onboarding-backend/internal/database"
	"github.com/kyobodev/fc-onboarding-backend/internal/models"
	"github.com/kyobodev/fc-onboarding-backend/pkg/validator"
)

// ObjectRemover deletes stored file objects referenced by document rows.
type ObjectRemover interface {
	Remove(storagePath string) error
}

// LoggingObjectRemover only logs removals. Used in development, where
// uploads live in a bucket the API has no delete credentials for.
type LoggingObjectRemover struct {
	Logger *logrus.Logger
}

// Remove logs the path instead of deleting it.
func (r *LoggingObjectRemover) Remove(storagePath string) error {
	if r.Logger != nil {
		r.Logger.WithField("storage_path", storagePath).Info("object removal skipped (logging remover)")
	}
	return nil
}

// DeleteResult reports the outcome of an account deletion.
type DeleteResult struct {
	OK      bool     `json:"ok"`
	Deleted bool     `json:"deleted"`
	Errors  []string `json:"errors,omitempty"`
}

// AccountService implements the account-deletion cascade. The cascade is a
// best-effort ordered sequence: dependents first, profile last, per-step
// failures collected and logged rather than aborting the remaining steps.
type AccountService struct {
	profiles      *database.ProfileRepository
	documents     *database.DocumentRepository
	messages      *database.MessageRepository
	exams         *database.ExamRegistrationRepository
	notifications *database.NotificationRepository
	deviceTokens  *database.DeviceTokenRepository
	identity      *database.IdentitySecureRepository
	objects       ObjectRemover
	phones        *validator.PhoneValidator
	logger        *logrus.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	profiles *database.ProfileRepository,
	documents *database.DocumentRepository,
	messages *database.MessageRepository,
	exams *database.ExamRegistrationRepository,
	notifications *database.NotificationRepository,
	deviceTokens *database.DeviceTokenRepository,
	identity *database.IdentitySecureRepository,
	objects ObjectRemover,
	phones *validator.PhoneValidator,
	logger *logrus.Logger,
) *AccountService {
	return &AccountService{
		profiles:      profiles,
		documents:     documents,
		messages:      messages,
		exams:         exams,
		notifications: notifications,
		deviceTokens:  deviceTokens,
		identity:      identity,
		objects:       objects,
		phones:        phones,
		logger:        logger,
	}
}

// Delete removes an applicant and every dependent record. An absent profile
// is an idempotent no-op: {ok:true, deleted:false}.
func (s *AccountService) Delete(rawPhone string) (DeleteResult, error) {
	phone, err := s.phones.Validate(rawPhone)
	if err != nil {
		return DeleteResult{}, NewValidationError("phone", err.Error())
	}

	profile, err := s.profiles.GetByPhone(phone)
	if err != nil {
		return DeleteResult{}, err
	}
	if profile == nil {
		return DeleteResult{OK: true, Deleted: false}, nil
	}

	result := DeleteResult{OK: true, Deleted: true}
	collect := func(step string, err error) {
		if err != nil {
			msg := fmt.Sprintf("%s: %v", step, err)
			result.Errors = append(result.Errors, msg)
			s.logger.WithFields(logrus.Fields{
				"phone": phone,
				"step":  step,
			}).WithError(err).Error("account deletion step failed")
		}
	}

	// Remove stored objects before the rows that reference them.
	docs, err := s.documents.ListByProfile(profile.ID)
	collect("list documents", err)
	for _, doc := range docs {
		if path, ok := storedObjectPath(doc); ok {
			collect("remove object", s.objects.Remove(path))
		}
	}

	_, err = s.documents.DeleteByProfile(profile.ID)
	collect("delete documents", err)

	_, err = s.messages.DeleteByProfile(profile.ID)
	collect("delete messages", err)

	_, err = s.exams.DeleteByProfile(profile.ID)
	collect("delete exam registrations", err)

	_, err = s.notifications.DeleteByProfile(profile.ID)
	collect("delete notifications", err)

	_, err = s.deviceTokens.DeleteByProfile(profile.ID)
	collect("delete device tokens", err)

	_, err = s.identity.DeleteByProfile(profile.ID)
	collect("delete identity record", err)

	deleted, err := s.profiles.Delete(profile.ID)
	collect("delete profile", err)
	if err == nil && !deleted {
		// Someone else deleted it between the read and the write.
		result.Deleted = false
	}

	s.logger.WithFields(logrus.Fields{
		"phone":  phone,
		"errors": len(result.Errors),
	}).Info("account deletion cascade finished")

	return result, nil
}

// storedObjectPath returns the real object path behind a document row, if
// one still exists (sentinel and empty paths have no object).
func storedObjectPath(doc models.FCDocument) (string, bool) {
	return doc.UploadState().Path()
}
