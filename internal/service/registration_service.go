package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/donor-registry/internal/auth"
	"github.com/spec-kit/donor-registry/internal/config"
	"github.com/spec-kit/donor-registry/internal/domain"
	"github.com/spec-kit/donor-registry/internal/events"
	"github.com/spec-kit/donor-registry/internal/repository"
	apperrors "github.com/spec-kit/donor-registry/pkg/util"
)

// RegistrationService runs the sign-up flow against the record store.
type RegistrationService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// RegistrationDependencies bundles collaborators for the registration flow.
type RegistrationDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewRegistrationService builds the service.
func NewRegistrationService(cfg config.Config, deps RegistrationDependencies) *RegistrationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register validates input, rejects taken emails and appends the new record.
// The returned record carries the password hash.
func (s *RegistrationService) Register(ctx context.Context, in RegistrationInput) (*domain.UserRecord, error) {
	rec, fieldErrs := in.Validate()
	if len(fieldErrs) > 0 {
		return nil, apperrors.NewValidationError("registration is invalid", fieldErrs.details())
	}

	// Cheap early rejection; Append repeats the check atomically.
	if _, err := s.users.FindByEmail(ctx, rec.Email); err == nil {
		return nil, apperrors.NewConflict("an account with this email already exists", map[string]any{"email": rec.Email})
	} else if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, apperrors.NewInternalError(fmt.Errorf("lookup email: %w", err))
	}

	hash, err := auth.HashPassword(rec.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("hash password: %w", err))
	}
	rec.Password = hash

	if err := s.users.Append(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("an account with this email already exists", map[string]any{"email": rec.Email})
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("append record: %w", err))
	}

	s.logger.Info("donor registered",
		zap.String("email", rec.Email),
		zap.String("blood_group", string(rec.BloodGroup)))
	s.publish(ctx, events.NewEvent(events.EventDonorRegistered, rec.Email, events.DonorRegisteredPayload{
		BloodGroup: rec.BloodGroup,
		Location:   rec.Location,
	}))
	return &rec, nil
}

func (s *RegistrationService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
