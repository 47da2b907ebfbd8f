package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/donor-registry/internal/domain"
	"github.com/spec-kit/donor-registry/internal/repository"
	apperrors "github.com/spec-kit/donor-registry/pkg/util"
)

// DirectoryService answers read queries over registered users.
type DirectoryService struct {
	users repository.UserRepository
}

// DonorFilter narrows a donor search. Empty fields match everything.
type DonorFilter struct {
	// Query matches name or city, case-insensitively, as a substring.
	Query      string
	BloodGroup string
	City       string
}

// NewDirectoryService constructs the service.
func NewDirectoryService(users repository.UserRepository) *DirectoryService {
	return &DirectoryService{users: users}
}

// List returns every record without password material.
func (s *DirectoryService) List(ctx context.Context) ([]domain.UserRecord, error) {
	records, err := s.users.ReadAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("read records: %w", err))
	}
	return stripPasswords(records), nil
}

// Lookup finds a record by email.
func (s *DirectoryService) Lookup(ctx context.Context, email string) (*domain.UserRecord, error) {
	if strings.TrimSpace(email) == "" {
		return nil, apperrors.NewValidationError("email required", map[string]any{"email": "required"})
	}
	rec, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
	}
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("find by email: %w", err))
	}
	out := rec.WithoutPassword()
	return &out, nil
}

// SearchDonors filters registered users.
func (s *DirectoryService) SearchDonors(ctx context.Context, filter DonorFilter) ([]domain.UserRecord, error) {
	var group domain.BloodGroup
	if strings.TrimSpace(filter.BloodGroup) != "" {
		g, err := domain.ParseBloodGroup(filter.BloodGroup)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid filter", map[string]any{"bloodGroup": "unknown blood group"})
		}
		group = g
	}

	records, err := s.users.ReadAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("read records: %w", err))
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	city := strings.TrimSpace(filter.City)

	matches := []domain.UserRecord{}
	for _, rec := range records {
		if query != "" &&
			!strings.Contains(strings.ToLower(rec.FullName), query) &&
			!strings.Contains(strings.ToLower(rec.Location), query) {
			continue
		}
		if group != "" && rec.BloodGroup != group {
			continue
		}
		if city != "" && !strings.EqualFold(rec.Location, city) {
			continue
		}
		matches = append(matches, rec.WithoutPassword())
	}
	return matches, nil
}

func stripPasswords(records []domain.UserRecord) []domain.UserRecord {
	out := make([]domain.UserRecord, len(records))
	for i, rec := range records {
		out[i] = rec.WithoutPassword()
	}
	return out
}
