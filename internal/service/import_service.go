package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/donor-registry/internal/auth"
	"github.com/spec-kit/donor-registry/internal/codec"
	"github.com/spec-kit/donor-registry/internal/config"
	"github.com/spec-kit/donor-registry/internal/domain"
	"github.com/spec-kit/donor-registry/internal/events"
	"github.com/spec-kit/donor-registry/internal/repository"
	apperrors "github.com/spec-kit/donor-registry/pkg/util"
)

// Keys the old pages wrote to browser storage.
const (
	LegacyCSVKey  = "usersCSV"
	LegacyJSONKey = "rv_users"
)

// ImportReport counts the outcome of an import.
type ImportReport struct {
	Imported   int `json:"imported" yaml:"imported"`
	Duplicates int `json:"duplicates" yaml:"duplicates"`
	Invalid    int `json:"invalid" yaml:"invalid"`
}

// legacyJSONUser is one element of the rv_users array.
type legacyJSONUser struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	BloodGroup string `json:"bloodGroup"`
	City       string `json:"city"`
	CreatedAt  string `json:"createdAt"`
}

// ImportService moves records out of a browser storage dump.
type ImportService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// ImportDependencies bundles collaborators for imports.
type ImportDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewImportService builds the service.
func NewImportService(cfg config.Config, deps ImportDependencies) *ImportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// ImportSnapshot reads both legacy keys from a storage dump (key -> raw
// string value) and appends every usable record. Bad rows and duplicates are
// counted rather than failing the import.
func (s *ImportService) ImportSnapshot(ctx context.Context, snapshot map[string]string) (*ImportReport, error) {
	report := &ImportReport{}
	var candidates []domain.UserRecord

	if blob, ok := snapshot[LegacyCSVKey]; ok {
		lines, err := codec.Legacy{}.Split(blob)
		if err != nil {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("%s: %v", LegacyCSVKey, err))
		}
		for _, line := range lines {
			if strings.Count(line, ",") != len(domain.ColumnNames)-1 {
				// a comma inside a value shifted the columns
				report.Invalid++
				continue
			}
			rec, _ := codec.Legacy{}.Decode(line)
			candidates = append(candidates, rec)
		}
	}

	if raw, ok := snapshot[LegacyJSONKey]; ok && strings.TrimSpace(raw) != "" {
		var users []legacyJSONUser
		if err := json.Unmarshal([]byte(raw), &users); err != nil {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("%s: %v", LegacyJSONKey, err))
		}
		for _, u := range users {
			candidates = append(candidates, domain.UserRecord{
				FullName:   u.Name,
				Email:      u.Email,
				Phone:      u.Phone,
				BloodGroup: domain.BloodGroup(u.BloodGroup),
				Location:   u.City,
			})
		}
	}

	for _, rec := range candidates {
		rec, ok := normalizeImported(rec)
		if !ok {
			report.Invalid++
			continue
		}
		if rec.Password != "" && !auth.IsHashed(rec.Password) {
			hash, err := auth.HashPassword(rec.Password, s.bcryptCost)
			if err != nil {
				return nil, apperrors.NewInternalError(fmt.Errorf("hash password: %w", err))
			}
			rec.Password = hash
		}
		if err := s.users.Append(ctx, rec); err != nil {
			if errors.Is(err, domain.ErrDuplicateEmail) {
				report.Duplicates++
				continue
			}
			return nil, apperrors.NewInternalError(fmt.Errorf("append imported record: %w", err))
		}
		report.Imported++
	}

	s.logger.Info("legacy import finished",
		zap.Int("imported", report.Imported),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("invalid", report.Invalid))

	if s.dispatcher != nil {
		event := events.NewEvent(events.EventLegacyImported, "import", events.LegacyImportedPayload{
			Imported:   report.Imported,
			Duplicates: report.Duplicates,
			Invalid:    report.Invalid,
		})
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return report, nil
}

// ImportJSON decodes a storage dump and imports it.
func (s *ImportService) ImportJSON(ctx context.Context, data []byte) (*ImportReport, error) {
	var snapshot map[string]string
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("storage dump must be a JSON object of strings: %v", err))
	}
	return s.ImportSnapshot(ctx, snapshot)
}

// normalizeImported applies the registration rules that still make sense
// for old data. Rows failing them are counted as invalid.
func normalizeImported(rec domain.UserRecord) (domain.UserRecord, bool) {
	rec.FullName = strings.TrimSpace(rec.FullName)
	rec.Email = strings.TrimSpace(rec.Email)
	rec.Phone = strings.TrimSpace(rec.Phone)
	rec.Location = strings.TrimSpace(rec.Location)

	if rec.FullName == "" || !emailPattern.MatchString(rec.Email) {
		return rec, false
	}
	for _, v := range rec.Fields() {
		if strings.ContainsAny(v, "\r\n") {
			return rec, false
		}
	}
	if len(rec.Password) > maxPasswordBytes {
		return rec, false
	}
	group, err := domain.ParseBloodGroup(string(rec.BloodGroup))
	if err != nil {
		return rec, false
	}
	rec.BloodGroup = group
	return rec, true
}
