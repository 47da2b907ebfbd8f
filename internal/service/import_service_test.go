package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/donor-registry/internal/auth"
	"github.com/spec-kit/donor-registry/internal/domain"
	"github.com/spec-kit/donor-registry/internal/events"
	apperrors "github.com/spec-kit/donor-registry/pkg/util"
)

func TestImportSnapshot_LegacyCSV(t *testing.T) {
	repo := newSpyRepo(t)
	svc := NewImportService(testConfig(), ImportDependencies{UserRepo: repo})
	ctx := context.Background()

	blob := "fullName,email,phone,bloodGroup,location,password\n" +
		"Alice,a@x.com,5551234567,O+,NYC,secret12\n" +
		"Doe, Jr.,d@x.com,5551234567,A+,LA,secret12\n" +
		"\n" +
		"Bob,b@x.com,5559876543,AB-,Boston,hunter22\n" +
		"Alicia,A@X.COM,5551234567,O+,NYC,secret12\n"

	report, err := svc.ImportSnapshot(ctx, map[string]string{LegacyCSVKey: blob})
	require.NoError(t, err)
	assert.Equal(t, ImportReport{Imported: 2, Duplicates: 1, Invalid: 1}, *report)

	records, err := repo.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Alice", records[0].FullName)
	assert.True(t, auth.IsHashed(records[0].Password))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(records[0].Password), []byte("secret12")))
	assert.Equal(t, domain.BloodGroupABNeg, records[1].BloodGroup)
}

func TestImportSnapshot_LegacyJSON(t *testing.T) {
	repo := newSpyRepo(t)
	dispatcher := events.NewInMemoryDispatcher()
	var got events.LegacyImportedPayload
	dispatcher.Subscribe(events.EventLegacyImported, func(_ context.Context, e events.Event) error {
		got = e.Payload.(events.LegacyImportedPayload)
		return nil
	})
	svc := NewImportService(testConfig(), ImportDependencies{UserRepo: repo, Dispatcher: dispatcher})
	ctx := context.Background()

	raw := `[
		{"id":"1","name":"Eve","email":"e@x.com","phone":"5551112222","bloodGroup":"B+","city":"Austin","createdAt":"2024-01-01"},
		{"id":"2","name":"","email":"nobody@x.com","phone":"","bloodGroup":"B+","city":""},
		{"id":"3","name":"Finn","email":"f@x.com","phone":"5553334444","bloodGroup":"X","city":"Austin"}
	]`
	report, err := svc.ImportSnapshot(ctx, map[string]string{LegacyJSONKey: raw})
	require.NoError(t, err)
	assert.Equal(t, ImportReport{Imported: 1, Invalid: 2}, *report)
	assert.Equal(t, events.LegacyImportedPayload{Imported: 1, Invalid: 2}, got)

	rec, err := repo.FindByEmail(ctx, "e@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Austin", rec.Location)
	assert.Empty(t, rec.Password)
}

func TestImportJSON_RejectsMalformedDump(t *testing.T) {
	repo := newSpyRepo(t)
	svc := NewImportService(testConfig(), ImportDependencies{UserRepo: repo})

	_, err := svc.ImportJSON(context.Background(), []byte(`["not","an","object"]`))
	assert.Equal(t, "BAD_REQUEST", apperrors.ToDomainError(err).Code)

	_, err = svc.ImportJSON(context.Background(), []byte(`{"rv_users":"{broken"}`))
	assert.Equal(t, "BAD_REQUEST", apperrors.ToDomainError(err).Code)
	assert.Zero(t, repo.appendCalls())
}

func TestImportJSON_EmptyDump(t *testing.T) {
	repo := newSpyRepo(t)
	svc := NewImportService(testConfig(), ImportDependencies{UserRepo: repo})

	report, err := svc.ImportJSON(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, ImportReport{}, *report)
}

func TestImportSnapshot_OverlongPasswordCountedInvalid(t *testing.T) {
	repo := newSpyRepo(t)
	svc := NewImportService(testConfig(), ImportDependencies{UserRepo: repo})
	ctx := context.Background()

	blob := "fullName,email,phone,bloodGroup,location,password\n" +
		"Bob,b@x.com,5559876543,B+,Rome,hunter22\n" +
		"Cara,c@x.com,5551112222,A+,Oslo," + strings.Repeat("p", 80) + "\n" +
		"Dan,d@x.com,5553334444,O-,Lima,dan-pass\n"

	report, err := svc.ImportSnapshot(ctx, map[string]string{LegacyCSVKey: blob})
	require.NoError(t, err)
	assert.Equal(t, ImportReport{Imported: 2, Invalid: 1}, *report)

	records, err := repo.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Bob", records[0].FullName)
	assert.Equal(t, "Dan", records[1].FullName)
}

func TestImportSnapshot_LineBreaksInValuesCountedInvalid(t *testing.T) {
	repo := newSpyRepo(t)
	svc := NewImportService(testConfig(), ImportDependencies{UserRepo: repo})

	raw := `[
		{"name":"Ann\r\nLee","email":"ann@x.com","phone":"5551112222","bloodGroup":"B+","city":"Austin"},
		{"name":"Ben","email":"ben@x.com","phone":"5551112222","bloodGroup":"B+","city":"Old\nTown"},
		{"name":"Cy","email":"cy@x.com","phone":"5551112222","bloodGroup":"B+","city":"Austin"}
	]`
	report, err := svc.ImportSnapshot(context.Background(), map[string]string{LegacyJSONKey: raw})
	require.NoError(t, err)
	assert.Equal(t, ImportReport{Imported: 1, Invalid: 2}, *report)
}

func TestImportSnapshot_KeepsExistingHashes(t *testing.T) {
	repo := newSpyRepo(t)
	svc := NewImportService(testConfig(), ImportDependencies{UserRepo: repo})
	ctx := context.Background()

	hash, err := auth.HashPassword("secret12", bcrypt.MinCost)
	require.NoError(t, err)
	blob := "fullName,email,phone,bloodGroup,location,password\n" +
		"Alice,a@x.com,5551234567,O+,NYC," + hash + "\n"

	report, err := svc.ImportSnapshot(ctx, map[string]string{LegacyCSVKey: blob})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)

	rec, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, hash, rec.Password)
}
