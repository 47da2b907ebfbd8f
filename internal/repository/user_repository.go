package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/donor-registry/internal/domain"
	"github.com/spec-kit/donor-registry/internal/persistence"
)

// UserRepository is the append-only user record store.
type UserRepository interface {
	// Initialize prepares empty storage. It is safe to call on a populated store.
	Initialize(ctx context.Context) error
	// Append stores rec unless its email key is taken, in which case it
	// returns domain.ErrDuplicateEmail and leaves the store unchanged.
	Append(ctx context.Context, rec domain.UserRecord) error
	// ReadAll returns a snapshot of every record in insertion order.
	ReadAll(ctx context.Context) ([]domain.UserRecord, error)
	// FindByEmail returns the first record with a matching email key or
	// domain.ErrRecordNotFound.
	FindByEmail(ctx context.Context, email string) (*domain.UserRecord, error)
	Ping(ctx context.Context) error
}

type postgresUserRepository struct {
	pg     *persistence.Postgres
	logger *zap.Logger
}

// NewPostgresUserRepository returns a Postgres-backed implementation.
// Migration output goes to logger.
func NewPostgresUserRepository(pg *persistence.Postgres, logger *zap.Logger) UserRepository {
	return &postgresUserRepository{pg: pg, logger: logger}
}

func (r *postgresUserRepository) pool() *pgxpool.Pool {
	return r.pg.PoolHandle()
}

func (r *postgresUserRepository) Initialize(ctx context.Context) error {
	return persistence.RunMigrations(ctx, r.pg.SQLDB(), persistence.DialectPostgres, r.logger)
}

func (r *postgresUserRepository) Append(ctx context.Context, rec domain.UserRecord) error {
	const query = `
        INSERT INTO users (full_name, email, email_key, phone, blood_group, location, password)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (email_key) DO NOTHING
        RETURNING id`

	var id int64
	err := r.pool().QueryRow(ctx, query,
		rec.FullName,
		rec.Email,
		rec.Key(),
		rec.Phone,
		string(rec.BloodGroup),
		rec.Location,
		rec.Password,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) ReadAll(ctx context.Context) ([]domain.UserRecord, error) {
	const query = `
        SELECT full_name, email, phone, blood_group, location, password
        FROM users ORDER BY id`

	rows, err := r.pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	records := []domain.UserRecord{}
	for rows.Next() {
		rec, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *postgresUserRepository) FindByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	const query = `
        SELECT full_name, email, phone, blood_group, location, password
        FROM users WHERE email_key=$1`

	rec, err := scanUser(r.pool().QueryRow(ctx, query, domain.EmailKey(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *postgresUserRepository) Ping(ctx context.Context) error {
	return r.pg.Ping(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.UserRecord, error) {
	var (
		rec   domain.UserRecord
		group string
	)
	if err := row.Scan(
		&rec.FullName,
		&rec.Email,
		&rec.Phone,
		&group,
		&rec.Location,
		&rec.Password,
	); err != nil {
		return domain.UserRecord{}, err
	}
	rec.BloodGroup = domain.BloodGroup(group)
	return rec, nil
}
