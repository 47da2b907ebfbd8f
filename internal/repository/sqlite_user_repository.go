package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/spec-kit/donor-registry/internal/domain"
	"github.com/spec-kit/donor-registry/internal/persistence"
)

type sqliteUserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteUserRepository returns a repository over an open SQLite handle.
// Migration output goes to logger.
func NewSQLiteUserRepository(db *sql.DB, logger *zap.Logger) UserRepository {
	return &sqliteUserRepository{db: db, logger: logger}
}

func (r *sqliteUserRepository) Initialize(ctx context.Context) error {
	return persistence.RunMigrations(ctx, r.db, persistence.DialectSQLite, r.logger)
}

// Append checks and inserts inside one BEGIN IMMEDIATE transaction. The
// write lock is taken before the check, so a writer in another process
// waits on busy_timeout instead of failing a read-to-write upgrade. The
// unique index on email_key backs the check.
func (r *sqliteUserRepository) Append(ctx context.Context, rec domain.UserRecord) (err error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err = conn.ExecContext(ctx, `BEGIN IMMEDIATE`); err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err == nil {
			if _, err = conn.ExecContext(ctx, `COMMIT`); err == nil {
				return
			}
			err = fmt.Errorf("commit: %w", err)
		}
		// the transaction must not outlive a canceled ctx on a pooled conn
		_, _ = conn.ExecContext(context.Background(), `ROLLBACK`)
	}()

	var exists int
	err = conn.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email_key = ?`, rec.Key()).Scan(&exists)
	switch {
	case err == nil:
		return domain.ErrDuplicateEmail
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("check email: %w", err)
	}

	_, err = conn.ExecContext(ctx, `
        INSERT INTO users (full_name, email, email_key, phone, blood_group, location, password)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.FullName, rec.Email, rec.Key(), rec.Phone, string(rec.BloodGroup), rec.Location, rec.Password,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func (r *sqliteUserRepository) ReadAll(ctx context.Context) ([]domain.UserRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT full_name, email, phone, blood_group, location, password
        FROM users ORDER BY id`)
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

func (r *sqliteUserRepository) FindByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT full_name, email, phone, blood_group, location, password
        FROM users WHERE email_key = ?`, domain.EmailKey(email))
	rec, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *sqliteUserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
