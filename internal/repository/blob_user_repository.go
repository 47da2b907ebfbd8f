package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/donor-registry/internal/codec"
	"github.com/spec-kit/donor-registry/internal/domain"
	"github.com/spec-kit/donor-registry/internal/storage"
)

// blobUserRepository keeps every record in one text blob: a header line
// followed by one encoded record per line.
type blobUserRepository struct {
	store storage.BlobStore
	key   string
	codec codec.Codec
}

// NewBlobUserRepository stores records under key using c. A nil codec
// selects the escaped CSV format.
func NewBlobUserRepository(store storage.BlobStore, key string, c codec.Codec) UserRepository {
	if c == nil {
		c = codec.CSV{}
	}
	return &blobUserRepository{store: store, key: key, codec: c}
}

func (r *blobUserRepository) Initialize(ctx context.Context) error {
	return r.store.Update(ctx, r.key, func(cur string, exists bool) (string, error) {
		if exists {
			return cur, nil
		}
		return r.codec.Header(), nil
	})
}

func (r *blobUserRepository) Append(ctx context.Context, rec domain.UserRecord) error {
	return r.store.Update(ctx, r.key, func(cur string, exists bool) (string, error) {
		if !exists {
			cur = r.codec.Header()
		}
		records, err := r.decode(cur)
		if err != nil {
			return "", err
		}
		key := rec.Key()
		for _, existing := range records {
			if existing.Key() == key {
				return "", domain.ErrDuplicateEmail
			}
		}
		if cur != "" && !strings.HasSuffix(cur, "\n") {
			cur += "\n"
		}
		return cur + r.codec.Encode(rec), nil
	})
}

func (r *blobUserRepository) ReadAll(ctx context.Context) ([]domain.UserRecord, error) {
	blob, ok, err := r.store.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.key, err)
	}
	if !ok {
		return []domain.UserRecord{}, nil
	}
	return r.decode(blob)
}

func (r *blobUserRepository) decode(blob string) ([]domain.UserRecord, error) {
	lines, err := r.codec.Split(blob)
	if err != nil {
		return nil, err
	}
	records := make([]domain.UserRecord, 0, len(lines))
	for i, line := range lines {
		rec, err := r.codec.Decode(line)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *blobUserRepository) FindByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	records, err := r.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	key := domain.EmailKey(email)
	for _, rec := range records {
		if rec.Key() == key {
			return &rec, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *blobUserRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
