//go:build !unix

package storage

import (
	"context"
	"errors"
	"os"
	"time"
)

const lockPollInterval = 5 * time.Millisecond

// lockFile creates path exclusively, polling while another holder owns it.
// A lock left behind by a crashed process must be removed by hand.
func lockFile(ctx context.Context, path string) (func(), error) {
	for {
		fh, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fh.Close()
			return func() { _ = os.Remove(path) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}
