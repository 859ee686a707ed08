package storage

import (
	"context"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/emiliopalmerini/ccptracker/internal/errors"
)

// ioRetries bounds how often a transient read or write is repeated.
const ioRetries = 3

type writeFunc func(path string, data []byte, perm os.FileMode) error

// retryIO runs op again while it fails with a transient error, up to
// ioRetries more times. Other errors are returned at once.
func retryIO(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond

	return backoff.Retry(func() error {
		err := op()
		if err != nil && !errors.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, ioRetries), ctx))
}
