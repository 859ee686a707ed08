package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/emiliopalmerini/ccptracker/internal/errors"
)

const (
	DefaultLockTimeout = 5 * time.Second

	// DefaultStaleAfter is the age past which a lock left behind by a killed
	// process is broken.
	DefaultStaleAfter = 30 * time.Second
)

var errLockHeld = stderrors.New("lock held by another process")

// FileLock is an inter-process lock backed by a sentinel file created with
// O_EXCL next to the guarded file.
type FileLock struct {
	path       string
	timeout    time.Duration
	staleAfter time.Duration

	// beforeBreak runs between noticing a stale sentinel and moving it away.
	beforeBreak func()
}

// NewFileLock creates a lock guarding target. Waiting for the lock gives up
// after timeout.
func NewFileLock(target string, timeout time.Duration) *FileLock {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	return &FileLock{
		path:       target + ".lock",
		timeout:    timeout,
		staleAfter: DefaultStaleAfter,
	}
}

// Path returns the sentinel file path.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire blocks until the lock is held, the timeout elapses, or ctx is
// done. The returned release func must be called exactly once; it removes
// the sentinel only while it still carries this holder's token.
func (l *FileLock) Acquire(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, errors.NewUnwritable(filepath.Dir(l.path), err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = l.timeout

	token := fmt.Sprintf("%d %s", os.Getpid(), uuid.NewString())
	op := func() error {
		err := l.tryCreate(token)
		if err == nil {
			return nil
		}
		if stderrors.Is(err, fs.ErrExist) {
			l.breakIfStale()
			return errLockHeld
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		switch {
		case stderrors.Is(err, errLockHeld):
			return nil, errors.NewLockTimeout(l.path, l.timeout)
		case stderrors.Is(err, fs.ErrPermission):
			return nil, errors.NewUnwritable(l.path, err)
		case ctx.Err() != nil:
			return nil, fmt.Errorf("acquire lock %s: %w", l.path, ctx.Err())
		default:
			return nil, errors.NewStorageIO(l.path, err)
		}
	}

	return func() { l.release(token) }, nil
}

func (l *FileLock) tryCreate(token string) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, werr := fmt.Fprintln(f, token)
	cerr := f.Close()
	if werr != nil {
		_ = os.Remove(l.path)
		return werr
	}
	return cerr
}

func (l *FileLock) release(token string) {
	data, err := os.ReadFile(l.path)
	if err != nil || strings.TrimSpace(string(data)) != token {
		return
	}
	_ = os.Remove(l.path)
}

// breakIfStale moves a stale sentinel aside under a unique name. Only the
// waiter whose rename succeeds inspects the moved file; if it turns out to
// be fresh (another waiter already broke the stale one and took the lock)
// it is linked back without clobbering.
func (l *FileLock) breakIfStale() {
	info, err := os.Stat(l.path)
	if err != nil || time.Since(info.ModTime()) <= l.staleAfter {
		return
	}
	if l.beforeBreak != nil {
		l.beforeBreak()
	}

	aside := l.path + ".stale-" + uuid.NewString()
	if err := os.Rename(l.path, aside); err != nil {
		return
	}
	defer func() { _ = os.Remove(aside) }()

	moved, err := os.Stat(aside)
	if err == nil && time.Since(moved.ModTime()) <= l.staleAfter {
		_ = os.Link(aside, l.path)
	}
}

// WriteFileAtomic writes data to a temp file in the same directory and
// renames it over path, so readers see either the old or the new content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewUnwritable(dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		if stderrors.Is(err, fs.ErrPermission) {
			return errors.NewUnwritable(dir, err)
		}
		return errors.NewStorageIO(path, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.NewStorageIO(path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.NewStorageIO(path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewStorageIO(path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return errors.NewStorageIO(path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.NewStorageIO(path, err)
	}
	return nil
}
