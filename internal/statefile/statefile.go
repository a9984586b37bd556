// Package statefile reads and writes the small JSON files that carry
// memory between runs. Each file is guarded by an advisory lock on
// "<path>.lock" and replaced by rename, so a reader never sees a
// half-written file.
package statefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetry = 50 * time.Millisecond

// ErrLocked is returned when the lock is not acquired before ctx ends.
var ErrLocked = errors.New("state file is locked")

// Lock takes the advisory lock for path and returns its release func.
func Lock(ctx context.Context, path string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	fl := flock.New(path + ".lock")
	ok, err := fl.TryLockContext(ctx, lockRetry)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return fl.Unlock, nil
}

// ReadJSON decodes path into v. A missing file leaves v untouched and
// returns an error matching os.ErrNotExist.
func ReadJSON(ctx context.Context, path string, v any) error {
	unlock, err := Lock(ctx, path)
	if err != nil {
		return err
	}
	defer unlock()

	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// ReadBytes is ReadJSON for callers that validate the raw document
// before decoding it.
func ReadBytes(ctx context.Context, path string) ([]byte, error) {
	unlock, err := Lock(ctx, path)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return os.ReadFile(path)
}

// WriteJSON encodes v with indentation and replaces path with it.
func WriteJSON(ctx context.Context, path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	unlock, err := Lock(ctx, path)
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
