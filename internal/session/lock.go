package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"salesavor/internal/services"
)

// ErrLocked is returned when another process holds the session.
var ErrLocked = fmt.Errorf("%w: session is in use by another salesavor process", services.ErrInput)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Lock is an exclusive hold on one named session.
type Lock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file used for session name under dir. The file
// name keeps a readable form of the session name plus a digest of the exact
// name, so names that sanitize alike still lock separately.
func LockPath(dir, name string) string {
	name = strings.TrimSpace(name)
	safe := unsafeNameChars.ReplaceAllString(name, "_")
	if safe == "" {
		safe = "default"
	}
	digest := strings.ReplaceAll(uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String(), "-", "")[:12]
	return filepath.Join(dir, safe+"-"+digest+".lock")
}

// Acquire takes the lock for session name without blocking. It fails with
// ErrLocked when another process already holds it.
func Acquire(dir, name string) (*Lock, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	path := LockPath(dir, name)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, name)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
