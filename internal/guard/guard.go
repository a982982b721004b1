// Package guard enforces the single-session invariant for review runs.
//
// A single marker file is the entire protocol: its existence means a review
// session is in progress. Acquire creates the marker atomically and returns
// a Guard whose Release must be deferred so the marker disappears on every
// exit path. A trigger that finds the marker present is dropped, never
// queued.
//
// A marker left behind by a crashed process would block reviews forever, so
// Acquire reclaims markers whose recorded PID is no longer alive or whose
// age exceeds the configured bound.
package guard

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/revwatch/internal/errors"
)

// DefaultStaleAfter is how old a marker must be before an unreadable or
// orphaned one is reclaimed.
const DefaultStaleAfter = 15 * time.Minute

// Guard represents a held review marker. Release is idempotent and safe to
// defer alongside error returns.
type Guard struct {
	path     string
	mu       sync.Mutex
	released bool
}

// marker is the parsed content of a marker file.
type marker struct {
	pid       int
	startedAt time.Time
}

// Keeper creates and reclaims guard markers at a fixed path.
type Keeper struct {
	path       string
	staleAfter time.Duration
}

// NewKeeper returns a Keeper for the marker at path. If staleAfter is zero,
// DefaultStaleAfter is used.
func NewKeeper(path string, staleAfter time.Duration) *Keeper {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Keeper{path: path, staleAfter: staleAfter}
}

// Path returns the marker file path.
func (k *Keeper) Path() string {
	return k.path
}

// Acquire creates the marker file. It returns ErrGuardBusy if the marker
// already exists and belongs to a live session.
func (k *Keeper) Acquire() (*Guard, error) {
	if err := os.MkdirAll(filepath.Dir(k.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create guard directory: %w", err)
	}

	g, err := k.tryCreate()
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, errors.ErrGuardBusy) {
		return nil, err
	}

	// Marker exists. Reclaim it only if it is demonstrably stale.
	if !k.isStale() {
		return nil, errors.ErrGuardBusy
	}
	if err := os.Remove(k.path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to reclaim stale guard marker: %w", err)
	}
	return k.tryCreate()
}

// Held reports whether the marker currently exists.
func (k *Keeper) Held() bool {
	_, err := os.Stat(k.path)
	return err == nil
}

// tryCreate attempts the atomic marker creation.
func (k *Keeper) tryCreate() (*Guard, error) {
	f, err := os.OpenFile(k.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.ErrGuardBusy
		}
		return nil, fmt.Errorf("failed to create guard marker: %w", err)
	}

	content := fmt.Sprintf("pid=%d\nstarted=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		_ = os.Remove(k.path)
		return nil, fmt.Errorf("failed to write guard marker: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(k.path)
		return nil, fmt.Errorf("failed to close guard marker: %w", err)
	}

	return &Guard{path: k.path}, nil
}

// isStale reports whether the existing marker can be reclaimed: its owner
// process is gone, or it is unreadable and older than the stale bound.
func (k *Keeper) isStale() bool {
	m, err := readMarker(k.path)
	if err != nil {
		info, statErr := os.Stat(k.path)
		if statErr != nil {
			// Marker vanished between checks; Acquire will retry creation.
			return true
		}
		return time.Since(info.ModTime()) > k.staleAfter
	}

	if !pidAlive(m.pid) {
		return true
	}
	return time.Since(m.startedAt) > k.staleAfter
}

// readMarker parses the pid and start time from a marker file.
func readMarker(path string) (marker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return marker{}, err
	}

	var m marker
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			m.pid, err = strconv.Atoi(value)
			if err != nil {
				return marker{}, fmt.Errorf("invalid pid in guard marker: %w", err)
			}
		case "started":
			m.startedAt, err = time.Parse(time.RFC3339, value)
			if err != nil {
				return marker{}, fmt.Errorf("invalid timestamp in guard marker: %w", err)
			}
		}
	}
	if m.pid == 0 || m.startedAt.IsZero() {
		return marker{}, fmt.Errorf("incomplete guard marker")
	}
	return m, nil
}

// Release removes the marker. It is safe to call multiple times.
func (g *Guard) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.released {
		return nil
	}
	g.released = true

	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove guard marker: %w", err)
	}
	return nil
}
