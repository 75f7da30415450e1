package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Paths locates the three runtime files.
type Paths struct {
	PID    string
	Target string
	Log    string
}

// FileStore is a Store over plain files.
type FileStore struct {
	paths Paths
	now   func() time.Time
}

// NewFileStore returns a Store over paths. Parent directories are created
// lazily on the first write.
func NewFileStore(paths Paths) *FileStore {
	return &FileStore{paths: paths, now: time.Now}
}

// WithClock overrides the clock used to stamp events.
func (s *FileStore) WithClock(now func() time.Time) *FileStore {
	s.now = now
	return s
}

// Paths returns the files backing the store.
func (s *FileStore) Paths() Paths {
	return s.paths
}

// RecordLiveness implements Store.
func (s *FileStore) RecordLiveness(pid int) error {
	return writeInt(s.paths.PID, pid)
}

// ReadLiveness implements Store.
func (s *FileStore) ReadLiveness() (int, bool) {
	pid, err := readInt(s.paths.PID)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// ClearLiveness implements Store.
func (s *FileStore) ClearLiveness() error {
	return removeIfExists(s.paths.PID)
}

// WriteTarget implements Store.
func (s *FileStore) WriteTarget(speed int) error {
	return writeInt(s.paths.Target, speed)
}

// ReadTarget implements Store.
func (s *FileStore) ReadTarget() (int, bool) {
	speed, err := readInt(s.paths.Target)
	if err != nil || speed < 0 {
		return 0, false
	}
	return speed, true
}

// ClearTarget implements Store.
func (s *FileStore) ClearTarget() error {
	return removeIfExists(s.paths.Target)
}

// ResetLog implements Store. The log is replaced, not truncated in place, and
// starts with a delimiter carrying a short random session id.
func (s *FileStore) ResetLog() error {
	if err := ensureDir(s.paths.Log); err != nil {
		return err
	}
	session := strings.SplitN(uuid.NewString(), "-", 2)[0]
	line := FormatEvent(s.now(), SessionDelimiter(session)) + "\n"
	if err := replaceFile(s.paths.Log, []byte(line)); err != nil {
		return fmt.Errorf("reset event log: %w", err)
	}
	return nil
}

// replaceFile swaps in a new file at path, so readers holding an offset
// into the old log see a different file rather than a truncated one.
func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// AppendEvent implements Store.
func (s *FileStore) AppendEvent(message string) error {
	if err := ensureDir(s.paths.Log); err != nil {
		return err
	}
	f, err := os.OpenFile(s.paths.Log, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	_, werr := f.WriteString(FormatEvent(s.now(), message) + "\n")
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("append event: %w", werr)
	}
	return cerr
}

// TailLog implements Store.
func (s *FileStore) TailLog(n int) ([]string, error) {
	data, err := os.ReadFile(s.paths.Log)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("event log %s: %w", s.paths.Log, ErrNotFound)
		}
		return nil, fmt.Errorf("read event log: %w", err)
	}
	return lastN(splitLines(string(data)), n), nil
}

func splitLines(content string) []string {
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return []string{}
	}
	return strings.Split(content, "\n")
}

func writeInt(path string, v int) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(v)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create runtime directory: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
