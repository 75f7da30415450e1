package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Follow calls fn for every line appended to the event log until ctx is
// done. Lines already present are skipped. When a new daemon session
// truncates the log, reading restarts from the top.
//
// The runtime directory is watched rather than the file so that a log
// created after Follow starts is still picked up.
func (s *FileStore) Follow(ctx context.Context, fn func(line string)) error {
	logPath := filepath.Clean(s.paths.Log)
	dir := filepath.Dir(logPath)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("runtime directory %s: %w", dir, ErrNotFound)
		}
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	t := &tailer{path: logPath}
	if info, err := os.Stat(logPath); err == nil {
		t.offset = info.Size()
		t.file = info
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != logPath {
				continue
			}
			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				t.reset()
			case event.Has(fsnotify.Create):
				t.reset()
				t.drain(fn)
			case event.Has(fsnotify.Write):
				t.drain(fn)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch event log: %w", err)
		}
	}
}

// tailer tracks the read position within the event log. file identifies
// the log the offset belongs to; a new session replaces the file.
type tailer struct {
	path    string
	offset  int64
	partial string
	file    os.FileInfo
}

func (t *tailer) reset() {
	t.offset = 0
	t.partial = ""
}

func (t *tailer) drain(fn func(line string)) {
	f, err := os.Open(t.path)
	if err != nil {
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return
	}
	if t.file == nil || !os.SameFile(t.file, info) || info.Size() < t.offset {
		t.reset()
	}
	t.file = info
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return
	}

	data, err := io.ReadAll(f)
	if err != nil || len(data) == 0 {
		return
	}
	t.offset += int64(len(data))

	lines := strings.Split(t.partial+string(data), "\n")
	t.partial = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		fn(line)
	}
}
