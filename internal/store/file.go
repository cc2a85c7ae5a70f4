package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/scriptorium/claimledger/internal/domain"
)

// FileEventStore is the default registry backend: one JSON event per line,
// append-only, fsynced per append. The file is never rewritten.
type FileEventStore struct {
	mu   sync.Mutex
	path string
	f    *os.File
	last uint64
}

// OpenFile opens (or creates) the log at path. Parent directories are
// created as needed.
func OpenFile(path string) (*FileEventStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &FileEventStore{path: path, f: f}, nil
}

func (s *FileEventStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

func (s *FileEventStore) Load(ctx context.Context) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	var events []domain.Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e domain.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, &CorruptLogError{Source: s.path, Line: line, Err: err}
		}
		if !domain.ValidEventKind(string(e.Kind)) {
			return nil, &CorruptLogError{Source: s.path, Line: line,
				Err: fmt.Errorf("unknown event kind %q", e.Kind)}
		}
		if e.Seq != uint64(len(events))+1 {
			return nil, &CorruptLogError{Source: s.path, Line: line,
				Err: fmt.Errorf("sequence gap: got %d, want %d", e.Seq, len(events)+1)}
		}
		events = append(events, e)
	}
	if err := sc.Err(); err != nil {
		return nil, &CorruptLogError{Source: s.path, Line: line, Err: err}
	}
	s.last = uint64(len(events))
	return events, nil
}

func (s *FileEventStore) Append(ctx context.Context, e *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Seq != s.last+1 {
		return fmt.Errorf("append out of sequence: got %d, want %d", e.Seq, s.last+1)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	raw = append(raw, '\n')
	if _, err := s.f.Write(raw); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sync event log: %w", err)
	}
	s.last = e.Seq
	return nil
}
