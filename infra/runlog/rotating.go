package runlog

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	core "github.com/kilianp07/unitcommit/core/runlog"
)

// RotatingJSONLStore is a JSONLStore whose file is rotated by size and age.
type RotatingJSONLStore struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
	path   string
}

// NewRotatingJSONLStore creates a store with rotation limits in megabytes
// and days.
func NewRotatingJSONLStore(path string, maxSizeMB, maxBackups, maxAgeDays int) (*RotatingJSONLStore, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	return &RotatingJSONLStore{logger: lj, path: path}, nil
}

// Append writes the record and rotates the file if needed.
func (s *RotatingJSONLStore) Append(_ context.Context, rec core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.NewEncoder(s.logger).Encode(rec)
}

// Query reads the current file and the rotated backups.
func (s *RotatingJSONLStore) Query(_ context.Context, q core.Query) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ext := filepath.Ext(s.path)
	base := s.path[:len(s.path)-len(ext)]
	backups, err := filepath.Glob(base + "-*" + ext)
	if err != nil {
		return nil, err
	}
	var res []core.Record
	for _, f := range append(backups, s.path) {
		next, err := scanFile(f, q, res)
		if err != nil {
			// lumberjack creates the file on first write.
			if f == s.path && isNotExist(err) {
				continue
			}
			return nil, err
		}
		res = next
	}
	return core.Limit(res, q.Limit), nil
}

// Close closes the underlying writer.
func (s *RotatingJSONLStore) Close() error { return s.logger.Close() }
