package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"github.com/storyboard/storyboard/pkg/logger"
)

// Entry records a stored artifact for a key
type Entry struct {
	Key  Key
	Path string
}

// Store is one content-addressed artifact store (images and audio each get
// their own). Entries are write-once; forced updates are the only overwrite
// path. Concurrent work on the same key is coalesced so a key triggers at
// most one generation side effect per run.
type Store struct {
	dir    string
	prefix string
	ext    string
	logger logger.Logger

	flight singleflight.Group
}

// NewStore creates a store rooted at dir. Artifacts are named
// <prefix>_<key>.<ext>.
func NewStore(dir, prefix, ext string, log logger.Logger) *Store {
	return &Store{dir: dir, prefix: prefix, ext: ext, logger: log}
}

// Dir returns the store root
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key Key) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.%s", s.prefix, key, s.ext))
}

// Lookup returns the entry for a key, or nil on a miss. An entry that exists
// but cannot be read is an error, never a silent miss: treating it as a miss
// would risk duplicate generation.
func (s *Store) Lookup(key Key) (*Entry, error) {
	p := s.path(key)
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache entry %s unreadable: %w", p, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("cache entry %s is a directory", p)
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("cache entry %s unreadable: %w", p, err)
	}
	f.Close()
	return &Entry{Key: key, Path: p}, nil
}

// Put writes an artifact under its key. Existing entries are preserved
// unless overwrite is set (the forced-update path). The write is staged to a
// temp file and renamed so a crash never leaves a half-written entry.
func (s *Store) Put(key Key, data []byte, overwrite bool) (*Entry, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	p := s.path(key)
	if !overwrite {
		if _, err := os.Stat(p); err == nil {
			return &Entry{Key: key, Path: p}, nil
		}
	}

	tmp, err := os.CreateTemp(s.dir, string(key)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to stage cache entry: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to commit cache entry: %w", err)
	}

	return &Entry{Key: key, Path: p}, nil
}

// GetOrGenerate returns the entry for a key, generating it at most once per
// run. Concurrent callers with the same key join the first caller's attempt
// instead of issuing their own; force skips the lookup and overwrites the
// entry, but is still coalesced per key. The boolean reports a cache hit.
func (s *Store) GetOrGenerate(
	ctx context.Context,
	key Key,
	force bool,
	generate func(ctx context.Context) ([]byte, error),
) (*Entry, bool, error) {
	type outcome struct {
		entry  *Entry
		cached bool
	}

	// Forced callers never share a flight with lookup callers: joining a
	// cache-hit flight would skip the regeneration the force demands.
	flightKey := string(key)
	if force {
		flightKey += "!"
	}

	v, err, _ := s.flight.Do(flightKey, func() (interface{}, error) {
		if !force {
			entry, err := s.Lookup(key)
			if err != nil {
				return nil, err
			}
			if entry != nil {
				if s.logger != nil {
					s.logger.Debug("Cache hit", logger.WithField("key", key))
				}
				return outcome{entry: entry, cached: true}, nil
			}
		}

		data, err := generate(ctx)
		if err != nil {
			return nil, err
		}
		entry, err := s.Put(key, data, force)
		if err != nil {
			return nil, err
		}
		return outcome{entry: entry}, nil
	})
	if err != nil {
		return nil, false, err
	}

	out := v.(outcome)
	return out.entry, out.cached, nil
}
