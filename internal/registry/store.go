package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"

	"warden/internal/config"
	"warden/internal/fileutil"
	"warden/internal/logging"
	"warden/internal/scope"
)

// document is the persisted shape: absolute working directory to process key
// to record.
type document map[string]map[string]Record

const (
	lockTimeout    = 5 * time.Second
	lockRetryDelay = 25 * time.Millisecond
)

// Store persists process records in a single JSON document shared by every
// front-end of the same configuration namespace. Writes are last-writer-wins
// across processes; an advisory file lock keeps individual read-modify-write
// cycles from interleaving.
type Store struct {
	path     string
	fileLock *flock.Flock
	logger   *slog.Logger

	mu sync.Mutex
}

// Open prepares the registry for the given configuration.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("registry requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return &Store{
		path:     cfg.RegistryPath(),
		fileLock: flock.New(cfg.RegistryLockPath()),
		logger:   logging.NewComponentLogger(logger, "registry"),
	}, nil
}

// Path returns the location of the persisted document.
func (s *Store) Path() string {
	return s.path
}

// Get returns a copy of the partition for the given working directory. A
// missing partition yields an empty map.
func (s *Store) Get(ctx context.Context, workdir string) (map[string]Record, error) {
	var partition map[string]Record
	err := s.read(ctx, func(doc document) {
		partition = make(map[string]Record, len(doc[workdir]))
		for key, rec := range doc[workdir] {
			partition[key] = rec
		}
	})
	return partition, err
}

// Put stores a record under (workdir, key), replacing any previous value.
func (s *Store) Put(ctx context.Context, workdir, key string, rec Record) error {
	return s.mutate(ctx, func(doc document) (bool, error) {
		partition, ok := doc[workdir]
		if !ok {
			partition = make(map[string]Record)
			doc[workdir] = partition
		}
		partition[key] = rec
		return true, nil
	})
}

// Update applies mutate to the record under (workdir, key) and flushes the
// result. It returns ErrNotFound when no such record exists.
func (s *Store) Update(ctx context.Context, workdir, key string, mutate func(*Record)) error {
	return s.mutate(ctx, func(doc document) (bool, error) {
		partition, ok := doc[workdir]
		if !ok {
			return false, ErrNotFound
		}
		rec, ok := partition[key]
		if !ok {
			return false, ErrNotFound
		}
		mutate(&rec)
		partition[key] = rec
		return true, nil
	})
}

// Delete removes the record under (workdir, key). It returns ErrNotFound when
// no such record exists.
func (s *Store) Delete(ctx context.Context, workdir, key string) error {
	return s.mutate(ctx, func(doc document) (bool, error) {
		partition, ok := doc[workdir]
		if !ok {
			return false, ErrNotFound
		}
		if _, ok := partition[key]; !ok {
			return false, ErrNotFound
		}
		delete(partition, key)
		if len(partition) == 0 {
			delete(doc, workdir)
		}
		return true, nil
	})
}

// QueryAll returns every record across every partition, ordered by partition
// and start time.
func (s *Store) QueryAll(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := s.read(ctx, func(doc document) {
		entries = flatten(doc, func(string) bool { return true })
	})
	return entries, err
}

// QueryScoped returns the records whose partition equals target, or sits
// beneath it when includeSubdirs is set. The descendant check respects path
// separators.
func (s *Store) QueryScoped(ctx context.Context, target string, includeSubdirs bool) ([]Entry, error) {
	var entries []Entry
	err := s.read(ctx, func(doc document) {
		entries = flatten(doc, func(workdir string) bool {
			if includeSubdirs {
				return scope.Within(target, workdir)
			}
			return scope.ScopeCurrent.Matches(target, workdir)
		})
	})
	return entries, err
}

// FindByPID locates the record for a pid across every partition.
func (s *Store) FindByPID(ctx context.Context, pid int) (Entry, error) {
	var (
		found Entry
		ok    bool
	)
	err := s.read(ctx, func(doc document) {
		for workdir, partition := range doc {
			for key, rec := range partition {
				if rec.PID == pid {
					found = Entry{Workdir: workdir, Key: key, Record: rec}
					ok = true
					return
				}
			}
		}
	})
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, ErrNotFound
	}
	return found, nil
}

// PrunePartition removes every record in the partition that matches, flushing
// once. It returns the removed entries.
func (s *Store) PrunePartition(ctx context.Context, workdir string, match func(Record) bool) ([]Entry, error) {
	var removed []Entry
	err := s.mutate(ctx, func(doc document) (bool, error) {
		partition, ok := doc[workdir]
		if !ok {
			return false, nil
		}
		for key, rec := range partition {
			if match(rec) {
				removed = append(removed, Entry{Workdir: workdir, Key: key, Record: rec})
				delete(partition, key)
			}
		}
		if len(partition) == 0 {
			delete(doc, workdir)
		}
		return len(removed) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	sortEntries(removed)
	return removed, nil
}

// PruneAll removes every record across all partitions that matches, flushing
// once. It returns the removed entries.
func (s *Store) PruneAll(ctx context.Context, match func(Entry) bool) ([]Entry, error) {
	var removed []Entry
	err := s.mutate(ctx, func(doc document) (bool, error) {
		for workdir, partition := range doc {
			for key, rec := range partition {
				entry := Entry{Workdir: workdir, Key: key, Record: rec}
				if match(entry) {
					removed = append(removed, entry)
					delete(partition, key)
				}
			}
			if len(partition) == 0 {
				delete(doc, workdir)
			}
		}
		return len(removed) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	sortEntries(removed)
	return removed, nil
}

func (s *Store) read(ctx context.Context, fn func(document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	release, err := s.acquire(ctx, false)
	if err != nil {
		return err
	}
	defer release()

	doc := s.load()
	fn(doc)
	return nil
}

// mutate runs a read-modify-write cycle under both the in-process mutex and
// the cross-process file lock, flushing synchronously when fn reports a
// change.
func (s *Store) mutate(ctx context.Context, fn func(document) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	release, err := s.acquire(ctx, true)
	if err != nil {
		return err
	}
	defer release()

	doc := s.load()
	changed, err := fn(doc)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.save(doc)
}

func (s *Store) acquire(ctx context.Context, write bool) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	var (
		ok  bool
		err error
	)
	if write {
		ok, err = s.fileLock.TryLockContext(lockCtx, lockRetryDelay)
	} else {
		ok, err = s.fileLock.TryRLockContext(lockCtx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("acquire registry lock: %w", err)
	}
	if !ok {
		return nil, errors.New("acquire registry lock: timed out")
	}
	return func() {
		if unlockErr := s.fileLock.Unlock(); unlockErr != nil {
			s.logger.Warn("failed to release registry lock", logging.Error(unlockErr))
		}
	}, nil
}

// load reads the persisted document. A missing file is an empty registry; an
// unreadable or corrupt one is logged and treated as empty so a damaged
// document never wedges every operation.
func (s *Store) load() document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.WarnWithContext(s.logger, "failed to read registry document", "registry_read_failed",
				logging.String("path", s.path),
				logging.Error(err))
		}
		return make(document)
	}
	if len(data) == 0 {
		return make(document)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		logging.WarnWithContext(s.logger, "registry document is corrupt, starting empty", "registry_corrupt",
			logging.String("path", s.path),
			logging.Error(err))
		return make(document)
	}
	if doc == nil {
		doc = make(document)
	}
	return doc
}

func (s *Store) save(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry document: %w", err)
	}
	if err := fileutil.WriteFileSync(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write registry document: %w", err)
	}
	return nil
}

func flatten(doc document, include func(workdir string) bool) []Entry {
	var entries []Entry
	for workdir, partition := range doc {
		if !include(workdir) {
			continue
		}
		for key, rec := range partition {
			entries = append(entries, Entry{Workdir: workdir, Key: key, Record: rec})
		}
	}
	sortEntries(entries)
	return entries
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Workdir != entries[j].Workdir {
			return entries[i].Workdir < entries[j].Workdir
		}
		if entries[i].Record.StartTime != entries[j].Record.StartTime {
			return entries[i].Record.StartTime < entries[j].Record.StartTime
		}
		return entries[i].Key < entries[j].Key
	})
}
