package jsonfile

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"gamegen/core"
)

// Store persists leaderboards and cached pages to a single JSON file.
// Suitable for demos and single-instance deployments.
type Store struct {
	path string
	mu   sync.Mutex
	// in-memory cache for speed
	data fileData
	now  func() time.Time
}

type fileData struct {
	Sets    map[string]map[string]float64 `json:"sets"`
	Strings map[string]stringValue        `json:"strings"`
}

type stringValue struct {
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

func New(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: fileData{Sets: map[string]map[string]float64{}, Strings: map[string]stringValue{}},
		now:  time.Now,
	}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var raw fileData
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw.Sets {
		s.data.Sets[k] = v
	}
	for k, v := range raw.Strings {
		s.data.Strings[k] = v
	}
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) ZAdd(_ context.Context, key, member string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.data.Sets[key]
	if !ok {
		set = map[string]float64{}
		s.data.Sets[key] = set
	}
	set[member] = score
	return s.persist()
}

// ZRevRangeWithScores returns one {"member", "score"} map per rank.
func (s *Store) ZRevRangeWithScores(_ context.Context, key string, start, stop int64) (any, error) {
	s.mu.Lock()
	type pair struct {
		member string
		score  float64
	}
	pairs := make([]pair, 0, len(s.data.Sets[key]))
	for m, sc := range s.data.Sets[key] {
		pairs = append(pairs, pair{m, sc})
	}
	s.mu.Unlock()

	slices.SortFunc(pairs, func(a, b pair) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(b.member, a.member)
	})

	n := int64(len(pairs))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	start = max(start, 0)
	stop = min(stop, n-1)
	out := []map[string]any{}
	for i := start; i <= stop; i++ {
		out = append(out, map[string]any{"member": pairs[i].member, "score": pairs[i].score})
	}
	return out, nil
}

func (s *Store) SetString(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv := stringValue{Value: value}
	if ttl > 0 {
		sv.Expires = s.now().Add(ttl).UTC()
	}
	s.data.Strings[key] = sv
	return s.persist()
}

func (s *Store) GetString(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.data.Strings[key]
	if !ok {
		return "", core.ErrKeyNotFound
	}
	if !sv.Expires.IsZero() && !s.now().Before(sv.Expires) {
		delete(s.data.Strings, key)
		_ = s.persist()
		return "", core.ErrKeyNotFound
	}
	return sv.Value, nil
}

func (s *Store) Ping(context.Context) error {
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) Close() error { return nil }
