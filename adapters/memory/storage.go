package memory

import (
	"context"
	"sync"
	"time"

	"gamegen/core"
)

// Store is a concurrent in-memory sorted-set and string store. It backs
// local development and tests when no Redis is configured.
type Store struct {
	sets sync.Map // map[string]*skipList

	mu      sync.Mutex
	strings map[string]stringValue
	now     func() time.Time
}

type stringValue struct {
	value   string
	expires time.Time
}

func New() *Store {
	return &Store{strings: map[string]stringValue{}, now: time.Now}
}

func (s *Store) getOrCreate(key string) *skipList {
	if v, ok := s.sets.Load(key); ok {
		return v.(*skipList)
	}
	actual, _ := s.sets.LoadOrStore(key, newSkipList())
	return actual.(*skipList)
}

func (s *Store) ZAdd(_ context.Context, key, member string, score float64) error {
	s.getOrCreate(key).Upsert(member, score)
	return nil
}

// ZRevRangeWithScores returns [name, score] tuples.
func (s *Store) ZRevRangeWithScores(_ context.Context, key string, start, stop int64) (any, error) {
	v, ok := s.sets.Load(key)
	if !ok {
		return [][2]any{}, nil
	}
	members := v.(*skipList).Range(start, stop)
	out := make([][2]any, 0, len(members))
	for _, m := range members {
		out = append(out, [2]any{m.Name, m.Score})
	}
	return out, nil
}

// ZScore returns a member's score.
func (s *Store) ZScore(_ context.Context, key, member string) (float64, bool) {
	v, ok := s.sets.Load(key)
	if !ok {
		return 0, false
	}
	return v.(*skipList).Get(member)
}

func (s *Store) SetString(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv := stringValue{value: value}
	if ttl > 0 {
		sv.expires = s.now().Add(ttl)
	}
	s.strings[key] = sv
	return nil
}

func (s *Store) GetString(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.strings[key]
	if !ok {
		return "", core.ErrKeyNotFound
	}
	if !sv.expires.IsZero() && !s.now().Before(sv.expires) {
		delete(s.strings, key)
		return "", core.ErrKeyNotFound
	}
	return sv.value, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
