package memory

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// A skip list ordered by (score desc, member desc) to achieve O(log n)
// upserts. Equal scores fall back to reverse member order, which is what
// Redis ZREVRANGE returns.

const maxLevel = 16
const pFactor = 0.25

type member struct {
	Name  string
	Score float64
}

type node struct {
	m    member
	next [maxLevel]*node
}

type skipList struct {
	mu       sync.RWMutex
	head     *node
	lvl      int
	byMember map[string]*node
	rng      *rand.Rand
}

func newSkipList() *skipList {
	// Use crypto/rand to generate a secure seed for PCG
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		seed = [16]byte{}
	}
	seed1 := binary.BigEndian.Uint64(seed[:8])
	seed2 := binary.BigEndian.Uint64(seed[8:])

	return &skipList{
		head:     &node{},
		lvl:      1,
		byMember: map[string]*node{},
		rng:      rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (s *skipList) randomLevel() int {
	lvl := 1
	for lvl < maxLevel && s.rng.Float64() < pFactor {
		lvl++
	}
	return lvl
}

func less(a, b member) bool {
	if a.Score == b.Score {
		return a.Name > b.Name
	}
	return a.Score > b.Score // higher score first
}

// Upsert inserts name or moves it to its new score.
func (s *skipList) Upsert(name string, score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byMember[name]; ok {
		if old.m.Score == score {
			return
		}
		s.removeLocked(old.m)
	}
	m := member{Name: name, Score: score}
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && less(cur.next[i].m, m) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	lvl := s.randomLevel()
	if lvl > s.lvl {
		for i := s.lvl; i < lvl; i++ {
			update[i] = s.head
		}
		s.lvl = lvl
	}
	n := &node{m: m}
	for i := 0; i < lvl; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
	}
	s.byMember[name] = n
}

func (s *skipList) removeLocked(m member) {
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && less(cur.next[i].m, m) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	target := update[0].next[0]
	if target == nil || target.m.Name != m.Name {
		return
	}
	for i := 0; i < s.lvl; i++ {
		if update[i].next[i] == target {
			update[i].next[i] = target.next[i]
		}
	}
	delete(s.byMember, m.Name)
	for s.lvl > 1 && s.head.next[s.lvl-1] == nil {
		s.lvl--
	}
}

func (s *skipList) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byMember)
}

// Range returns ranks start..stop inclusive. Negative indexes count from the
// end, as in Redis.
func (s *skipList) Range(start, stop int64) []member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := int64(len(s.byMember))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return nil
	}
	out := make([]member, 0, stop-start+1)
	cur := s.head.next[0]
	for i := int64(0); cur != nil && i <= stop; i++ {
		if i >= start {
			out = append(out, cur.m)
		}
		cur = cur.next[0]
	}
	return out
}

func (s *skipList) Get(name string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.byMember[name]; ok {
		return n.m.Score, true
	}
	return 0, false
}
