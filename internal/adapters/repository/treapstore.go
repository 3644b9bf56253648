package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oledu/pyramidgo/pkg/metrics"
)

// In-order traversal of the treap yields the board from best to worst.
// Subtree sizes give Rank in O(log n).

// scoreScale is the number of decimal places kept in the fixed-point key.
const scoreScale = 4

// key orders the board: higher fixed-point score first, then climber name.
type key struct {
	score   int64
	climber string
}

func keyOf(climber string, score decimal.Decimal) key {
	return key{score: score.Shift(scoreScale).Round(0).IntPart(), climber: climber}
}

// ahead reports whether k ranks before o.
func (k key) ahead(o key) bool {
	if k.score != o.score {
		return k.score > o.score
	}
	return k.climber < o.climber
}

type record struct {
	team  string
	score decimal.Decimal
	k     key
}

type node struct {
	k           key
	prio        uint64
	size        int
	left, right *node
}

func sizeOf(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func (n *node) resize() {
	n.size = 1 + sizeOf(n.left) + sizeOf(n.right)
}

// liftLeft promotes n.left to the subtree root.
func liftLeft(n *node) *node {
	l := n.left
	n.left, l.right = l.right, n
	n.resize()
	l.resize()
	return l
}

// liftRight promotes n.right to the subtree root.
func liftRight(n *node) *node {
	r := n.right
	n.right, r.left = r.left, n
	n.resize()
	r.resize()
	return r
}

// weight hashes the climber name so the tree shape is reproducible.
func weight(climber string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(climber))
	return h.Sum64()
}

func put(n *node, k key) *node {
	if n == nil {
		return &node{k: k, prio: weight(k.climber), size: 1}
	}
	if k.ahead(n.k) {
		n.left = put(n.left, k)
		if n.left.prio > n.prio {
			return liftLeft(n)
		}
	} else {
		n.right = put(n.right, k)
		if n.right.prio > n.prio {
			return liftRight(n)
		}
	}
	n.resize()
	return n
}

func drop(n *node, k key) *node {
	if n == nil {
		return nil
	}
	if n.k == k {
		switch {
		case n.left == nil:
			return n.right
		case n.right == nil:
			return n.left
		case n.left.prio > n.right.prio:
			n = liftLeft(n)
			n.right = drop(n.right, k)
		default:
			n = liftRight(n)
			n.left = drop(n.left, k)
		}
	} else if k.ahead(n.k) {
		n.left = drop(n.left, k)
	} else {
		n.right = drop(n.right, k)
	}
	n.resize()
	return n
}

// aheadOf counts the climbers ranked before k.
func aheadOf(n *node, k key) int {
	count := 0
	for n != nil {
		if n.k.ahead(k) {
			count += sizeOf(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// walk appends entries in board order until limit is reached.
func walk(n *node, limit int, records map[string]record, out []Entry) []Entry {
	if n == nil || len(out) >= limit {
		return out
	}
	out = walk(n.left, limit, records, out)
	if len(out) >= limit {
		return out
	}
	rec := records[n.k.climber]
	out = append(out, Entry{Rank: len(out) + 1, Climber: n.k.climber, Team: rec.team, Score: rec.score})
	return walk(n.right, limit, records, out)
}

// TreapStore is a concurrency-safe ordered leaderboard.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]record
}

// NewTreapStore constructs an empty store.
func NewTreapStore() *TreapStore {
	metrics.UpdateLeaderboardSize(0)
	return &TreapStore{byID: make(map[string]record)}
}

// Set implements Store.Set with O(log n) expected time.
func (s *TreapStore) Set(_ context.Context, climber, team string, score decimal.Decimal) error {
	k := keyOf(climber, score)

	s.mu.Lock()
	if old, ok := s.byID[climber]; ok {
		s.root = drop(s.root, old.k)
	}
	s.byID[climber] = record{team: team, score: score, k: k}
	s.root = put(s.root, k)
	n := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateLeaderboardSize(n)
	return nil
}

// Replace builds a fresh tree off-lock and swaps it in.
func (s *TreapStore) Replace(_ context.Context, entries []Entry) error {
	var root *node
	byID := make(map[string]record, len(entries))
	for _, e := range entries {
		k := keyOf(e.Climber, e.Score)
		if old, ok := byID[e.Climber]; ok {
			root = drop(root, old.k)
		}
		byID[e.Climber] = record{team: e.Team, score: e.Score, k: k}
		root = put(root, k)
	}

	s.mu.Lock()
	s.root, s.byID = root, byID
	s.mu.Unlock()

	metrics.UpdateLeaderboardSize(len(byID))
	return nil
}

// Rank returns the current rank and score for a climber in O(log n).
func (s *TreapStore) Rank(_ context.Context, climber string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLeaderboardQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[climber]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return Entry{
		Rank:    aheadOf(s.root, rec.k) + 1,
		Climber: climber,
		Team:    rec.team,
		Score:   rec.score,
	}, nil
}

// TopN returns the top N entries.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLeaderboardQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return walk(s.root, n, s.byID, make([]Entry, 0, min(n, len(s.byID)))), nil
}

// Count returns the number of climbers.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
