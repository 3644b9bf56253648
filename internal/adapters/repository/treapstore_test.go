package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	if err := store.Set(ctx, "pat", "Crimpers", dec("530")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	entry, err := store.Rank(ctx, "pat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 || entry.Team != "Crimpers" || entry.Score.String() != "530" {
		t.Errorf("unexpected entry %+v", entry)
	}

	if _, err := store.Rank(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestTreapStore_OrderingAndTies(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	for name, score := range map[string]string{
		"amy": "128.7",
		"bo":  "530",
		"cy":  "128.7",
		"dee": "59",
	} {
		if err := store.Set(ctx, name, "", dec(score)); err != nil {
			t.Fatal(err)
		}
	}

	top, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"bo", "amy", "cy", "dee"}
	if len(top) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(top))
	}
	for i, e := range top {
		if e.Climber != want[i] || e.Rank != i+1 {
			t.Errorf("position %d: got %s rank %d, want %s rank %d", i, e.Climber, e.Rank, want[i], i+1)
		}
		r, err := store.Rank(ctx, e.Climber)
		if err != nil || r.Rank != e.Rank {
			t.Errorf("Rank(%s) = %d, %v; TopN rank %d", e.Climber, r.Rank, err, e.Rank)
		}
	}

	// Lowering a score moves the climber down.
	if err := store.Set(ctx, "bo", "", dec("10")); err != nil {
		t.Fatal(err)
	}
	if r, _ := store.Rank(ctx, "bo"); r.Rank != 4 {
		t.Errorf("expected bo at rank 4, got %d", r.Rank)
	}
	if store.Count(ctx) != 4 {
		t.Errorf("expected 4 climbers after update, got %d", store.Count(ctx))
	}
}

func TestTreapStore_Replace(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()
	_ = store.Set(ctx, "stale", "", dec("1000"))

	err := store.Replace(ctx, []Entry{
		{Climber: "pat", Team: "Crimpers", Score: dec("530")},
		{Climber: "sam", Team: "Crimpers", Score: dec("0")},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Rank(ctx, "stale"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected previous board to be dropped, got %v", err)
	}
	top, _ := store.TopN(ctx, 1)
	if len(top) != 1 || top[0].Climber != "pat" {
		t.Errorf("unexpected top entry %+v", top)
	}
}

func TestTreapStore_MatchesSortedOrder(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()
	rng := rand.New(rand.NewSource(7))

	type row struct {
		name  string
		score decimal.Decimal
	}
	var rows []row
	for i := 0; i < 500; i++ {
		r := row{name: fmt.Sprintf("c%03d", i), score: decimal.NewFromInt(int64(rng.Intn(50))).Div(decimal.NewFromInt(10))}
		rows = append(rows, r)
		_ = store.Set(ctx, r.name, "", r.score)
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].score.Cmp(rows[j].score); c != 0 {
			return c > 0
		}
		return rows[i].name < rows[j].name
	})

	top, _ := store.TopN(ctx, len(rows))
	for i := range rows {
		if top[i].Climber != rows[i].name {
			t.Fatalf("position %d: got %s, want %s", i, top[i].Climber, rows[i].name)
		}
	}
	for _, i := range []int{0, 17, 250, 499} {
		r, _ := store.Rank(ctx, rows[i].name)
		if r.Rank != i+1 {
			t.Errorf("Rank(%s) = %d, want %d", rows[i].name, r.Rank, i+1)
		}
	}
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				name := fmt.Sprintf("g%d-%d", g, i%10)
				_ = store.Set(ctx, name, "", decimal.NewFromInt(int64(i)))
				_, _ = store.TopN(ctx, 5)
				_, _ = store.Rank(ctx, name)
			}
		}(g)
	}
	wg.Wait()

	if n := store.Count(ctx); n != 80 {
		t.Errorf("expected 80 climbers, got %d", n)
	}
}

func BenchmarkTreapStore_Rank(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore()
	for i := 0; i < 10000; i++ {
		_ = store.Set(ctx, fmt.Sprintf("c%05d", i), "", decimal.NewFromInt(int64(i%997)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Rank(ctx, fmt.Sprintf("c%05d", i%10000))
	}
}
