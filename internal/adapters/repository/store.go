// Package repository holds the climber leaderboard built from the latest
// engine run.
package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank    int
	Climber string
	Team    string
	Score   decimal.Decimal
}

// Store provides read/write access to the ranking state.
type Store interface {
	// Set records a climber's combined score, replacing any previous value.
	Set(ctx context.Context, climber, team string, score decimal.Decimal) error

	// Replace swaps the whole board for entries. Rank fields are ignored.
	Replace(ctx context.Context, entries []Entry) error

	// Rank returns the current rank and score for a climber.
	// Returns ErrNotFound if the climber is unknown.
	Rank(ctx context.Context, climber string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc, then name asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of climbers on the board.
	Count(ctx context.Context) int
}
