// Package dedupe collapses record sets to one entry per key and tracks
// snapshot submissions that were already accepted.
package dedupe

import (
	"time"

	"github.com/oledu/pyramidgo/internal/domain/model"
)

// Latest keeps one record per key: the one whose date is strictly latest.
// Ties keep the first occurrence. Zero dates are older than any real date.
// Output follows the order in which keys first appear; records is not
// modified.
func Latest[T any](records []T, key func(T) string, date func(T) time.Time) []T {
	index := make(map[string]int, len(records))
	out := make([]T, 0, len(records))
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, r)
			continue
		}
		if date(r).After(date(out[i])) {
			out[i] = r
		}
	}
	return out
}

// LatestCastles dedups castle snapshots by castle id. OriginalHP is the HP
// of the first record seen for that id and never changes afterwards.
func LatestCastles(records []model.CastleRecord) []model.CastleSnapshot {
	original := make(map[string]int, len(records))
	for _, r := range records {
		if _, ok := original[r.Castle]; !ok {
			original[r.Castle] = r.HP
		}
	}

	latest := Latest(records,
		func(r model.CastleRecord) string { return r.Castle },
		func(r model.CastleRecord) time.Time { return r.Start },
	)

	out := make([]model.CastleSnapshot, len(latest))
	for i, r := range latest {
		out[i] = model.CastleSnapshot{CastleRecord: r, OriginalHP: original[r.Castle]}
	}
	return out
}

// HomeGymKey identifies one climber's participation at one home gym.
func HomeGymKey(climber, gym string) string {
	return climber + "-" + gym
}

// LatestHomeGyms dedups castle participation by (climber, home gym),
// keeping the entry with the latest start date.
func LatestHomeGyms(records []model.CastleParticipant) []model.CastleParticipant {
	return Latest(records,
		func(p model.CastleParticipant) string { return HomeGymKey(p.Climber, p.HomeGym) },
		func(p model.CastleParticipant) time.Time { return p.Start },
	)
}
