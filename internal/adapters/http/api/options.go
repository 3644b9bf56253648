package api

const (
	defaultMaxLimit         = 100
	defaultMaxSnapshotBytes = 8 << 20
	defaultHeroes           = 10
)

// Option configures a Server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps the limit accepted by GET /leaderboard.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithMaxSnapshotBytes caps the POST /snapshots body.
func WithMaxSnapshotBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxSnapshotBytes = n
		}
	}
}

// WithHeroes sets how many top attackers a castle view lists.
func WithHeroes(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.heroes = n
		}
	}
}
