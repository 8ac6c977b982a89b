package repository

const defaultMaxListLimit = 100

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithMaxListLimit caps List.
func WithMaxListLimit(n int) Option {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}
