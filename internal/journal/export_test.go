package journal

import "time"

// SetNow replaces the clock of s.
func SetNow(s *Store, now func() time.Time) {
	s.now = now
}
