package auth

import "time"

// SetClock replaces the time source used for issuing and validating tokens.
func (s *Sessions) SetClock(now func() time.Time) {
	s.now = now
}
