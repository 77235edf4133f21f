package ledger

import "time"

// DateOnly truncates t to its calendar day in UTC. Periods and entry dates
// are compared day by day, so every date entering the ledger goes through it.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
