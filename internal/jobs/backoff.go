package jobs

import "time"

var retrySchedule = []time.Duration{
	5 * time.Minute,
	15 * time.Minute,
	45 * time.Minute,
	2 * time.Hour,
	6 * time.Hour,
}

const maxRetryDelay = 7 * 24 * time.Hour

// RetryDelay is the wait before retry number attempt (1-based). Past the
// table the last delay doubles per attempt, capped at seven days.
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt <= len(retrySchedule) {
		return retrySchedule[attempt-1]
	}
	d := retrySchedule[len(retrySchedule)-1]
	for i := len(retrySchedule); i < attempt; i++ {
		d *= 2
		if d >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return d
}
