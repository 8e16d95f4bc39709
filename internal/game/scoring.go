package game

import "time"

// DefaultBasePoints is the score for an instantaneous correct answer.
const DefaultBasePoints = 1000

// Points computes the score for a correct answer from how much of the time
// limit was used. The factor decays linearly from 1.0 at t=0 down to a 0.1
// floor just under the limit, so any correct answer inside the window scores
// something. At or past the limit the answer is worth nothing. A negative
// elapsed time (clock or ordering anomaly) is treated as a late answer rather
// than letting a negative duration inflate the score.
func Points(start, answer time.Time, limit time.Duration, base int) int {
	elapsed := answer.Sub(start)
	if elapsed < 0 {
		elapsed = limit
	}
	if elapsed >= limit {
		return 0
	}
	factor := 1.0 - elapsed.Seconds()/limit.Seconds()
	if factor < 0.1 {
		factor = 0.1
	}
	return int(float64(base) * factor)
}
