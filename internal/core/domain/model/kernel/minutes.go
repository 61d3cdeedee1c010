package kernel

import "time"

// MinutesBetween returns whole minutes from from to to, truncated toward zero.
func MinutesBetween(from, to time.Time) int {
	return int(to.Sub(from) / time.Minute)
}
