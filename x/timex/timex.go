package timex

import "time"

// SinceMs returns whole milliseconds elapsed since start.
func SinceMs(start time.Time) uint64 {
	return uint64(time.Since(start) / time.Millisecond)
}

// SinceUs returns whole microseconds elapsed since start.
func SinceUs(start time.Time) uint64 {
	return uint64(time.Since(start) / time.Microsecond)
}
