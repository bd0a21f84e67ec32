//go:build !windows

package truthtable

import "time"

var hiresEpoch = time.Now()

// hiresNow returns a high-resolution monotonic timestamp in nanoseconds.
func hiresNow() int64 {
	return time.Since(hiresEpoch).Nanoseconds()
}

// hiresSince returns the time elapsed since start.
func hiresSince(start int64) time.Duration {
	return time.Duration(hiresNow() - start)
}
