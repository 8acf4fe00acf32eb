package baselooper

import "time"

// now returns the current wall-clock time. It exists as a single choke
// point so tests can substitute a fake clock without reaching into
// package internals via reflection.
var now = time.Now

// nowMicros returns microseconds since the Unix epoch, matching the
// resolution of the original's GetNowUs().
func nowMicros() int64 {
	return now().UnixMicro()
}

// Now returns the current wall-clock time, the Go equivalent of the
// original's static Looper::GetNow(). It is package-level rather than a
// method, since the original needs no Looper instance to call it.
func Now() time.Time {
	return now()
}

// NowMicros returns microseconds since the Unix epoch, the Go equivalent
// of the original's static Looper::GetNowUs().
func NowMicros() int64 {
	return nowMicros()
}
