package baselooper

import "github.com/joeycumines/logiface"

// nopLogger returns an empty, safe-to-call logger used whenever a
// component is constructed without an explicit WithLooperLogger/
// WithRosterLogger option, so call sites never need a nil check.
func nopLogger() *logiface.Logger[logiface.Event] {
	return logiface.New[logiface.Event]()
}

// logOrNop returns l if non-nil, otherwise a silent logger.
func logOrNop(l *logiface.Logger[logiface.Event]) *logiface.Logger[logiface.Event] {
	if l != nil {
		return l
	}
	return nopLogger()
}
