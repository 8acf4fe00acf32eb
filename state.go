package baselooper

import "sync/atomic"

// LooperState represents the current lifecycle state of a [Looper].
//
// State Machine:
//
//	StateIdle -> StateRunningLocally     [Start(runOnCallingThread=true)]
//	StateIdle -> StateRunningWithWorker  [Start(runOnCallingThread=false)]
//	StateRunningLocally -> StateIdle     [Stop()]
//	StateRunningWithWorker -> StateIdle  [Stop()]
//
// Stop returns the Looper to StateIdle, not a separate terminal state: the
// original's stop() resets mThread to NULL and mRunningLocally to false,
// exactly the precondition start() checks, so a Looper is restartable after
// being stopped. A fresh worker is created the next time Start spawns one.
type LooperState uint64

const (
	// StateIdle indicates the Looper is not currently dispatching: either
	// it has never been started, or Stop has completed.
	StateIdle LooperState = 0
	// StateRunningLocally indicates loop() is being driven by a caller's
	// own goroutine via Start(true), rather than a dedicated worker.
	StateRunningLocally LooperState = 1
	// StateRunningWithWorker indicates a dedicated worker goroutine is
	// running loop().
	StateRunningWithWorker LooperState = 2
)

// String returns a human-readable representation of the state.
func (s LooperState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunningLocally:
		return "RunningLocally"
	case StateRunningWithWorker:
		return "RunningWithWorker"
	default:
		return "Unknown"
	}
}

// FastState is a lock-free state machine over [LooperState], backed by a
// single atomic word so Load/TryTransition never block.
type FastState struct {
	v atomic.Uint64
}

// NewFastState creates a new state machine in [StateIdle].
func NewFastState() *FastState {
	s := &FastState{}
	s.v.Store(uint64(StateIdle))
	return s
}

// Load returns the current state atomically.
func (s *FastState) Load() LooperState {
	return LooperState(s.v.Load())
}

// TryTransition attempts to atomically transition from one state to
// another, returning true if it succeeded.
func (s *FastState) TryTransition(from, to LooperState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// IsRunning returns true if the Looper is actively dispatching, whether
// locally or via a dedicated worker.
func (s *FastState) IsRunning() bool {
	switch s.Load() {
	case StateRunningLocally, StateRunningWithWorker:
		return true
	default:
		return false
	}
}
