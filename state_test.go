package baselooper

import "testing"

func TestFastStateTryTransition(t *testing.T) {
	s := NewFastState()
	if s.Load() != StateIdle {
		t.Fatalf("initial state = %v, want Idle", s.Load())
	}
	if !s.TryTransition(StateIdle, StateRunningWithWorker) {
		t.Fatal("expected transition Idle -> RunningWithWorker to succeed")
	}
	if s.TryTransition(StateIdle, StateRunningWithWorker) {
		t.Fatal("expected second transition from Idle to fail, already moved on")
	}
	if !s.IsRunning() {
		t.Fatal("expected IsRunning() after RunningWithWorker transition")
	}
	if !s.TryTransition(StateRunningWithWorker, StateIdle) {
		t.Fatal("expected transition RunningWithWorker -> Idle to succeed")
	}
	if s.IsRunning() {
		t.Fatal("expected !IsRunning() after transitioning back to Idle")
	}
	if !s.TryTransition(StateIdle, StateRunningWithWorker) {
		t.Fatal("expected a Looper to be restartable after returning to Idle")
	}
}

func TestLooperStateString(t *testing.T) {
	cases := map[LooperState]string{
		StateIdle:             "Idle",
		StateRunningLocally:    "RunningLocally",
		StateRunningWithWorker: "RunningWithWorker",
		LooperState(99):        "Unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}
