package baselooper

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joeycumines/logiface"
)

// loopEvent is one pending (time, message) pair in a Looper's queue.
type loopEvent struct {
	when time.Time
	msg  *Message
}

// Looper is a delay-ordered, single-consumer message queue bound to
// either the calling goroutine (Start(true)) or a dedicated worker
// goroutine (Start(false)). Handlers are registered against a Looper
// indirectly, through a [Roster].
type Looper struct {
	mu     sync.Mutex
	cond   *sync.Cond
	name   string
	queue  []loopEvent
	state  *FastState
	worker *worker
	roster *Roster

	logger  *logiface.Logger[logiface.Event]
	metrics *looperMetrics
}

// NewLooper constructs an idle Looper. Call Start to begin dispatching.
func NewLooper(opts ...LooperOption) *Looper {
	cfg := resolveLooperOptions(opts)
	name := cfg.name
	if name == "" {
		name = "looper-" + uuid.NewString()[:8]
	}
	l := &Looper{
		name:    name,
		state:   NewFastState(),
		logger:  logOrNop(cfg.logger),
		metrics: newLooperMetrics(cfg.metricsWindow),
	}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Name returns the Looper's configured or generated name.
func (l *Looper) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.name
}

// SetName renames the Looper. It is advisory only, used for logging and
// diagnostics, and has no effect on dispatch behavior. Safe to call at
// any point in the Looper's lifecycle, matching the original's
// setName(const std::string&).
func (l *Looper) SetName(name string) {
	l.mu.Lock()
	l.name = name
	l.mu.Unlock()
}

// UnregisterHandler removes the Handler identified by id from this
// Looper's bound Roster, delegating to [Roster.UnregisterHandler]. It is
// a no-op if no Roster has been bound yet or id is not registered,
// matching the original's unregisterHandler(handler_id), which delegates
// to LooperRoster::getInstance().
func (l *Looper) UnregisterHandler(id HandlerId) {
	l.mu.Lock()
	r := l.roster
	l.mu.Unlock()
	if r != nil {
		r.UnregisterHandler(id)
	}
}

// Metrics returns a point-in-time snapshot of dispatch counters.
func (l *Looper) Metrics() LooperMetrics {
	snap := l.metrics.snapshot()
	l.mu.Lock()
	snap.QueueDepth = len(l.queue)
	l.mu.Unlock()
	return snap
}

// Start begins dispatching. If runOnCallingThread is true, Start blocks
// the calling goroutine and drives the loop directly, returning only
// after Stop is called (matching the original's "runOnCallingThread"
// mode); otherwise a dedicated worker goroutine is spawned and Start
// returns immediately.
//
// Returns [ErrInvalidOperation] if runOnCallingThread is true and the
// Looper is already running (either mode). Returns [ErrAlreadyOperated]
// if runOnCallingThread is false and a dedicated worker is already
// running.
func (l *Looper) Start(runOnCallingThread bool) error {
	if runOnCallingThread {
		if !l.state.TryTransition(StateIdle, StateRunningLocally) {
			return ErrInvalidOperation
		}
		l.logger.Debug().Str("looper", l.name).Log("running locally")
		for l.loopOnce() {
		}
		return nil
	}

	if !l.state.TryTransition(StateIdle, StateRunningWithWorker) {
		return ErrAlreadyOperated
	}

	l.worker = newWorker(l.loopOnce, nil)
	if err := l.worker.run(); err != nil {
		// Roll back: no other transition can have raced us here since
		// only Start can move out of StateIdle.
		l.state.TryTransition(StateRunningWithWorker, StateIdle)
		return err
	}
	l.logger.Debug().Str("looper", l.name).Log("started worker")
	return nil
}

// Stop asks the Looper to stop dispatching and, unless called from the
// Looper's own dispatch goroutine, waits for it to fully exit. It then
// returns the Looper to [StateIdle], mirroring the original's stop(),
// which resets mThread to NULL and mRunningLocally to false — exactly the
// precondition start() checks. A stopped Looper is therefore restartable:
// a subsequent Start spawns a fresh worker (if applicable) and resumes
// dispatching from an empty queue (pending events are dropped, not
// drained).
//
// Returns [ErrInvalidOperation] if the Looper is not running. If called
// from the Looper's own worker goroutine (e.g. from within a Handler
// callback) Stop still stops the Looper but does not wait on itself: it
// returns [ErrWouldBlock] immediately, and loopOnce simply won't be
// invoked again.
func (l *Looper) Stop() error {
	l.mu.Lock()
	state := l.state.Load()
	w := l.worker
	l.mu.Unlock()

	return l.stopImpl(state, w)
}

func (l *Looper) stopImpl(state LooperState, w *worker) error {
	switch state {
	case StateIdle:
		return ErrInvalidOperation
	case StateRunningLocally:
		if !l.state.TryTransition(StateRunningLocally, StateIdle) {
			return ErrInvalidOperation
		}
		l.mu.Lock()
		l.queue = nil
		l.mu.Unlock()
		l.cond.Broadcast()
		return nil
	case StateRunningWithWorker:
		if w == nil {
			return ErrInvalidOperation
		}
		l.mu.Lock()
		if l.worker == w {
			l.worker = nil
		}
		l.queue = nil
		l.mu.Unlock()
		if w.isCurrentGoroutine() {
			// Request exit and wake the queue, but do not wait on
			// ourselves. loop() returning false ends it.
			l.state.TryTransition(StateRunningWithWorker, StateIdle)
			w.requestExit()
			l.cond.Broadcast()
			return ErrWouldBlock
		}
		l.state.TryTransition(StateRunningWithWorker, StateIdle)
		w.requestExit()
		l.cond.Broadcast()
		return w.requestExitAndWait()
	default:
		return ErrUnknown
	}
}

// post inserts msg into the delay-ordered queue. Equal-timestamp entries
// are appended after existing ones, preserving FIFO order among ties,
// matching the original's linear insertion algorithm exactly.
func (l *Looper) post(msg *Message, delay time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var when time.Time
	if delay > 0 {
		when = now().Add(delay)
	} else {
		when = now()
	}

	idx := 0
	for idx < len(l.queue) && !l.queue[idx].when.After(when) {
		idx++
	}

	l.queue = append(l.queue, loopEvent{})
	copy(l.queue[idx+1:], l.queue[idx:])
	l.queue[idx] = loopEvent{when: when, msg: msg}

	if idx == 0 {
		l.cond.Broadcast()
	}
}

// cancel removes the first queued event referencing msg, by identity.
func (l *Looper) cancel(msg *Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, ev := range l.queue {
		if ev.msg == msg {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			return nil
		}
	}
	return ErrNameNotFound
}

// loopOnce executes one step of the dispatch algorithm: wait for the
// queue to be non-empty and its head due, then deliver exactly one
// message. Returns false once the Looper has been stopped.
func (l *Looper) loopOnce() bool {
	l.mu.Lock()
	if !l.state.IsRunning() {
		l.mu.Unlock()
		return false
	}
	if len(l.queue) == 0 {
		l.cond.Wait()
		l.mu.Unlock()
		return true
	}

	when := l.queue[0].when
	nowT := now()
	if when.After(nowT) {
		l.waitUntil(when)
		l.mu.Unlock()
		return true
	}

	ev := l.queue[0]
	l.queue = l.queue[1:]
	l.mu.Unlock()

	start := now()
	if l.roster != nil {
		l.roster.deliverMessage(ev.msg)
	}
	l.metrics.recordDispatch(now().Sub(start))

	// NOTE: at this point the Looper may have been stopped (and, in
	// garbage-collected terms, become unreachable from anywhere but this
	// goroutine's own stack) as a side effect of delivering the message.
	// loop won't be invoked again once Stop has run, so this is safe.
	return true
}

// waitUntil blocks on cond until delay elapses or the queue changes.
// l.mu must be held on entry; cond.Wait releases and reacquires it.
func (l *Looper) waitUntil(when time.Time) {
	delay := when.Sub(now())
	timer := time.AfterFunc(delay, func() {
		l.mu.Lock()
		l.cond.Broadcast()
		l.mu.Unlock()
	})
	defer timer.Stop()

	l.cond.Wait()
}

// bindRoster associates this Looper with the Roster through which its
// Handlers are registered. A Looper may only ever be bound to one
// Roster; a second, different Roster is a programming error.
func (l *Looper) bindRoster(r *Roster) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.roster != nil && l.roster != r {
		return ErrInvalidOperation
	}
	l.roster = r
	return nil
}
