package baselooper

import (
	"runtime"
	"sync"
)

// worker is a generic worker goroutine primitive: newWorker takes a
// threadLoop function that returns true to be called again, or false to
// stop (an exit request also stops it). It is the Go analog of the
// original's BaseThread: at most one dedicated goroutine at a time, with
// a self-deadlock guard on join from its own goroutine. Looper creates a
// fresh worker for every Start.
type worker struct {
	mu           sync.Mutex
	cond         *sync.Cond
	running      bool
	exitPending  bool
	goroutineID  uint64
	threadLoop   func() bool
	readyToRun   func()
}

func newWorker(threadLoop func() bool, readyToRun func()) *worker {
	w := &worker{threadLoop: threadLoop, readyToRun: readyToRun}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// run starts the worker goroutine. Returns [ErrInvalidOperation] if
// already running.
func (w *worker) run() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrInvalidOperation
	}
	w.running = true
	w.exitPending = false
	w.mu.Unlock()

	ready := make(chan uint64, 1)
	go w.loop(ready)
	<-ready

	return nil
}

func (w *worker) loop(ready chan<- uint64) {
	w.mu.Lock()
	w.goroutineID = getGoroutineID()
	w.mu.Unlock()
	ready <- w.goroutineID

	if w.readyToRun != nil {
		w.readyToRun()
	}

	for {
		w.mu.Lock()
		exit := w.exitPending
		w.mu.Unlock()
		if exit {
			break
		}
		if !w.threadLoop() {
			break
		}
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	w.cond.Broadcast()
}

// requestExit asynchronously asks the worker to stop; it does not wait.
func (w *worker) requestExit() {
	w.mu.Lock()
	w.exitPending = true
	w.mu.Unlock()
}

// requestExitAndWait asks the worker to stop and blocks until it has.
// Returns [ErrWouldBlock] if called from the worker's own goroutine.
func (w *worker) requestExitAndWait() error {
	w.requestExit()
	return w.join()
}

// join blocks until the worker exits. Returns immediately if it is not
// running. Returns [ErrWouldBlock] if called from the worker's own
// goroutine.
func (w *worker) join() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running && w.goroutineID == getGoroutineID() {
		return ErrWouldBlock
	}
	for w.running {
		w.cond.Wait()
	}
	return nil
}

// isRunning reports whether the worker goroutine is currently active.
func (w *worker) isRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// isCurrentGoroutine reports whether the calling goroutine is this
// worker's own goroutine, used by Looper.Stop's self-deadlock guard.
func (w *worker) isCurrentGoroutine() bool {
	w.mu.Lock()
	id := w.goroutineID
	running := w.running
	w.mu.Unlock()
	return running && id == getGoroutineID()
}

// getGoroutineID parses the current goroutine's id out of a runtime
// stack trace header. There is no supported API for this; it is used
// only for the self-deadlock guard, never for scheduling decisions.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
