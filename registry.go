package baselooper

import (
	"context"
	"fmt"
	"sync"
	"time"
	"weak"

	"github.com/google/uuid"
	"github.com/joeycumines/logiface"
	patrickmncache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/trace"
)

// HandlerPtr constrains a pointer type *H to also implement [Handler],
// letting [RegisterHandler] take a weak reference to the caller's actual
// handler struct rather than to an interface box of our own making. This
// is the Go-generics analog of the original's weak_ptr<Handler>: only a
// concrete pointer type can be the target of a [weak.Pointer].
type HandlerPtr[H any] interface {
	*H
	Handler
}

// handlerInfo is the Roster's bookkeeping for one registered handler: a
// weak reference to its Looper and a closure that resolves the weak
// handler reference back to a [Handler] interface value, or nil once the
// handler has been garbage collected.
type handlerInfo struct {
	looper  weak.Pointer[Looper]
	resolve func() Handler
}

// Roster is a process-wide (or, unlike the original's singleton, scoped
// to whatever the caller chooses) registry mapping [HandlerId] values to
// weakly-held (Looper, Handler) pairs, and the correlation point for the
// synchronous postAndAwaitResponse/postReply protocol.
type Roster struct {
	mu            sync.Mutex
	handlers      map[HandlerId]handlerInfo
	nextHandlerID HandlerId
	nextReplyID   uint32

	repliesMu sync.Mutex
	cond      *sync.Cond
	replies   map[uint32]*Message

	runID  string
	logger *logiface.Logger[logiface.Event]
	tracer trace.Tracer

	recent     *patrickmncache.Cache
	recentKeys []string
	recentSeq  uint64
	recentCap  int
	recentMu   sync.Mutex
}

// NewRoster constructs an empty Roster, ready to register handlers.
func NewRoster(opts ...RosterOption) *Roster {
	cfg := resolveRosterOptions(opts)
	r := &Roster{
		handlers:      make(map[HandlerId]handlerInfo),
		nextHandlerID: 1,
		nextReplyID:   1,
		replies:       make(map[uint32]*Message),
		runID:         uuid.NewString(),
		logger:        logOrNop(cfg.logger),
		tracer:        cfg.tracer,
		recentCap:     cfg.recentDeliveries,
	}
	r.cond = sync.NewCond(&r.repliesMu)
	if r.recentCap > 0 {
		r.recent = patrickmncache.New(5*time.Minute, 10*time.Minute)
	}
	return r
}

// NewMessage constructs a Message addressed to target with opcode what,
// bound to this Roster so Post/Cancel/PostAndAwaitResponse work.
func (r *Roster) NewMessage(target HandlerId, what uint32) *Message {
	return &Message{target: target, what: what, roster: r}
}

// RegisterHandler assigns handler a new [HandlerId] from r and
// associates it with looper. Panics if handler has already been
// registered (matching the original's assert: re-registration is a
// programmer error, not a recoverable condition).
func RegisterHandler[H any, PH HandlerPtr[H]](r *Roster, looper *Looper, handler PH) HandlerId {
	if err := looper.bindRoster(r); err != nil {
		panic("baselooper: looper already bound to a different roster")
	}

	var hp *H = handler
	wp := weak.Make(hp)
	resolve := func() Handler {
		p := wp.Value()
		if p == nil {
			return nil
		}
		return Handler(PH(p))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if setter, ok := any(handler).(idSetter); ok {
		if setter.currentID() != 0 {
			panic("baselooper: a handler must only be registered once")
		}
	}

	id := r.nextHandlerID
	r.nextHandlerID++
	r.handlers[id] = handlerInfo{
		looper:  weak.Make(looper),
		resolve: resolve,
	}

	if setter, ok := any(handler).(idSetter); ok {
		setter.setID(id)
	}

	r.logger.Debug().Str("roster", r.runID).Uint32("handler", uint32(id)).Log("handler registered")
	return id
}

// idSetter is implemented by handlers embedding [HandlerBase], allowing
// the Roster to stamp the assigned id back onto the handler, matching
// the original's friend-only Handler::setID.
type idSetter interface {
	currentID() HandlerId
	setID(HandlerId)
}

func (h *HandlerBase) currentID() HandlerId { return h.id }

// UnregisterHandler removes handlerID from the registry. It is a no-op
// if handlerID is not currently registered.
func (r *Roster) UnregisterHandler(handlerID HandlerId) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.handlers[handlerID]
	if !ok {
		return
	}
	if h := info.resolve(); h != nil {
		if setter, ok := h.(idSetter); ok {
			setter.setID(0)
		}
	}
	delete(r.handlers, handlerID)
	r.logger.Debug().Str("roster", r.runID).Uint32("handler", uint32(handlerID)).Log("handler unregistered")
}

// FindLooper resolves handlerID to its registered Looper, or nil if it is
// not registered or its Looper has been garbage collected (in which case
// the stale entry is also evicted).
func (r *Roster) FindLooper(handlerID HandlerId) *Looper {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLooperLocked(handlerID)
}

func (r *Roster) findLooperLocked(handlerID HandlerId) *Looper {
	info, ok := r.handlers[handlerID]
	if !ok {
		return nil
	}
	l := info.looper.Value()
	if l == nil {
		delete(r.handlers, handlerID)
		return nil
	}
	return l
}

func (r *Roster) postMessage(msg *Message, delay time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.postMessageLocked(msg, delay)
}

func (r *Roster) postMessageLocked(msg *Message, delay time.Duration) error {
	l := r.findLooperLocked(msg.target)
	if l == nil {
		r.logger.Warning().Uint32("target", uint32(msg.target)).Log("post: target not registered")
		return ErrNameNotFound
	}
	l.post(msg, delay)
	return nil
}

func (r *Roster) cancelMessage(msg *Message) error {
	r.mu.Lock()
	l := r.findLooperLocked(msg.target)
	r.mu.Unlock()
	if l == nil {
		return ErrNameNotFound
	}
	return l.cancel(msg)
}

// deliverMessage resolves msg's target handler and invokes
// OnMessageReceived. Called only from a Looper's own dispatch goroutine.
func (r *Roster) deliverMessage(msg *Message) {
	var span trace.Span
	ctx := context.Background()
	if r.tracer != nil {
		ctx, span = r.tracer.Start(ctx, "baselooper.deliverMessage")
		defer span.End()
	}
	_ = ctx

	r.mu.Lock()
	info, ok := r.handlers[msg.target]
	var handler Handler
	if ok {
		handler = info.resolve()
		if handler == nil {
			delete(r.handlers, msg.target)
		}
	}
	r.mu.Unlock()

	if handler == nil {
		r.logger.Warning().Uint32("target", uint32(msg.target)).Log("deliver: target not registered")
		return
	}

	r.recordDelivery(msg)
	handler.OnMessageReceived(msg)
}

func (r *Roster) recordDelivery(msg *Message) {
	if r.recent == nil {
		return
	}
	r.recentMu.Lock()
	defer r.recentMu.Unlock()
	key := fmt.Sprintf("%d", r.recentSeq)
	r.recentSeq++
	r.recent.Set(key, msg.DebugString(0), patrickmncache.DefaultExpiration)
	r.recentKeys = append(r.recentKeys, key)
	if len(r.recentKeys) > r.recentCap {
		stale := r.recentKeys[0]
		r.recentKeys = r.recentKeys[1:]
		r.recent.Delete(stale)
	}
}

// RecentDeliveries returns debugString snapshots of the most recently
// delivered messages, oldest first, for introspection tooling.
func (r *Roster) RecentDeliveries() []string {
	if r.recent == nil {
		return nil
	}
	r.recentMu.Lock()
	defer r.recentMu.Unlock()
	out := make([]string, 0, len(r.recentKeys))
	for _, k := range r.recentKeys {
		if v, ok := r.recent.Get(k); ok {
			out = append(out, v.(string))
		}
	}
	return out
}

// postAndAwaitResponse allocates a reply id, stamps it into msg, posts
// msg with no delay, and blocks until postReply is called with the same
// id, ctx is done, or the post itself fails.
func (r *Roster) postAndAwaitResponse(ctx context.Context, msg *Message) (*Message, error) {
	var span trace.Span
	if r.tracer != nil {
		_, span = r.tracer.Start(ctx, "baselooper.postAndAwaitResponse")
		defer span.End()
	}

	r.mu.Lock()
	replyID := r.nextReplyID
	r.nextReplyID++
	msg.SetInt32("replyId", int32(replyID))
	err := r.postMessageLocked(msg, 0)
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}

	done := make(chan *Message, 1)
	stop := make(chan struct{})
	go func() {
		r.repliesMu.Lock()
		for {
			if reply, ok := r.replies[replyID]; ok {
				delete(r.replies, replyID)
				r.repliesMu.Unlock()
				done <- reply
				return
			}
			select {
			case <-stop:
				r.repliesMu.Unlock()
				return
			default:
			}
			r.cond.Wait()
		}
	}()

	select {
	case reply := <-done:
		return reply, nil
	case <-ctx.Done():
		close(stop)
		r.repliesMu.Lock()
		r.cond.Broadcast()
		r.repliesMu.Unlock()
		return nil, ctx.Err()
	}
}

// postReply delivers reply as the synchronous response identified by
// replyID. Panics if replyID already has a pending, undelivered reply
// (matching the original's assert: a double reply is a programmer
// error).
func (r *Roster) postReply(replyID uint32, reply *Message) error {
	r.repliesMu.Lock()
	defer r.repliesMu.Unlock()
	if _, exists := r.replies[replyID]; exists {
		panic("baselooper: duplicate reply for replyId")
	}
	r.replies[replyID] = reply
	r.cond.Broadcast()
	return nil
}
