// Package baselooper provides a message-passing concurrency runtime: a
// delay-ordered [Looper] bound to either the calling goroutine or a
// dedicated worker goroutine, [Handler] values identified by a
// [HandlerId], and a [Roster] that assigns those ids and routes [Message]
// values between them.
//
// # Architecture
//
// A [Looper] owns a delay-ordered queue of pending Messages and drains it
// one at a time, in order, either on the goroutine that called
// [Looper.Start](true) or on a dedicated worker goroutine spawned by
// [Looper.Start](false). A [Handler] is registered against a Looper via
// [RegisterHandler], which assigns it a [HandlerId]; the Roster holds
// only weak references to both the Looper and the Handler, so neither is
// kept alive by having been registered.
//
// Messages are addressed by HandlerId, not by Looper or Handler value,
// so a Message can be constructed (and even posted) before its target is
// registered; it simply fails to resolve until then.
//
// # Synchronous request/reply
//
// [Message.PostAndAwaitResponse] posts a message carrying a reserved
// "replyId" field and blocks the caller until the target Handler calls
// [Message.PostReply] with a response, the supplied context is done, or
// the target cannot be resolved at post time.
//
// # Usage
//
//	roster := baselooper.NewRoster()
//	looper := baselooper.NewLooper(baselooper.WithLooperName("worker"))
//	if err := looper.Start(false); err != nil {
//		log.Fatal(err)
//	}
//	defer looper.Stop()
//
//	h := &myHandler{}
//	id := baselooper.RegisterHandler(roster, looper, h)
//
//	msg := roster.NewMessage(id, 'HELO')
//	msg.SetString("greeting", "hi")
//	if err := msg.Post(); err != nil {
//		log.Fatal(err)
//	}
//
// # Error handling
//
// Exported operations return one of a small set of sentinel errors
// ([ErrInvalidOperation], [ErrAlreadyOperated], [ErrWouldBlock],
// [ErrNameNotFound], [ErrUnknown]); callers should compare with
// [errors.Is]. Double-registering a Handler or double-replying to a
// synchronous request are programmer errors and panic, rather than
// returning an error.
package baselooper
