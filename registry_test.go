package baselooper

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegisterHandlerAssignsID(t *testing.T) {
	roster := NewRoster()
	looper := NewLooper()

	h := &recordingHandler{}
	id := RegisterHandler(roster, looper, h)

	require.NotZero(t, id)
	require.Equal(t, id, h.ID())
	require.Same(t, looper, roster.FindLooper(id))
}

func TestRegisterHandlerTwiceOnSameHandlerPanics(t *testing.T) {
	roster := NewRoster()
	looper := NewLooper()
	h := &recordingHandler{}
	RegisterHandler(roster, looper, h)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double registration")
		}
	}()
	RegisterHandler(roster, looper, h)
}

func TestUnregisterHandlerResetsID(t *testing.T) {
	roster := NewRoster()
	looper := NewLooper()
	h := &recordingHandler{}
	id := RegisterHandler(roster, looper, h)

	roster.UnregisterHandler(id)

	require.Zero(t, h.ID())
	require.Nil(t, roster.FindLooper(id))
}

func TestDeliverMessageEvictsStaleHandler(t *testing.T) {
	roster := NewRoster()
	looper := NewLooper()

	var id HandlerId
	func() {
		h := &recordingHandler{}
		id = RegisterHandler(roster, looper, h)
	}()

	// Drop the only strong reference to h and force collection.
	runtime.GC()
	runtime.GC()

	msg := roster.NewMessage(id, 0)
	roster.deliverMessage(msg)

	require.Nil(t, roster.FindLooper(id), "stale handler entry should have been evicted")
}

func TestPostAndAwaitResponse(t *testing.T) {
	roster := NewRoster()
	looper := NewLooper()
	require.NoError(t, looper.Start(false))
	defer looper.Stop()

	h := &recordingHandler{onMsg: func(m *Message) {
		replyID, ok := m.SenderAwaitsResponse()
		require.True(t, ok)
		reply := roster.NewMessage(0, 'REPL')
		reply.SetString("answer", "42")
		require.NoError(t, reply.PostReply(replyID))
	}}
	id := RegisterHandler(roster, looper, h)

	req := roster.NewMessage(id, 'ASK ')
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := req.PostAndAwaitResponse(ctx)
	require.NoError(t, err)
	answer, ok := resp.FindString("answer")
	require.True(t, ok)
	require.Equal(t, "42", answer)
}

func TestPostAndAwaitResponseContextCancelled(t *testing.T) {
	roster := NewRoster()
	looper := NewLooper()
	require.NoError(t, looper.Start(false))
	defer looper.Stop()

	// Handler that never replies.
	h := &recordingHandler{}
	id := RegisterHandler(roster, looper, h)

	req := roster.NewMessage(id, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := req.PostAndAwaitResponse(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPostReplyTwiceForSameIDPanics(t *testing.T) {
	roster := NewRoster()
	reply := roster.NewMessage(0, 0)

	require.NoError(t, reply.PostReply(7))

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate reply")
		}
	}()
	_ = reply.PostReply(7)
}

func TestRecentDeliveries(t *testing.T) {
	roster := NewRoster(WithRecentDeliveries(2))
	looper := NewLooper()
	require.NoError(t, looper.Start(false))
	defer looper.Stop()

	done := make(chan struct{}, 3)
	h := &recordingHandler{onMsg: func(*Message) { done <- struct{}{} }}
	id := RegisterHandler(roster, looper, h)

	for i := 0; i < 3; i++ {
		m := roster.NewMessage(id, uint32(i))
		require.NoError(t, m.Post())
		<-done
	}

	recent := roster.RecentDeliveries()
	require.Len(t, recent, 2, "recent deliveries should be capped")
}
