package baselooper

import (
	"testing"
	"time"
)

func TestBufferSetRange(t *testing.T) {
	b := NewBuffer(16)
	b.SetRange(4, 8)
	if b.Offset() != 4 || b.Size() != 8 {
		t.Fatalf("Offset/Size = %d/%d, want 4/8", b.Offset(), b.Size())
	}
	if len(b.Data()) != b.Capacity()-4 {
		t.Fatalf("Data() length = %d, want %d", len(b.Data()), b.Capacity()-4)
	}
}

func TestBufferSetRangeZeroSizeForcesZeroOffset(t *testing.T) {
	b := NewBuffer(16)
	b.SetRange(4, 8)
	b.SetRange(10, 0)
	if b.Offset() != 0 {
		t.Fatalf("Offset() = %d, want 0 after zero-size SetRange", b.Offset())
	}
}

func TestBufferSetRangeOutOfBoundsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-bounds SetRange")
		}
	}()
	b := NewBuffer(4)
	b.SetRange(2, 10)
}

func TestBufferMetaLazyAndCached(t *testing.T) {
	b := NewBuffer(1)
	m1 := b.Meta()
	m2 := b.Meta()
	if m1 != m2 {
		t.Fatal("Meta() should return the same Message on repeated calls")
	}
}

func TestBufferFarewellPostedOnceOnFinalRelease(t *testing.T) {
	roster := NewRoster()
	looper := NewLooper()
	if err := looper.Start(false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer looper.Stop()

	received := make(chan struct{}, 4)
	h := &recordingHandler{onMsg: func(*Message) { received <- struct{}{} }}
	id := RegisterHandler(roster, looper, h)

	farewell := roster.NewMessage(id, 'BYE ')

	b := NewBuffer(1).Retain()
	b.SetFarewellMessage(farewell)

	b.Release()
	b.Release()

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("expected farewell message to be posted after final Release")
	}
	select {
	case <-received:
		t.Fatal("farewell message should only be posted once")
	case <-time.After(50 * time.Millisecond):
	}
}

type recordingHandler struct {
	HandlerBase
	onMsg func(*Message)
}

func (h *recordingHandler) OnMessageReceived(msg *Message) {
	if h.onMsg != nil {
		h.onMsg(msg)
	}
}
