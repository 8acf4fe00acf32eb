package baselooper

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Type identifies the payload kind stored in a Message item.
type Type int

const (
	TypeBoolean Type = iota
	TypeInt32
	TypeInt64
	TypeSize
	TypeFloat
	TypeDouble
	TypePointer
	TypeString
	TypeMessage
	TypeBuffer
	TypeObject
	TypeUnknown
)

func (t Type) String() string {
	switch t {
	case TypeBoolean:
		return "bool"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeSize:
		return "size"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypePointer:
		return "pointer"
	case TypeString:
		return "string"
	case TypeMessage:
		return "message"
	case TypeBuffer:
		return "buffer"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// item is one named, typed field of a Message. Only the field matching
// typ is meaningful; the rest are left at their zero value.
type item struct {
	name        string
	typ         Type
	boolValue   bool
	int32Value  int32
	int64Value  int64
	sizeValue   int
	floatValue  float32
	doubleValue float64
	ptrValue    any
	stringValue string
	messagePtr  *Message
	bufferPtr   *Buffer
	objectPtr   any
}

// clear resets the payload fields for item's current type, freeing any
// referenced Buffer/Message/Object. This is a clean per-case switch with
// no fallthrough between the Buffer and Object cases.
func (it *item) clear() {
	switch it.typ {
	case TypeString:
		it.stringValue = ""
	case TypeMessage:
		it.messagePtr = nil
	case TypeBuffer:
		it.bufferPtr = nil
	case TypeObject:
		it.objectPtr = nil
	}
}

// Message is a heterogeneous, ordered bag of named fields addressed to a
// target [HandlerId] and tagged with a "what" opcode, routed through a
// [Roster]. Messages are not safe for concurrent mutation; the
// post/postAndAwaitResponse/duplicate protocol is designed around handing
// a Message to exactly one owner at a time.
type Message struct {
	what   uint32
	target HandlerId
	roster *Roster
	items  []*item
}

// NewMessage constructs a Message addressed to target with opcode what.
// A Message must be associated with a Roster (see [Roster.NewMessage]) to
// be postable; Messages built directly with NewMessage can still be
// inspected and mutated, but Post/Cancel/PostAndAwaitResponse require a
// Roster and will return [ErrInvalidOperation] without one.
func NewMessage(target HandlerId, what uint32) *Message {
	return &Message{what: what, target: target}
}

// What returns the message's opcode.
func (m *Message) What() uint32 { return m.what }

// SetWhat sets the message's opcode.
func (m *Message) SetWhat(what uint32) { m.what = what }

// Target returns the HandlerId this message is addressed to.
func (m *Message) Target() HandlerId { return m.target }

// SetTarget re-addresses the message.
func (m *Message) SetTarget(target HandlerId) { m.target = target }

// Clear removes all fields, leaving What/Target untouched.
func (m *Message) Clear() {
	m.items = nil
}

func (m *Message) allocateItem(name string) *item {
	for _, it := range m.items {
		if it.name == name {
			it.clear()
			return it
		}
	}
	it := &item{name: name, typ: TypeUnknown}
	m.items = append(m.items, it)
	return it
}

func (m *Message) findItem(name string, typ Type) *item {
	for _, it := range m.items {
		if it.typ == typ && it.name == name {
			return it
		}
	}
	return nil
}

func (m *Message) SetBoolean(name string, value bool) {
	it := m.allocateItem(name)
	it.typ = TypeBoolean
	it.boolValue = value
}

func (m *Message) FindBoolean(name string) (value bool, ok bool) {
	if it := m.findItem(name, TypeBoolean); it != nil {
		return it.boolValue, true
	}
	return false, false
}

func (m *Message) SetInt32(name string, value int32) {
	it := m.allocateItem(name)
	it.typ = TypeInt32
	it.int32Value = value
}

func (m *Message) FindInt32(name string) (value int32, ok bool) {
	if it := m.findItem(name, TypeInt32); it != nil {
		return it.int32Value, true
	}
	return 0, false
}

func (m *Message) SetInt64(name string, value int64) {
	it := m.allocateItem(name)
	it.typ = TypeInt64
	it.int64Value = value
}

func (m *Message) FindInt64(name string) (value int64, ok bool) {
	if it := m.findItem(name, TypeInt64); it != nil {
		return it.int64Value, true
	}
	return 0, false
}

func (m *Message) SetSize(name string, value int) {
	it := m.allocateItem(name)
	it.typ = TypeSize
	it.sizeValue = value
}

func (m *Message) FindSize(name string) (value int, ok bool) {
	if it := m.findItem(name, TypeSize); it != nil {
		return it.sizeValue, true
	}
	return 0, false
}

func (m *Message) SetFloat(name string, value float32) {
	it := m.allocateItem(name)
	it.typ = TypeFloat
	it.floatValue = value
}

func (m *Message) FindFloat(name string) (value float32, ok bool) {
	if it := m.findItem(name, TypeFloat); it != nil {
		return it.floatValue, true
	}
	return 0, false
}

func (m *Message) SetDouble(name string, value float64) {
	it := m.allocateItem(name)
	it.typ = TypeDouble
	it.doubleValue = value
}

func (m *Message) FindDouble(name string) (value float64, ok bool) {
	if it := m.findItem(name, TypeDouble); it != nil {
		return it.doubleValue, true
	}
	return 0, false
}

func (m *Message) SetPointer(name string, value any) {
	it := m.allocateItem(name)
	it.typ = TypePointer
	it.ptrValue = value
}

func (m *Message) FindPointer(name string) (value any, ok bool) {
	if it := m.findItem(name, TypePointer); it != nil {
		return it.ptrValue, true
	}
	return nil, false
}

func (m *Message) SetString(name, value string) {
	it := m.allocateItem(name)
	it.typ = TypeString
	it.stringValue = value
}

func (m *Message) FindString(name string) (value string, ok bool) {
	if it := m.findItem(name, TypeString); it != nil {
		return it.stringValue, true
	}
	return "", false
}

func (m *Message) SetBuffer(name string, buf *Buffer) {
	it := m.allocateItem(name)
	it.typ = TypeBuffer
	it.bufferPtr = buf
}

func (m *Message) FindBuffer(name string) (buf *Buffer, ok bool) {
	if it := m.findItem(name, TypeBuffer); it != nil {
		return it.bufferPtr, true
	}
	return nil, false
}

func (m *Message) SetMessage(name string, msg *Message) {
	it := m.allocateItem(name)
	it.typ = TypeMessage
	it.messagePtr = msg
}

func (m *Message) FindMessage(name string) (msg *Message, ok bool) {
	if it := m.findItem(name, TypeMessage); it != nil {
		return it.messagePtr, true
	}
	return nil, false
}

func (m *Message) SetObject(name string, obj any) {
	it := m.allocateItem(name)
	it.typ = TypeObject
	it.objectPtr = obj
}

func (m *Message) FindObject(name string) (obj any, ok bool) {
	if it := m.findItem(name, TypeObject); it != nil {
		return it.objectPtr, true
	}
	return nil, false
}

// CountEntries returns the number of fields set on the message.
func (m *Message) CountEntries() int { return len(m.items) }

// EntryNameAt returns the name and type of the field at index, or
// ("Unknown", TypeUnknown) if index is out of range.
func (m *Message) EntryNameAt(index int) (name string, typ Type) {
	if index < 0 || index >= len(m.items) {
		return "Unknown", TypeUnknown
	}
	return m.items[index].name, m.items[index].typ
}

// Post submits the message to its target's Looper with no delay.
func (m *Message) Post() error {
	return m.PostDelayed(0)
}

// PostDelayed submits the message to its target's Looper, to be
// dispatched no sooner than delay from now.
func (m *Message) PostDelayed(delay time.Duration) error {
	if m.roster == nil {
		return ErrInvalidOperation
	}
	return m.roster.postMessage(m, delay)
}

// Cancel removes the message from its target Looper's queue if it is
// still pending, identified by reference (not by content).
func (m *Message) Cancel() error {
	if m.roster == nil {
		return ErrInvalidOperation
	}
	return m.roster.cancelMessage(m)
}

// PostAndAwaitResponse posts the message and blocks until a reply is
// posted back via PostReply, the context is done, or the target cannot be
// resolved. Looper.Stop does not cancel pending replies: a Looper that
// stops without replying leaves this call blocked until ctx is done.
func (m *Message) PostAndAwaitResponse(ctx context.Context) (*Message, error) {
	if m.roster == nil {
		return nil, ErrInvalidOperation
	}
	return m.roster.postAndAwaitResponse(ctx, m)
}

// SenderAwaitsResponse reports whether the sender of this message is
// synchronously blocked in PostAndAwaitResponse, returning the replyID to
// pass to PostReply if so.
func (m *Message) SenderAwaitsResponse() (replyID uint32, ok bool) {
	v, found := m.FindInt32("replyId")
	if !found {
		return 0, false
	}
	return uint32(v), true
}

// PostReply delivers this message as the synchronous reply identified by
// replyID, waking the corresponding PostAndAwaitResponse call.
func (m *Message) PostReply(replyID uint32) error {
	if m.roster == nil {
		return ErrInvalidOperation
	}
	return m.roster.postReply(replyID, m)
}

// Duplicate performs a deep copy of value fields and strings; nested
// Message and Buffer fields are shallow-shared with the original, matching
// the original implementation's asymmetric duplicate() semantics rather
// than "fixing" it into a fully recursive deep copy.
func (m *Message) Duplicate() *Message {
	dup := &Message{what: m.what, target: m.target, roster: m.roster}
	dup.items = make([]*item, 0, len(m.items))
	for _, from := range m.items {
		to := &item{name: from.name, typ: from.typ}
		switch from.typ {
		case TypeString:
			to.stringValue = from.stringValue
		case TypeBuffer:
			to.bufferPtr = from.bufferPtr
		case TypeMessage:
			to.messagePtr = from.messagePtr
		default:
			to.boolValue = from.boolValue
			to.int32Value = from.int32Value
			to.int64Value = from.int64Value
			to.sizeValue = from.sizeValue
			to.floatValue = from.floatValue
			to.doubleValue = from.doubleValue
			to.ptrValue = from.ptrValue
			to.objectPtr = from.objectPtr
		}
		dup.items = append(dup.items, to)
	}
	return dup
}

func isFourcc(what uint32) bool {
	for i := 0; i < 4; i++ {
		b := byte(what >> (8 * i))
		if !unicode.IsPrint(rune(b)) {
			return false
		}
	}
	return true
}

// DebugString renders the message as a human-readable tree, matching the
// original's layout: a fourcc or hex opcode, optional target, and one
// indented line per field. Nested Message fields recurse with an indent
// derived from the field name's length, matching the original's exact
// arithmetic so multi-line dumps stay aligned.
func (m *Message) DebugString(indent int) string {
	var b strings.Builder
	b.WriteString("Message(what = ")
	if isFourcc(m.what) {
		b.WriteByte('\'')
		for i := 3; i >= 0; i-- {
			b.WriteByte(byte(m.what >> (8 * i)))
		}
		b.WriteByte('\'')
	} else {
		fmt.Fprintf(&b, "0x%08x", m.what)
	}
	if m.target != 0 {
		fmt.Fprintf(&b, ", target = %d", m.target)
	}
	b.WriteString(") = {\n")

	for _, it := range m.items {
		var line string
		switch it.typ {
		case TypeBoolean:
			line = fmt.Sprintf("bool %s = %t", it.name, it.boolValue)
		case TypeInt32:
			line = fmt.Sprintf("int32_t %s = %d", it.name, it.int32Value)
		case TypeInt64:
			line = fmt.Sprintf("int64_t %s = %d", it.name, it.int64Value)
		case TypeSize:
			line = fmt.Sprintf("size_t %s = %d", it.name, it.sizeValue)
		case TypeFloat:
			line = fmt.Sprintf("float %s = %f", it.name, it.floatValue)
		case TypeDouble:
			line = fmt.Sprintf("double %s = %f", it.name, it.doubleValue)
		case TypePointer:
			line = fmt.Sprintf("pointer %s = %p", it.name, it.ptrValue)
		case TypeString:
			line = fmt.Sprintf("string %s = %q", it.name, it.stringValue)
		case TypeBuffer:
			if it.bufferPtr != nil && it.bufferPtr.Size() <= 64 {
				var buf strings.Builder
				fmt.Fprintf(&buf, "Buffer %s = {\n", it.name)
				hexDump(it.bufferPtr.Data(), indent+4, &buf)
				buf.WriteString(strings.Repeat(" ", indent+2))
				buf.WriteString("}")
				line = buf.String()
			} else {
				line = fmt.Sprintf("Buffer *%s = %p", it.name, it.bufferPtr)
			}
		case TypeMessage:
			nested := ""
			if it.messagePtr != nil {
				nested = it.messagePtr.DebugString(indent + len(it.name) + 14)
			}
			line = fmt.Sprintf("Message %s = %s", it.name, nested)
		default:
			continue
		}
		b.WriteString(strings.Repeat(" ", indent))
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteString(strings.Repeat(" ", indent))
	b.WriteString("}")
	return b.String()
}

func hexDump(data []byte, indent int, appendTo *strings.Builder) {
	for offset := 0; offset < len(data); offset += 16 {
		appendTo.WriteString(strings.Repeat(" ", indent))
		appendTo.WriteString(strconv.FormatInt(int64(offset), 16))
		appendTo.WriteString(":  ")
		var ascii strings.Builder
		for i := 0; i < 16; i++ {
			if i == 8 {
				appendTo.WriteByte(' ')
			}
			if offset+i >= len(data) {
				appendTo.WriteString("   ")
				continue
			}
			c := data[offset+i]
			fmt.Fprintf(appendTo, "%02x ", c)
			if unicode.IsPrint(rune(c)) {
				ascii.WriteByte(c)
			} else {
				ascii.WriteByte('.')
			}
		}
		appendTo.WriteByte(' ')
		appendTo.WriteString(ascii.String())
		appendTo.WriteByte('\n')
	}
}
