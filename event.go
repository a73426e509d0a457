package yaxi

// Event is an asynchronous occurrence reported by the server: input,
// geometry changes, mapping state. Events carry no correlation to request
// sequence numbers and are delivered strictly in the order the server
// emitted them. Use a type assertion switch to extract the concrete event.
type Event interface {
	ImplementsEvent()
}

// Core event codes.
const (
	KeyPress         = 2
	KeyRelease       = 3
	ButtonPress      = 4
	ButtonRelease    = 5
	MotionNotify     = 6
	EnterNotify      = 7
	LeaveNotify      = 8
	FocusIn          = 9
	FocusOut         = 10
	Expose           = 12
	CreateNotify     = 16
	DestroyNotify    = 17
	UnmapNotify      = 18
	MapNotify        = 19
	MapRequest       = 20
	ReparentNotify   = 21
	ConfigureNotify  = 22
	PropertyNotify   = 28
	SelectionClear   = 29
	SelectionRequest = 30
	SelectionNotify  = 31
	ClientMessage    = 33
	MappingNotify    = 34
)

// newEventFuncs maps event codes to functions that decode the 32-byte
// event body into the corresponding event struct.
var newEventFuncs = map[int]func(buf []byte) Event{}

func init() {
	newEventFuncs[KeyPress] = func(buf []byte) Event { return KeyPressEvent{newKeyButtonEvent(buf)} }
	newEventFuncs[KeyRelease] = func(buf []byte) Event { return KeyReleaseEvent{newKeyButtonEvent(buf)} }
	newEventFuncs[ButtonPress] = func(buf []byte) Event { return ButtonPressEvent{newKeyButtonEvent(buf)} }
	newEventFuncs[ButtonRelease] = func(buf []byte) Event { return ButtonReleaseEvent{newKeyButtonEvent(buf)} }
	newEventFuncs[MotionNotify] = func(buf []byte) Event { return MotionNotifyEvent{newKeyButtonEvent(buf)} }
	newEventFuncs[Expose] = newExposeEvent
	newEventFuncs[CreateNotify] = newCreateNotifyEvent
	newEventFuncs[DestroyNotify] = newDestroyNotifyEvent
	newEventFuncs[UnmapNotify] = newUnmapNotifyEvent
	newEventFuncs[MapNotify] = newMapNotifyEvent
	newEventFuncs[ConfigureNotify] = newConfigureNotifyEvent
	newEventFuncs[PropertyNotify] = newPropertyNotifyEvent
	newEventFuncs[ClientMessage] = newClientMessageEvent
	newEventFuncs[MappingNotify] = newMappingNotifyEvent
}

// keyButtonEvent is the layout shared by key, button and motion events.
type keyButtonEvent struct {
	Detail     byte
	Sequence   uint16
	Time       uint32
	Root       Id
	Event      Id
	Child      Id
	RootX      int16
	RootY      int16
	EventX     int16
	EventY     int16
	State      uint16
	SameScreen bool
}

func newKeyButtonEvent(buf []byte) keyButtonEvent {
	return keyButtonEvent{
		Detail:     buf[1],
		Sequence:   Get16(buf[2:]),
		Time:       Get32(buf[4:]),
		Root:       Id(Get32(buf[8:])),
		Event:      Id(Get32(buf[12:])),
		Child:      Id(Get32(buf[16:])),
		RootX:      int16(Get16(buf[20:])),
		RootY:      int16(Get16(buf[22:])),
		EventX:     int16(Get16(buf[24:])),
		EventY:     int16(Get16(buf[26:])),
		State:      Get16(buf[28:]),
		SameScreen: buf[30] == 1,
	}
}

type KeyPressEvent struct{ keyButtonEvent }
type KeyReleaseEvent struct{ keyButtonEvent }
type ButtonPressEvent struct{ keyButtonEvent }
type ButtonReleaseEvent struct{ keyButtonEvent }
type MotionNotifyEvent struct{ keyButtonEvent }

func (_ KeyPressEvent) ImplementsEvent()     {}
func (_ KeyReleaseEvent) ImplementsEvent()   {}
func (_ ButtonPressEvent) ImplementsEvent()  {}
func (_ ButtonReleaseEvent) ImplementsEvent() {}
func (_ MotionNotifyEvent) ImplementsEvent() {}

type ExposeEvent struct {
	Sequence uint16
	Window   Id
	X        uint16
	Y        uint16
	Width    uint16
	Height   uint16
	Count    uint16
}

func newExposeEvent(buf []byte) Event {
	return ExposeEvent{
		Sequence: Get16(buf[2:]),
		Window:   Id(Get32(buf[4:])),
		X:        Get16(buf[8:]),
		Y:        Get16(buf[10:]),
		Width:    Get16(buf[12:]),
		Height:   Get16(buf[14:]),
		Count:    Get16(buf[16:]),
	}
}

func (_ ExposeEvent) ImplementsEvent() {}

type CreateNotifyEvent struct {
	Sequence         uint16
	Parent           Id
	Window           Id
	X                int16
	Y                int16
	Width            uint16
	Height           uint16
	BorderWidth      uint16
	OverrideRedirect bool
}

func newCreateNotifyEvent(buf []byte) Event {
	return CreateNotifyEvent{
		Sequence:         Get16(buf[2:]),
		Parent:           Id(Get32(buf[4:])),
		Window:           Id(Get32(buf[8:])),
		X:                int16(Get16(buf[12:])),
		Y:                int16(Get16(buf[14:])),
		Width:            Get16(buf[16:]),
		Height:           Get16(buf[18:]),
		BorderWidth:      Get16(buf[20:]),
		OverrideRedirect: buf[22] == 1,
	}
}

func (_ CreateNotifyEvent) ImplementsEvent() {}

type DestroyNotifyEvent struct {
	Sequence uint16
	Event    Id
	Window   Id
}

func newDestroyNotifyEvent(buf []byte) Event {
	return DestroyNotifyEvent{
		Sequence: Get16(buf[2:]),
		Event:    Id(Get32(buf[4:])),
		Window:   Id(Get32(buf[8:])),
	}
}

func (_ DestroyNotifyEvent) ImplementsEvent() {}

type UnmapNotifyEvent struct {
	Sequence      uint16
	Event         Id
	Window        Id
	FromConfigure bool
}

func newUnmapNotifyEvent(buf []byte) Event {
	return UnmapNotifyEvent{
		Sequence:      Get16(buf[2:]),
		Event:         Id(Get32(buf[4:])),
		Window:        Id(Get32(buf[8:])),
		FromConfigure: buf[12] == 1,
	}
}

func (_ UnmapNotifyEvent) ImplementsEvent() {}

type MapNotifyEvent struct {
	Sequence         uint16
	Event            Id
	Window           Id
	OverrideRedirect bool
}

func newMapNotifyEvent(buf []byte) Event {
	return MapNotifyEvent{
		Sequence:         Get16(buf[2:]),
		Event:            Id(Get32(buf[4:])),
		Window:           Id(Get32(buf[8:])),
		OverrideRedirect: buf[12] == 1,
	}
}

func (_ MapNotifyEvent) ImplementsEvent() {}

type ConfigureNotifyEvent struct {
	Sequence         uint16
	Event            Id
	Window           Id
	AboveSibling     Id
	X                int16
	Y                int16
	Width            uint16
	Height           uint16
	BorderWidth      uint16
	OverrideRedirect bool
}

func newConfigureNotifyEvent(buf []byte) Event {
	return ConfigureNotifyEvent{
		Sequence:         Get16(buf[2:]),
		Event:            Id(Get32(buf[4:])),
		Window:           Id(Get32(buf[8:])),
		AboveSibling:     Id(Get32(buf[12:])),
		X:                int16(Get16(buf[16:])),
		Y:                int16(Get16(buf[18:])),
		Width:            Get16(buf[20:]),
		Height:           Get16(buf[22:]),
		BorderWidth:      Get16(buf[24:]),
		OverrideRedirect: buf[26] == 1,
	}
}

func (_ ConfigureNotifyEvent) ImplementsEvent() {}

// Property state values reported by PropertyNotifyEvent.
const (
	PropertyNewValue = 0
	PropertyDelete   = 1
)

type PropertyNotifyEvent struct {
	Sequence uint16
	Window   Id
	Atom     Atom
	Time     uint32
	State    byte
}

func newPropertyNotifyEvent(buf []byte) Event {
	return PropertyNotifyEvent{
		Sequence: Get16(buf[2:]),
		Window:   Id(Get32(buf[4:])),
		Atom:     Atom(Get32(buf[8:])),
		Time:     Get32(buf[12:]),
		State:    buf[16],
	}
}

func (_ PropertyNotifyEvent) ImplementsEvent() {}

// ClientMessageData holds the data from a client message, duplicated in
// three forms because Go doesn't have unions.
type ClientMessageData struct {
	Data8  [20]byte
	Data16 [10]uint16
	Data32 [5]uint32
}

func newClientMessageData(buf []byte) ClientMessageData {
	var v ClientMessageData
	copy(v.Data8[:], buf)
	for i := 0; i < 10; i++ {
		v.Data16[i] = Get16(buf[i*2:])
	}
	for i := 0; i < 5; i++ {
		v.Data32[i] = Get32(buf[i*4:])
	}
	return v
}

type ClientMessageEvent struct {
	Format   byte
	Sequence uint16
	Window   Id
	Type     Atom
	Data     ClientMessageData
}

func newClientMessageEvent(buf []byte) Event {
	return ClientMessageEvent{
		Format:   buf[1],
		Sequence: Get16(buf[2:]),
		Window:   Id(Get32(buf[4:])),
		Type:     Atom(Get32(buf[8:])),
		Data:     newClientMessageData(buf[12:32]),
	}
}

func (_ ClientMessageEvent) ImplementsEvent() {}

type MappingNotifyEvent struct {
	Sequence     uint16
	Request      byte
	FirstKeycode byte
	Count        byte
}

func newMappingNotifyEvent(buf []byte) Event {
	return MappingNotifyEvent{
		Sequence:     Get16(buf[2:]),
		Request:      buf[4],
		FirstKeycode: buf[5],
		Count:        buf[6],
	}
}

func (_ MappingNotifyEvent) ImplementsEvent() {}

// GenericEvent is any core event this package has no dedicated struct for.
type GenericEvent struct {
	Code     byte
	Detail   byte
	Sequence uint16
	Data     []byte
}

func (_ GenericEvent) ImplementsEvent() {}

// ExtensionEvent is an event whose code falls inside the range assigned to
// a registered extension.
type ExtensionEvent struct {
	Extension string
	Code      byte
	Detail    byte
	Sequence  uint16
	Data      []byte
}

func (_ ExtensionEvent) ImplementsEvent() {}

// A simple queue used to stow away events. The reader goroutine appends
// while any caller drains, so both ends hold Conn.queueLock: growing the
// backing slice mid-dequeue would drop or reorder events.
type queue struct {
	data [][]byte
	a, b int
}

func (q *queue) enqueue(c *Conn, item []byte) {
	c.queueLock.Lock()
	defer c.queueLock.Unlock()

	if q.b == len(q.data) {
		if q.a > 0 {
			copy(q.data, q.data[q.a:q.b])
			q.a, q.b = 0, q.b-q.a
		} else {
			newData := make([][]byte, (len(q.data)*3)/2)
			copy(newData, q.data)
			q.data = newData
		}
	}
	q.data[q.b] = item
	q.b++
}

func (q *queue) dequeue(c *Conn) []byte {
	c.queueLock.Lock()
	defer c.queueLock.Unlock()

	if q.a < q.b {
		item := q.data[q.a]
		q.a++
		return item
	}
	return nil
}

// decodeEvent tags a raw 32-byte event body with its meaning. The top bit
// of the code marks events generated by SendEvent and is masked off for
// classification. Codes past the core set are attributed to a registered
// extension when one claims the range.
func (c *Conn) decodeEvent(buf []byte) Event {
	code := buf[0] & 0x7f

	if f, ok := newEventFuncs[int(code)]; ok {
		return f(buf)
	}
	if ext := c.extensionForEvent(code); ext != nil {
		return ExtensionEvent{
			Extension: ext.Name,
			Code:      code,
			Detail:    buf[1],
			Sequence:  Get16(buf[2:]),
			Data:      buf,
		}
	}
	return GenericEvent{
		Code:     code,
		Detail:   buf[1],
		Sequence: Get16(buf[2:]),
		Data:     buf,
	}
}

// WaitForEvent returns the next event from the server, blocking until one
// is available. It returns ErrConnClosed once the connection is done and
// the queue has been drained.
func (c *Conn) WaitForEvent() (Event, error) {
	for {
		if buf := c.events.dequeue(c); buf != nil {
			return c.decodeEvent(buf), nil
		}
		if _, ok := <-c.eventChan; !ok {
			return nil, ErrConnClosed
		}
	}
}

// PollForEvent returns the next queued event without blocking, or nil if
// none is pending.
func (c *Conn) PollForEvent() Event {
	if buf := c.events.dequeue(c); buf != nil {
		return c.decodeEvent(buf)
	}
	return nil
}
