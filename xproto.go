package yaxi

import (
	"fmt"
)

// Core request opcodes.
const (
	opCreateWindow           = 1
	opChangeWindowAttributes = 2
	opDestroyWindow          = 4
	opMapWindow              = 8
	opUnmapWindow            = 10
	opConfigureWindow        = 12
	opGetGeometry            = 14
	opInternAtom             = 16
	opGetAtomName            = 17
	opChangeProperty         = 18
	opGetProperty            = 20
	opGetSelectionOwner      = 23
	opGetInputFocus          = 43
	opQueryExtension         = 98
	opNoOperation            = 127
)

// An Atom is an integer naming a string interned in the server.
type Atom uint32

// Predefined atoms.
const (
	AtomNone       Atom = 0
	AtomPrimary    Atom = 1
	AtomSecondary  Atom = 2
	AtomArc        Atom = 3
	AtomAtom       Atom = 4
	AtomBitmap     Atom = 5
	AtomCardinal   Atom = 6
	AtomColormap   Atom = 7
	AtomCursor     Atom = 8
	AtomCutBuffer0 Atom = 9
	AtomDrawable   Atom = 17
	AtomFont       Atom = 18
	AtomInteger    Atom = 19
	AtomPixmap     Atom = 20
	AtomString     Atom = 31
	AtomWindow     Atom = 33
)

// Window classes for CreateWindow.
const (
	WindowClassCopyFromParent = 0
	WindowClassInputOutput    = 1
	WindowClassInputOnly      = 2
)

// CreateWindow/ChangeWindowAttributes value mask bits, in protocol order.
const (
	CwBackPixmap       = 1 << 0
	CwBackPixel        = 1 << 1
	CwBorderPixmap     = 1 << 2
	CwBorderPixel      = 1 << 3
	CwBitGravity       = 1 << 4
	CwWinGravity       = 1 << 5
	CwBackingStore     = 1 << 6
	CwBackingPlanes    = 1 << 7
	CwBackingPixel     = 1 << 8
	CwOverrideRedirect = 1 << 9
	CwSaveUnder        = 1 << 10
	CwEventMask        = 1 << 11
	CwDontPropagate    = 1 << 12
	CwColormap         = 1 << 13
	CwCursor           = 1 << 14
)

// Event mask bits for CwEventMask.
const (
	EventMaskNoEvent            = 0
	EventMaskKeyPress           = 1 << 0
	EventMaskKeyRelease         = 1 << 1
	EventMaskButtonPress        = 1 << 2
	EventMaskButtonRelease      = 1 << 3
	EventMaskEnterWindow        = 1 << 4
	EventMaskLeaveWindow        = 1 << 5
	EventMaskPointerMotion      = 1 << 6
	EventMaskExposure           = 1 << 15
	EventMaskStructureNotify    = 1 << 17
	EventMaskSubstructureNotify = 1 << 19
	EventMaskPropertyChange     = 1 << 22
)

// ConfigureWindow value mask bits.
const (
	ConfigWindowX           = 1 << 0
	ConfigWindowY           = 1 << 1
	ConfigWindowWidth       = 1 << 2
	ConfigWindowHeight      = 1 << 3
	ConfigWindowBorderWidth = 1 << 4
	ConfigWindowSibling     = 1 << 5
	ConfigWindowStackMode   = 1 << 6
)

// Modes for ChangeProperty.
const (
	PropModeReplace = 0
	PropModePrepend = 1
	PropModeAppend  = 2
)

// VoidCookie is the cookie for a request that expects no reply. The
// Sequence field is the request's identity for error correlation.
type VoidCookie struct {
	*cookie
}

// Check blocks until the server has processed the request, returning the
// protocol error it provoked, if any. Only valid on cookies from Checked
// request variants.
func (ck VoidCookie) Check() error {
	return ck.check()
}

func checkValueList(mask uint32, values []uint32) error {
	if popCount(mask) != len(values) {
		return fmt.Errorf("value list carries %d entries but the mask has %d bits set", len(values), popCount(mask))
	}
	return nil
}

func (c *Conn) createWindowRequest(depth byte, wid, parent Id, x, y int16, width, height, borderWidth, class uint16, visual, valueMask uint32, valueList []uint32) []byte {
	buf := make([]byte, 32+4*len(valueList))
	buf[0] = opCreateWindow
	buf[1] = depth
	Put16(buf[2:], uint16(len(buf)/4))
	Put32(buf[4:], uint32(wid))
	Put32(buf[8:], uint32(parent))
	Put16(buf[12:], uint16(x))
	Put16(buf[14:], uint16(y))
	Put16(buf[16:], width)
	Put16(buf[18:], height)
	Put16(buf[20:], borderWidth)
	Put16(buf[22:], class)
	Put32(buf[24:], visual)
	Put32(buf[28:], valueMask)
	for i, v := range valueList {
		Put32(buf[32+i*4:], v)
	}
	return buf
}

// CreateWindow creates an unmapped window with the given geometry and
// attributes. The value list entries must appear in the protocol order of
// their mask bits.
func (c *Conn) CreateWindow(depth byte, wid, parent Id, x, y int16, width, height, borderWidth, class uint16, visual, valueMask uint32, valueList []uint32) (VoidCookie, error) {
	if err := checkValueList(valueMask, valueList); err != nil {
		return VoidCookie{}, err
	}
	ck, err := c.sendRequest(false, false, c.createWindowRequest(depth, wid, parent, x, y, width, height, borderWidth, class, visual, valueMask, valueList))
	return VoidCookie{ck}, err
}

func (c *Conn) CreateWindowChecked(depth byte, wid, parent Id, x, y int16, width, height, borderWidth, class uint16, visual, valueMask uint32, valueList []uint32) (VoidCookie, error) {
	if err := checkValueList(valueMask, valueList); err != nil {
		return VoidCookie{}, err
	}
	ck, err := c.sendRequest(false, true, c.createWindowRequest(depth, wid, parent, x, y, width, height, borderWidth, class, visual, valueMask, valueList))
	return VoidCookie{ck}, err
}

func (c *Conn) changeWindowAttributesRequest(window Id, valueMask uint32, valueList []uint32) []byte {
	buf := make([]byte, 12+4*len(valueList))
	buf[0] = opChangeWindowAttributes
	Put16(buf[2:], uint16(len(buf)/4))
	Put32(buf[4:], uint32(window))
	Put32(buf[8:], valueMask)
	for i, v := range valueList {
		Put32(buf[12+i*4:], v)
	}
	return buf
}

func (c *Conn) ChangeWindowAttributes(window Id, valueMask uint32, valueList []uint32) (VoidCookie, error) {
	if err := checkValueList(valueMask, valueList); err != nil {
		return VoidCookie{}, err
	}
	ck, err := c.sendRequest(false, false, c.changeWindowAttributesRequest(window, valueMask, valueList))
	return VoidCookie{ck}, err
}

func (c *Conn) ChangeWindowAttributesChecked(window Id, valueMask uint32, valueList []uint32) (VoidCookie, error) {
	if err := checkValueList(valueMask, valueList); err != nil {
		return VoidCookie{}, err
	}
	ck, err := c.sendRequest(false, true, c.changeWindowAttributesRequest(window, valueMask, valueList))
	return VoidCookie{ck}, err
}

func resourceRequest(opcode byte, id Id) []byte {
	buf := make([]byte, 8)
	buf[0] = opcode
	Put16(buf[2:], 2)
	Put32(buf[4:], uint32(id))
	return buf
}

func (c *Conn) DestroyWindow(window Id) (VoidCookie, error) {
	ck, err := c.sendRequest(false, false, resourceRequest(opDestroyWindow, window))
	return VoidCookie{ck}, err
}

func (c *Conn) DestroyWindowChecked(window Id) (VoidCookie, error) {
	ck, err := c.sendRequest(false, true, resourceRequest(opDestroyWindow, window))
	return VoidCookie{ck}, err
}

// MapWindow makes the window eligible for display. The server answers with
// a MapNotify event rather than a reply.
func (c *Conn) MapWindow(window Id) (VoidCookie, error) {
	ck, err := c.sendRequest(false, false, resourceRequest(opMapWindow, window))
	return VoidCookie{ck}, err
}

func (c *Conn) MapWindowChecked(window Id) (VoidCookie, error) {
	ck, err := c.sendRequest(false, true, resourceRequest(opMapWindow, window))
	return VoidCookie{ck}, err
}

func (c *Conn) UnmapWindow(window Id) (VoidCookie, error) {
	ck, err := c.sendRequest(false, false, resourceRequest(opUnmapWindow, window))
	return VoidCookie{ck}, err
}

func (c *Conn) UnmapWindowChecked(window Id) (VoidCookie, error) {
	ck, err := c.sendRequest(false, true, resourceRequest(opUnmapWindow, window))
	return VoidCookie{ck}, err
}

func (c *Conn) configureWindowRequest(window Id, valueMask uint16, valueList []uint32) []byte {
	buf := make([]byte, 12+4*len(valueList))
	buf[0] = opConfigureWindow
	Put16(buf[2:], uint16(len(buf)/4))
	Put32(buf[4:], uint32(window))
	Put16(buf[8:], valueMask)
	for i, v := range valueList {
		Put32(buf[12+i*4:], v)
	}
	return buf
}

func (c *Conn) ConfigureWindow(window Id, valueMask uint16, valueList []uint32) (VoidCookie, error) {
	if err := checkValueList(uint32(valueMask), valueList); err != nil {
		return VoidCookie{}, err
	}
	ck, err := c.sendRequest(false, false, c.configureWindowRequest(window, valueMask, valueList))
	return VoidCookie{ck}, err
}

func (c *Conn) ConfigureWindowChecked(window Id, valueMask uint16, valueList []uint32) (VoidCookie, error) {
	if err := checkValueList(uint32(valueMask), valueList); err != nil {
		return VoidCookie{}, err
	}
	ck, err := c.sendRequest(false, true, c.configureWindowRequest(window, valueMask, valueList))
	return VoidCookie{ck}, err
}

// NoOperation does nothing, consuming one sequence number. Useful as a
// heartbeat and in tests.
func (c *Conn) NoOperation() (VoidCookie, error) {
	buf := make([]byte, 4)
	buf[0] = opNoOperation
	Put16(buf[2:], 1)
	ck, err := c.sendRequest(false, false, buf)
	return VoidCookie{ck}, err
}

type GetGeometryCookie struct {
	*cookie
}

type GetGeometryReply struct {
	Sequence    uint16
	Depth       byte
	Root        Id
	X           int16
	Y           int16
	Width       uint16
	Height      uint16
	BorderWidth uint16
}

func (c *Conn) GetGeometry(drawable Id) (GetGeometryCookie, error) {
	ck, err := c.sendRequest(true, false, resourceRequest(opGetGeometry, drawable))
	return GetGeometryCookie{ck}, err
}

func (ck GetGeometryCookie) Reply() (*GetGeometryReply, error) {
	buf, err := ck.reply()
	if err != nil {
		return nil, err
	}
	return &GetGeometryReply{
		Sequence:    Get16(buf[2:]),
		Depth:       buf[1],
		Root:        Id(Get32(buf[8:])),
		X:           int16(Get16(buf[12:])),
		Y:           int16(Get16(buf[14:])),
		Width:       Get16(buf[16:]),
		Height:      Get16(buf[18:]),
		BorderWidth: Get16(buf[20:]),
	}, nil
}

type InternAtomCookie struct {
	*cookie
}

type InternAtomReply struct {
	Sequence uint16
	Atom     Atom
}

// InternAtom resolves a string to its atom, creating it unless onlyIfExists
// is set.
func (c *Conn) InternAtom(onlyIfExists bool, name string) (InternAtomCookie, error) {
	buf := make([]byte, 8+pad(len(name)))
	buf[0] = opInternAtom
	if onlyIfExists {
		buf[1] = 1
	}
	Put16(buf[2:], uint16(len(buf)/4))
	Put16(buf[4:], uint16(len(name)))
	copy(buf[8:], name)
	ck, err := c.sendRequest(true, false, buf)
	return InternAtomCookie{ck}, err
}

func (ck InternAtomCookie) Reply() (*InternAtomReply, error) {
	buf, err := ck.reply()
	if err != nil {
		return nil, err
	}
	return &InternAtomReply{
		Sequence: Get16(buf[2:]),
		Atom:     Atom(Get32(buf[8:])),
	}, nil
}

type GetAtomNameCookie struct {
	*cookie
}

type GetAtomNameReply struct {
	Sequence uint16
	Name     string
}

func (c *Conn) GetAtomName(atom Atom) (GetAtomNameCookie, error) {
	ck, err := c.sendRequest(true, false, resourceRequest(opGetAtomName, Id(atom)))
	return GetAtomNameCookie{ck}, err
}

func (ck GetAtomNameCookie) Reply() (*GetAtomNameReply, error) {
	buf, err := ck.reply()
	if err != nil {
		return nil, err
	}
	nameLen := int(Get16(buf[8:]))
	return &GetAtomNameReply{
		Sequence: Get16(buf[2:]),
		Name:     string(buf[32 : 32+nameLen]),
	}, nil
}

func checkPropertyFormat(format byte) error {
	switch format {
	case 8, 16, 32:
		return nil
	}
	return fmt.Errorf("property format must be 8, 16 or 32, not %d", format)
}

func (c *Conn) changePropertyRequest(mode byte, window Id, property, typ Atom, format byte, data []byte) []byte {
	units := len(data) / (int(format) / 8)
	buf := make([]byte, 24+pad(len(data)))
	buf[0] = opChangeProperty
	buf[1] = mode
	Put16(buf[2:], uint16(len(buf)/4))
	Put32(buf[4:], uint32(window))
	Put32(buf[8:], uint32(property))
	Put32(buf[12:], uint32(typ))
	buf[16] = format
	Put32(buf[20:], uint32(units))
	copy(buf[24:], data)
	return buf
}

// ChangeProperty sets a property on a window. format is 8, 16 or 32 and
// describes the unit size of data.
func (c *Conn) ChangeProperty(mode byte, window Id, property, typ Atom, format byte, data []byte) (VoidCookie, error) {
	if err := checkPropertyFormat(format); err != nil {
		return VoidCookie{}, err
	}
	ck, err := c.sendRequest(false, false, c.changePropertyRequest(mode, window, property, typ, format, data))
	return VoidCookie{ck}, err
}

func (c *Conn) ChangePropertyChecked(mode byte, window Id, property, typ Atom, format byte, data []byte) (VoidCookie, error) {
	if err := checkPropertyFormat(format); err != nil {
		return VoidCookie{}, err
	}
	ck, err := c.sendRequest(false, true, c.changePropertyRequest(mode, window, property, typ, format, data))
	return VoidCookie{ck}, err
}

type GetPropertyCookie struct {
	*cookie
}

type GetPropertyReply struct {
	Sequence   uint16
	Format     byte
	Type       Atom
	BytesAfter uint32
	ValueLen   uint32
	Value      []byte
}

func (c *Conn) GetProperty(delete bool, window Id, property, typ Atom, longOffset, longLength uint32) (GetPropertyCookie, error) {
	buf := make([]byte, 24)
	buf[0] = opGetProperty
	if delete {
		buf[1] = 1
	}
	Put16(buf[2:], 6)
	Put32(buf[4:], uint32(window))
	Put32(buf[8:], uint32(property))
	Put32(buf[12:], uint32(typ))
	Put32(buf[16:], longOffset)
	Put32(buf[20:], longLength)
	ck, err := c.sendRequest(true, false, buf)
	return GetPropertyCookie{ck}, err
}

func (ck GetPropertyCookie) Reply() (*GetPropertyReply, error) {
	buf, err := ck.reply()
	if err != nil {
		return nil, err
	}
	v := &GetPropertyReply{
		Sequence:   Get16(buf[2:]),
		Format:     buf[1],
		Type:       Atom(Get32(buf[8:])),
		BytesAfter: Get32(buf[12:]),
		ValueLen:   Get32(buf[16:]),
	}
	if v.Format > 0 {
		n := int(v.ValueLen) * int(v.Format) / 8
		v.Value = buf[32 : 32+n]
	}
	return v, nil
}

type GetSelectionOwnerCookie struct {
	*cookie
}

type GetSelectionOwnerReply struct {
	Sequence uint16
	Owner    Id
}

func (c *Conn) GetSelectionOwner(selection Atom) (GetSelectionOwnerCookie, error) {
	ck, err := c.sendRequest(true, false, resourceRequest(opGetSelectionOwner, Id(selection)))
	return GetSelectionOwnerCookie{ck}, err
}

func (ck GetSelectionOwnerCookie) Reply() (*GetSelectionOwnerReply, error) {
	buf, err := ck.reply()
	if err != nil {
		return nil, err
	}
	return &GetSelectionOwnerReply{
		Sequence: Get16(buf[2:]),
		Owner:    Id(Get32(buf[8:])),
	}, nil
}

type GetInputFocusCookie struct {
	*cookie
}

type GetInputFocusReply struct {
	Sequence uint16
	RevertTo byte
	Focus    Id
}

func (c *Conn) GetInputFocus() (GetInputFocusCookie, error) {
	buf := make([]byte, 4)
	buf[0] = opGetInputFocus
	Put16(buf[2:], 1)
	ck, err := c.sendRequest(true, false, buf)
	return GetInputFocusCookie{ck}, err
}

func (ck GetInputFocusCookie) Reply() (*GetInputFocusReply, error) {
	buf, err := ck.reply()
	if err != nil {
		return nil, err
	}
	return &GetInputFocusReply{
		Sequence: Get16(buf[2:]),
		RevertTo: buf[1],
		Focus:    Id(Get32(buf[8:])),
	}, nil
}

type QueryExtensionCookie struct {
	*cookie
}

type QueryExtensionReply struct {
	Sequence    uint16
	Present     bool
	MajorOpcode byte
	FirstEvent  byte
	FirstError  byte
}

// QueryExtension asks the server whether it supports the named extension
// and, if so, which opcode and event/error bases it was assigned. Most
// callers want RegisterExtension, which caches the answer.
func (c *Conn) QueryExtension(name string) (QueryExtensionCookie, error) {
	buf := make([]byte, 8+pad(len(name)))
	buf[0] = opQueryExtension
	Put16(buf[2:], uint16(len(buf)/4))
	Put16(buf[4:], uint16(len(name)))
	copy(buf[8:], name)
	ck, err := c.sendRequest(true, false, buf)
	return QueryExtensionCookie{ck}, err
}

func (ck QueryExtensionCookie) Reply() (*QueryExtensionReply, error) {
	buf, err := ck.reply()
	if err != nil {
		return nil, err
	}
	return &QueryExtensionReply{
		Sequence:    Get16(buf[2:]),
		Present:     buf[8] == 1,
		MajorOpcode: buf[9],
		FirstEvent:  buf[10],
		FirstError:  buf[11],
	}, nil
}
