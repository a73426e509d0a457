package yaxi

import (
	"errors"
	"fmt"
)

var (
	// ErrConnClosed resolves every pending and future call once the
	// connection is unusable, whether it was closed explicitly or the
	// transport failed underneath it.
	ErrConnClosed = errors.New("connection closed")

	// ErrIdsExhausted is returned by NewId once the id space granted at
	// setup has been consumed. Ids are never reclaimed or reused.
	ErrIdsExhausted = errors.New("no more available resource identifiers")

	// ErrRequestTooLong is returned when an encoded request exceeds the
	// maximum request length the server advertised at setup. Nothing is
	// written and no sequence number is consumed.
	ErrRequestTooLong = errors.New("request exceeds the server's maximum request length")

	// ErrExtensionNotPresent is returned by RegisterExtension for an
	// extension the server does not have.
	ErrExtensionNotPresent = errors.New("extension is not present on the server")

	// ErrDisplayParse is wrapped by errors reported for a malformed
	// display string.
	ErrDisplayParse = errors.New("invalid display string")
)

// SetupError is the server refusing the connection during the handshake,
// carrying the reason string it supplied.
type SetupError struct {
	Reason string
}

func (e *SetupError) Error() string {
	return "connection setup refused: " + e.Reason
}

// AuthenticateError is the server demanding further authentication during
// the handshake. There is no automatic retry.
type AuthenticateError struct {
	Reason string
}

func (e *AuthenticateError) Error() string {
	return "connection setup requires further authentication: " + e.Reason
}

// Error is any error the X server reports for a request. Use a type
// assertion to get at *ProtocolError for the details.
type Error interface {
	ImplementsError()
	SequenceId() uint16
	BadId() Id
	Error() string
}

// Core protocol error codes.
const (
	BadRequest        = 1
	BadValue          = 2
	BadWindow         = 3
	BadPixmap         = 4
	BadAtom           = 5
	BadCursor         = 6
	BadFont           = 7
	BadMatch          = 8
	BadDrawable       = 9
	BadAccess         = 10
	BadAlloc          = 11
	BadColormap       = 12
	BadGContext       = 13
	BadIDChoice       = 14
	BadName           = 15
	BadLength         = 16
	BadImplementation = 17
)

var errorNames = map[byte]string{
	BadRequest:        "Request",
	BadValue:          "Value",
	BadWindow:         "Window",
	BadPixmap:         "Pixmap",
	BadAtom:           "Atom",
	BadCursor:         "Cursor",
	BadFont:           "Font",
	BadMatch:          "Match",
	BadDrawable:       "Drawable",
	BadAccess:         "Access",
	BadAlloc:          "Alloc",
	BadColormap:       "Colormap",
	BadGContext:       "GContext",
	BadIDChoice:       "IDChoice",
	BadName:           "Name",
	BadLength:         "Length",
	BadImplementation: "Implementation",
}

// ProtocolError is an error packet from the server: the request it blames
// (by sequence number and opcode) and the offending value, if any. Errors
// with codes inside a registered extension's range carry the extension
// name.
type ProtocolError struct {
	Code        byte
	Sequence    uint16
	BadValue    uint32
	MinorOpcode uint16
	MajorOpcode byte
	Extension   string
}

func newProtocolError(buf []byte) *ProtocolError {
	return &ProtocolError{
		Code:        buf[1],
		Sequence:    Get16(buf[2:]),
		BadValue:    Get32(buf[4:]),
		MinorOpcode: Get16(buf[8:]),
		MajorOpcode: buf[10],
	}
}

func (e *ProtocolError) ImplementsError() {}

func (e *ProtocolError) SequenceId() uint16 { return e.Sequence }

func (e *ProtocolError) BadId() Id { return Id(e.BadValue) }

// Name returns the protocol name of the error code, "<extension>:<code>"
// for extension errors, or the raw code for anything unknown.
func (e *ProtocolError) Name() string {
	if name, ok := errorNames[e.Code]; ok {
		return name
	}
	if len(e.Extension) > 0 {
		return fmt.Sprintf("%s:%d", e.Extension, e.Code)
	}
	return fmt.Sprintf("Unknown(%d)", e.Code)
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("Bad%s {sequence: %d, bad value: %d, major opcode: %d, minor opcode: %d}",
		e.Name(), e.Sequence, e.BadValue, e.MajorOpcode, e.MinorOpcode)
}
