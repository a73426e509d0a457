package yaxi

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testIdBase        = 0x04000000
	testIdMask        = 0x001fffff
	testMaxRequestLen = 0xffff
)

// testSetupBytes builds a complete successful connection setup response:
// the 8-byte header plus a capability block with the given resource id
// range and screens, each with one 24-bit TrueColor depth.
func testSetupBytes(base, mask uint32, screens int) []byte {
	vendor := "yaxi test server" // 16 bytes, already 4-byte aligned

	body := make([]byte, 32+len(vendor)+8+72*screens)
	Put32(body[0:], 12101000)
	Put32(body[4:], base)
	Put32(body[8:], mask)
	Put32(body[12:], 256)
	Put16(body[16:], uint16(len(vendor)))
	Put16(body[18:], testMaxRequestLen)
	body[20] = byte(screens)
	body[21] = 1 // pixmap formats
	body[24] = 32
	body[25] = 32
	body[26] = 8
	body[27] = 255
	copy(body[32:], vendor)

	b := 32 + len(vendor)
	body[b] = 24
	body[b+1] = 32
	body[b+2] = 32
	b += 8

	for i := 0; i < screens; i++ {
		Put32(body[b:], uint32(0x100+i))  // root window
		Put32(body[b+4:], uint32(0x20+i)) // default colormap
		Put32(body[b+8:], 0xffffff)
		Put16(body[b+20:], 1920)
		Put16(body[b+22:], 1080)
		Put16(body[b+24:], 508)
		Put16(body[b+26:], 285)
		Put16(body[b+28:], 1)
		Put16(body[b+30:], 1)
		Put32(body[b+32:], uint32(0x21+i)) // root visual
		body[b+36] = 1
		body[b+38] = 24
		body[b+39] = 1 // depths
		b += 40

		body[b] = 24
		Put16(body[b+2:], 1) // visuals
		b += 8

		Put32(body[b:], uint32(0x21+i))
		body[b+4] = 4 // TrueColor
		body[b+5] = 8
		Put16(body[b+6:], 256)
		Put32(body[b+8:], 0xff0000)
		Put32(body[b+12:], 0x00ff00)
		Put32(body[b+16:], 0x0000ff)
		b += 24
	}

	res := make([]byte, 8+len(body))
	res[0] = 1
	Put16(res[2:], xProtocolMajor)
	Put16(res[4:], xProtocolMinor)
	Put16(res[6:], uint16(len(body)/4))
	copy(res[8:], body)
	return res
}

// testServer speaks just enough of the server side of the protocol to
// exercise a Conn over a loopConn: it answers the setup request once, then
// tracks the sequence counter and replies per opcode. Knobs:
//
// mute drops every post-setup response while still advancing the sequence
// counter, leaving requests forever outstanding.
// skewReplies answers with sequence numbers no request was assigned.
// badWindows maps resource ids to the error code requests against them
// provoke.
type testServer struct {
	mu          sync.Mutex
	seq         uint16
	setup       []byte
	mute        bool
	skewReplies bool
	extensions  map[string]ExtensionInfo
	queries     map[string]int
	badWindows  map[Id]byte
}

func newTestServer() *testServer {
	return &testServer{
		setup:      testSetupBytes(testIdBase, testIdMask, 1),
		extensions: make(map[string]ExtensionInfo),
		queries:    make(map[string]int),
		badWindows: make(map[Id]byte),
	}
}

func (s *testServer) reply(b []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.setup != nil {
		res := s.setup
		s.setup = nil
		return res
	}

	s.seq++
	if s.mute {
		return nil
	}
	seq := s.seq
	if s.skewReplies {
		seq += 7
	}

	switch b[0] {
	case opGetInputFocus:
		res := make([]byte, 32)
		res[0] = 1
		Put16(res[2:], seq)
		Put32(res[8:], 0x100)
		return res

	case opInternAtom:
		// The first 4 bytes of the name are echoed back as the atom, so
		// tests can verify a reply landed on the request that caused it.
		name := make([]byte, 4)
		copy(name, b[8:8+Get16(b[4:])])
		res := make([]byte, 32)
		res[0] = 1
		Put16(res[2:], seq)
		Put32(res[8:], Get32(name))
		return res

	case opGetAtomName:
		name := fmt.Sprintf("NAME-%d", Get32(b[4:]))
		res := make([]byte, 32+pad(len(name)))
		res[0] = 1
		Put16(res[2:], seq)
		Put32(res[4:], uint32(pad(len(name))/4))
		Put16(res[8:], uint16(len(name)))
		copy(res[32:], name)
		return res

	case opGetGeometry:
		res := make([]byte, 32)
		res[0] = 1
		res[1] = 24
		Put16(res[2:], seq)
		Put32(res[8:], 0x100)
		Put16(res[12:], 10)
		Put16(res[14:], 20)
		Put16(res[16:], 640)
		Put16(res[18:], 480)
		Put16(res[20:], 2)
		return res

	case opMapWindow, opUnmapWindow, opDestroyWindow, opConfigureWindow:
		wid := Id(Get32(b[4:]))
		if code, ok := s.badWindows[wid]; ok {
			res := make([]byte, 32)
			res[1] = code
			Put16(res[2:], seq)
			Put32(res[4:], uint32(wid))
			res[10] = b[0]
			return res
		}
		return nil

	case opQueryExtension:
		name := string(b[8 : 8+Get16(b[4:])])
		s.queries[name]++
		res := make([]byte, 32)
		res[0] = 1
		Put16(res[2:], seq)
		if info, ok := s.extensions[name]; ok {
			res[8] = 1
			res[9] = info.MajorOpcode
			res[10] = info.FirstEvent
			res[11] = info.FirstError
		}
		return res
	}

	if info, ok := s.extensions["XINERAMA"]; ok && b[0] == info.MajorOpcode {
		switch b[1] {
		case xineramaOpIsActive:
			res := make([]byte, 32)
			res[0] = 1
			Put16(res[2:], seq)
			Put32(res[8:], 1)
			return res
		case xineramaOpQueryScreens:
			screens := []XineramaScreenInfo{
				{XOrg: 0, YOrg: 0, Width: 1920, Height: 1080},
				{XOrg: 1920, YOrg: 0, Width: 1280, Height: 1024},
			}
			res := make([]byte, 32+8*len(screens))
			res[0] = 1
			Put16(res[2:], seq)
			Put32(res[4:], uint32(len(screens)*2))
			Put32(res[8:], uint32(len(screens)))
			for i, sc := range screens {
				o := 32 + i*8
				Put16(res[o:], uint16(sc.XOrg))
				Put16(res[o+2:], uint16(sc.YOrg))
				Put16(res[o+4:], sc.Width)
				Put16(res[o+6:], sc.Height)
			}
			return res
		}
	}

	return nil
}

// eventBytes builds a 32-byte event packet with the given code and body.
func eventBytes(code byte, body func(buf []byte)) []byte {
	buf := make([]byte, 32)
	buf[0] = code
	if body != nil {
		body(buf)
	}
	return buf
}

func newTestConn(t *testing.T, srv *testServer) (*Conn, *loopConn) {
	t.Helper()
	lc := newLoopConn(t.Name(), srv.reply)
	c, err := NewConnNet(lc)
	require.NoError(t, err)
	return c, lc
}
