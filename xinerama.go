package yaxi

// Xinerama minor opcodes.
const (
	xineramaOpIsActive     = 4
	xineramaOpQueryScreens = 5
)

// XineramaInit negotiates the XINERAMA extension on the connection. It must
// succeed before the other Xinerama requests are used.
func (c *Conn) XineramaInit() error {
	_, err := c.RegisterExtension("XINERAMA")
	return err
}

func (c *Conn) xineramaRequest(minor byte) ([]byte, error) {
	info, err := c.RegisterExtension("XINERAMA")
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 4)
	buf[0] = info.MajorOpcode
	buf[1] = minor
	Put16(buf[2:], 1)
	return buf, nil
}

type XineramaIsActiveCookie struct {
	*cookie
}

type XineramaIsActiveReply struct {
	Sequence uint16
	State    uint32
}

// XineramaIsActive reports whether the server is currently compositing
// multiple physical screens into one logical screen.
func (c *Conn) XineramaIsActive() (XineramaIsActiveCookie, error) {
	buf, err := c.xineramaRequest(xineramaOpIsActive)
	if err != nil {
		return XineramaIsActiveCookie{}, err
	}
	ck, err := c.sendRequest(true, false, buf)
	return XineramaIsActiveCookie{ck}, err
}

func (ck XineramaIsActiveCookie) Reply() (*XineramaIsActiveReply, error) {
	buf, err := ck.reply()
	if err != nil {
		return nil, err
	}
	return &XineramaIsActiveReply{
		Sequence: Get16(buf[2:]),
		State:    Get32(buf[8:]),
	}, nil
}

type XineramaScreenInfo struct {
	XOrg   int16
	YOrg   int16
	Width  uint16
	Height uint16
}

type XineramaQueryScreensCookie struct {
	*cookie
}

type XineramaQueryScreensReply struct {
	Sequence uint16
	Screens  []XineramaScreenInfo
}

// XineramaQueryScreens retrieves the geometry of every physical screen
// behind the logical screen.
func (c *Conn) XineramaQueryScreens() (XineramaQueryScreensCookie, error) {
	buf, err := c.xineramaRequest(xineramaOpQueryScreens)
	if err != nil {
		return XineramaQueryScreensCookie{}, err
	}
	ck, err := c.sendRequest(true, false, buf)
	return XineramaQueryScreensCookie{ck}, err
}

func (ck XineramaQueryScreensCookie) Reply() (*XineramaQueryScreensReply, error) {
	buf, err := ck.reply()
	if err != nil {
		return nil, err
	}
	v := &XineramaQueryScreensReply{
		Sequence: Get16(buf[2:]),
		Screens:  make([]XineramaScreenInfo, Get32(buf[8:])),
	}
	for i := range v.Screens {
		b := buf[32+i*8:]
		v.Screens[i] = XineramaScreenInfo{
			XOrg:   int16(Get16(b)),
			YOrg:   int16(Get16(b[2:])),
			Width:  Get16(b[4:]),
			Height: Get16(b[6:]),
		}
	}
	return v, nil
}
