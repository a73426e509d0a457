package yaxi

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
)

const (
	xProtocolMajor = 11
	xProtocolMinor = 0
	xTCPPort       = 6000
)

// A Conn represents a connection to an X server. It is safe for concurrent
// use: any number of goroutines may issue requests, while a single internal
// reader owns the inbound side of the transport.
type Conn struct {
	host          string
	display       string
	displayNumber int
	defaultScreen int
	conn          net.Conn

	Setup SetupInfo

	// seqId is owned by the sendRequests goroutine.
	seqId uint16

	// cookies holds the outstanding requests in issue order. The server
	// answers in the same order, which is what lets the demultiplexer
	// resolve void checked requests by seeing past them.
	cookies    []*cookie
	cookieLock sync.Mutex

	events    queue
	eventChan chan bool
	queueLock sync.Mutex

	requestChan chan *request

	xidChan chan xid

	extensions map[string]*ExtensionInfo
	extLock    sync.Mutex

	unsolicited chan *ProtocolError

	closed    chan struct{}
	closeOnce sync.Once
	err       error
	errLock   sync.Mutex
}

// NewConn connects to the X server named by the DISPLAY environment
// variable.
func NewConn() (*Conn, error) {
	return NewConnDisplay("")
}

// NewConnDisplay is just like NewConn, but allows a specific DISPLAY
// string to be used. If display is empty it is taken from os.Getenv("DISPLAY").
//
// Examples:
//	NewConnDisplay(":1")                 -> net.Dial("unix", "/tmp/.X11-unix/X1")
//	NewConnDisplay("/tmp/launch-123/:0") -> net.Dial("unix", "/tmp/launch-123/")
//	NewConnDisplay("unix:/run/x11/sock") -> net.Dial("unix", "/run/x11/sock")
//	NewConnDisplay("hostname:2.1")       -> net.Dial("tcp", "hostname:6002")
//	NewConnDisplay("tcp/hostname:1.0")   -> net.Dial("tcp", "hostname:6001")
//	NewConnDisplay("hostname/tcp:1")     -> net.Dial("tcp", "hostname:6001")
func NewConnDisplay(display string) (*Conn, error) {
	info, err := parseDisplay(display)
	if err != nil {
		return nil, err
	}

	netConn, err := net.Dial(info.network, info.address)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		conn:          netConn,
		host:          info.host,
		display:       info.raw,
		displayNumber: info.display,
		defaultScreen: info.screen,
	}
	if err := c.handshake(); err != nil {
		netConn.Close()
		return nil, err
	}
	return postNewConn(c)
}

// NewConnNet performs the handshake over an already established transport.
// Useful for proxied connections and for tests.
func NewConnNet(netConn net.Conn) (*Conn, error) {
	c := &Conn{conn: netConn}
	if err := c.handshake(); err != nil {
		netConn.Close()
		return nil, err
	}
	return postNewConn(c)
}

// postNewConn finishes construction of an authenticated Conn: the resource
// id generator, the request writer and the packet reader.
func postNewConn(c *Conn) (*Conn, error) {
	c.closed = make(chan struct{})
	c.events = queue{make([][]byte, 100), 0, 0}
	c.eventChan = make(chan bool, readBuffer)
	c.requestChan = make(chan *request, writeBuffer)
	c.extensions = make(map[string]*ExtensionInfo)
	c.unsolicited = make(chan *ProtocolError, 16)

	c.xidChan = make(chan xid, 5)
	go c.generateXids()

	go c.sendRequests()
	go c.readPackets()

	return c, nil
}

// Close closes the connection to the X server. Every pending and future
// call on the Conn resolves with ErrConnClosed.
func (c *Conn) Close() {
	c.conn.Close()
}

// Err returns the error that killed the connection: the transport failure
// or desynchronization the reader died on, or io.EOF / a closed-network
// error after an orderly Close. It returns nil while the connection is
// alive.
func (c *Conn) Err() error {
	c.errLock.Lock()
	defer c.errLock.Unlock()
	return c.err
}

// DefaultScreen returns the ScreenInfo for the default screen, which is 0
// or the one given in the display string.
func (c *Conn) DefaultScreen() *ScreenInfo { return &c.Setup.Roots[c.defaultScreen] }

// Display returns the display string this Conn was opened with.
func (c *Conn) Display() string { return c.display }

// Id is used for all X resource identifiers, such as windows, pixmaps, and
// GCs.
type Id uint32

type displayInfo struct {
	raw     string
	network string
	address string
	host    string
	display int
	screen  int
}

// parseDisplay understands the DISPLAY grammar:
//
//	[host][/protocol]:display[.screen]
//	[protocol/][host]:display[.screen]
//	unix:path
//	/abs/socket/path:display[.screen]
//
// An empty host selects the local unix socket for that display number.
func parseDisplay(display string) (*displayInfo, error) {
	if len(display) == 0 {
		display = os.Getenv("DISPLAY")
	}
	if len(display) == 0 {
		return nil, fmt.Errorf("%w: empty display string and DISPLAY not set", ErrDisplayParse)
	}

	info := &displayInfo{raw: display}

	colon := strings.LastIndex(display, ":")
	if colon < 0 {
		return nil, fmt.Errorf("%w: %q has no colon", ErrDisplayParse, display)
	}
	host, rest := display[:colon], display[colon+1:]

	// Absolute socket path, launchd style.
	if strings.HasPrefix(display, "/") {
		if err := info.parseNumbers(rest); err != nil {
			return nil, err
		}
		info.network, info.address = "unix", host
		return info, nil
	}

	protocol := ""
	if slash := strings.Index(host, "/"); slash >= 0 {
		a, b := host[:slash], host[slash+1:]
		switch {
		case isProtocol(a):
			protocol, host = strings.ToLower(a), b
		case isProtocol(b):
			protocol, host = strings.ToLower(b), a
		default:
			return nil, fmt.Errorf("%w: unknown protocol in %q", ErrDisplayParse, display)
		}
	}

	// "unix:path" names the socket directly.
	if strings.EqualFold(host, "unix") {
		info.network, info.address = "unix", rest
		return info, nil
	}

	if err := info.parseNumbers(rest); err != nil {
		return nil, err
	}
	info.host = host

	if len(host) == 0 && protocol != "tcp" {
		info.network = "unix"
		info.address = "/tmp/.X11-unix/X" + strconv.Itoa(info.display)
	} else {
		if len(host) == 0 {
			host = "localhost"
		}
		info.network = "tcp"
		info.address = net.JoinHostPort(host, strconv.Itoa(xTCPPort+info.display))
	}
	return info, nil
}

func isProtocol(s string) bool {
	return strings.EqualFold(s, "tcp") || strings.EqualFold(s, "unix")
}

func (info *displayInfo) parseNumbers(rest string) error {
	screen := ""
	if dot := strings.Index(rest, "."); dot >= 0 {
		rest, screen = rest[:dot], rest[dot+1:]
	}

	num, err := strconv.Atoi(rest)
	if err != nil || num < 0 {
		return fmt.Errorf("%w: bad display number %q", ErrDisplayParse, rest)
	}
	info.display = num

	if len(screen) > 0 {
		num, err := strconv.Atoi(screen)
		if err != nil || num < 0 {
			return fmt.Errorf("%w: bad screen number %q", ErrDisplayParse, screen)
		}
		info.screen = num
	}
	return nil
}

// handshake performs the one-time connection setup exchange: byte order
// marker and credentials out, capability block back. On anything but
// success no usable Conn state exists.
func (c *Conn) handshake() error {
	authName, authData, err := readAuthority(c.host, strconv.Itoa(c.displayNumber))
	if err != nil {
		// Servers on trusted transports accept an empty credential.
		authName, authData = "", nil
	}

	buf := make([]byte, 12+pad(len(authName))+pad(len(authData)))
	buf[0] = 'l'
	Put16(buf[2:], xProtocolMajor)
	Put16(buf[4:], xProtocolMinor)
	Put16(buf[6:], uint16(len(authName)))
	Put16(buf[8:], uint16(len(authData)))
	copy(buf[12:], authName)
	copy(buf[12+pad(len(authName)):], authData)

	if _, err := c.conn.Write(buf); err != nil {
		return err
	}

	head := make([]byte, 8)
	if _, err := io.ReadFull(c.conn, head); err != nil {
		return err
	}

	c.Setup.ProtocolMajorVersion = Get16(head[2:])
	c.Setup.ProtocolMinorVersion = Get16(head[4:])

	rest := make([]byte, int(Get16(head[6:]))*4)
	if _, err := io.ReadFull(c.conn, rest); err != nil {
		return err
	}

	switch head[0] {
	case 0:
		reasonLen := int(head[1])
		if reasonLen > len(rest) {
			reasonLen = len(rest)
		}
		return &SetupError{Reason: string(rest[:reasonLen])}
	case 2:
		return &AuthenticateError{Reason: strings.TrimRight(string(rest), "\x00")}
	case 1:
		if _, err := c.Setup.read(rest); err != nil {
			return err
		}
		if c.defaultScreen >= len(c.Setup.Roots) {
			return fmt.Errorf("%w: screen %d requested but the server has %d",
				ErrDisplayParse, c.defaultScreen, len(c.Setup.Roots))
		}
		return nil
	default:
		return fmt.Errorf("unknown connection setup status %d", head[0])
	}
}

// shutdown tears the connection down after a transport failure or explicit
// close: every pending cookie resolves with ErrConnClosed and the event
// queue is closed. Only the readPackets goroutine calls this.
func (c *Conn) shutdown(err error) {
	c.errLock.Lock()
	if c.err == nil {
		c.err = err
	}
	c.errLock.Unlock()

	if err != io.EOF {
		c.logf("x protocol read error: %s", err)
	}

	c.conn.Close()
	c.closeOnce.Do(func() { close(c.closed) })

	c.cookieLock.Lock()
	for _, ck := range c.cookies {
		select {
		case ck.errorChan <- ErrConnClosed:
		default:
		}
	}
	c.cookies = nil
	c.cookieLock.Unlock()

	close(c.eventChan)
}
