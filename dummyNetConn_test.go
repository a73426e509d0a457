package yaxi

import (
	"bytes"
	"errors"
	"io"
	"net"
	"time"
)

var (
	errLoopClosed = errors.New("test transport closed")
	errLoopWrite  = errors.New("test transport write refused")
)

type loopAddr struct {
	s string
}

func (_ loopAddr) Network() string { return "loop" }
func (a loopAddr) String() string  { return a.s }

type loopIoResult struct {
	n   int
	err error
}

type loopIo struct {
	b      []byte
	result chan loopIoResult
}

type loopWriteBreak struct{}
type loopReadBlock struct{}
type loopReadUnblock struct{}
type loopInject struct {
	b []byte
}

// loopConn is an in-memory net.Conn backed by a reply function: every
// successful Write feeds the written bytes to reply and queues whatever it
// returns for later Reads. Inject queues bytes without a write, which is
// how tests make the "server" speak first (events, unsolicited errors).
type loopConn struct {
	reply   func([]byte) []byte
	addr    loopAddr
	in, out chan loopIo
	control chan interface{}
	done    chan struct{}
}

func newLoopConn(name string, reply func([]byte) []byte) *loopConn {
	s := &loopConn{
		reply:   reply,
		addr:    loopAddr{name},
		in:      make(chan loopIo),
		out:     make(chan loopIo),
		control: make(chan interface{}),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *loopConn) run() {
	defer close(s.done)

	buf := &bytes.Buffer{}
	in, out := s.in, chan loopIo(nil)
	writeBroken, readBlocked := false, false

	for {
		select {
		case lio := <-in:
			if writeBroken {
				lio.result <- loopIoResult{0, errLoopWrite}
				break
			}
			if s.reply != nil {
				buf.Write(s.reply(lio.b))
			}
			lio.result <- loopIoResult{len(lio.b), nil}
			if !readBlocked && buf.Len() > 0 {
				out = s.out
			}
		case lio := <-out:
			n, err := buf.Read(lio.b)
			lio.result <- loopIoResult{n, err}
			if buf.Len() == 0 {
				out = nil
			}
		case ci := <-s.control:
			switch ci := ci.(type) {
			case nil:
				return
			case loopInject:
				buf.Write(ci.b)
				if !readBlocked && buf.Len() > 0 {
					out = s.out
				}
			case loopWriteBreak:
				writeBroken = true
			case loopReadBlock:
				readBlocked, out = true, nil
			case loopReadUnblock:
				readBlocked = false
				if buf.Len() > 0 {
					out = s.out
				}
			}
		}
	}
}

func (s *loopConn) Write(b []byte) (int, error) {
	resChan := make(chan loopIoResult)
	select {
	case s.in <- loopIo{b, resChan}:
		res := <-resChan
		return res.n, res.err
	case <-s.done:
	}
	return 0, errLoopClosed
}

// Read blocks until the internal buffer is non-empty, then drains from it.
// A closed loopConn reads io.EOF, like a closed socket would.
func (s *loopConn) Read(b []byte) (int, error) {
	resChan := make(chan loopIoResult)
	select {
	case s.out <- loopIo{b, resChan}:
		res := <-resChan
		return res.n, res.err
	case <-s.done:
	}
	return 0, io.EOF
}

func (s *loopConn) Close() error {
	select {
	case s.control <- nil:
		<-s.done
		return nil
	case <-s.done:
	}
	return errLoopClosed
}

func (s *loopConn) ctl(i interface{}) error {
	select {
	case s.control <- i:
		return nil
	case <-s.done:
	}
	return errLoopClosed
}

// Inject queues bytes for reading as if the server sent them unprompted.
func (s *loopConn) Inject(b []byte) error { return s.ctl(loopInject{b}) }

// BreakWrites makes every following Write fail.
func (s *loopConn) BreakWrites() error { return s.ctl(loopWriteBreak{}) }

// BlockReads makes every following Read block until UnblockReads.
func (s *loopConn) BlockReads() error { return s.ctl(loopReadBlock{}) }

func (s *loopConn) UnblockReads() error { return s.ctl(loopReadUnblock{}) }

func (s *loopConn) LocalAddr() net.Addr                { return s.addr }
func (s *loopConn) RemoteAddr() net.Addr               { return s.addr }
func (s *loopConn) SetDeadline(t time.Time) error      { return nil }
func (s *loopConn) SetReadDeadline(t time.Time) error  { return nil }
func (s *loopConn) SetWriteDeadline(t time.Time) error { return nil }
