package yaxi

import (
	"errors"
)

// Cookies pair requests with their eventual replies or errors through the
// sequence number assigned when the request was written.
type cookie struct {
	conn     *Conn
	Sequence uint16

	replyChan chan []byte
	errorChan chan error
	pingChan  chan bool
}

// There are three kinds of cookies:
// Requests with replies get a reply channel and an error channel; exactly
// one of the two fires.
// Checked requests without replies get a ping channel and an error channel.
// The ping is the demultiplexer saying "the server has answered something
// later than you, so your request went through" - a void request has no
// reply of its own.
// Unchecked requests without replies get no channels at all; an error they
// provoke surfaces on the unsolicited error channel.
func (c *Conn) newCookie(seq uint16, reply, checked bool) *cookie {
	ck := &cookie{conn: c, Sequence: seq}
	switch {
	case reply:
		ck.replyChan = make(chan []byte, 1)
		ck.errorChan = make(chan error, 1)
	case checked:
		ck.pingChan = make(chan bool, 1)
		ck.errorChan = make(chan error, 1)
	}
	return ck
}

// pending reports whether the demultiplexer needs to track this cookie.
func (ck *cookie) pending() bool {
	return ck.errorChan != nil
}

// reply blocks until the demultiplexer delivers the reply or error for this
// cookie's sequence number, or until the connection dies. A response that
// raced the close still wins.
func (ck *cookie) reply() ([]byte, error) {
	if ck.replyChan == nil {
		return nil, errors.New("cannot call reply on a cookie that is not expecting a reply")
	}
	select {
	case buf := <-ck.replyChan:
		return buf, nil
	case err := <-ck.errorChan:
		return nil, err
	case <-ck.conn.closed:
		select {
		case buf := <-ck.replyChan:
			return buf, nil
		case err := <-ck.errorChan:
			return nil, err
		default:
		}
		return nil, ErrConnClosed
	}
}

// check blocks until the fate of a void checked request is known. Since a
// void request has no reply, check forces a round trip so the server is
// made to answer something after it.
func (ck *cookie) check() error {
	if ck.pingChan == nil {
		return errors.New("cannot call check on a cookie that is expecting a reply; use reply instead")
	}

	select {
	case err := <-ck.errorChan:
		return err
	case <-ck.pingChan:
		return nil
	default:
	}

	ck.conn.Sync()

	select {
	case err := <-ck.errorChan:
		return err
	case <-ck.pingChan:
		return nil
	case <-ck.conn.closed:
		select {
		case err := <-ck.errorChan:
			return err
		case <-ck.pingChan:
			return nil
		default:
		}
		return ErrConnClosed
	}
}
