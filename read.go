package yaxi

import (
	"fmt"
	"io"
)

// readPackets owns the read side of the transport. Every inbound packet is
// classified by its first byte: 0 is an error, 1 is a reply, anything above
// is an event. The loop ends when the transport does, at which point every
// pending waiter resolves with ErrConnClosed.
func (c *Conn) readPackets() {
	for {
		buf := make([]byte, 32)
		if _, err := io.ReadFull(c.conn, buf); err != nil {
			c.shutdown(err)
			return
		}

		switch buf[0] {
		case 0:
			err := newProtocolError(buf)
			if ext := c.extensionForError(err.Code); ext != nil {
				err.Extension = ext.Name
			}

			if ck := c.claimCookie(err.Sequence); ck != nil {
				ck.errorChan <- err
			} else {
				select {
				case c.unsolicited <- err:
				default:
					c.logf("dropping unsolicited error: %s", err)
				}
			}
		case 1:
			seq := Get16(buf[2:])

			// The length field counts extra 4-byte words beyond the
			// fixed 32-byte reply.
			if size := Get32(buf[4:]); size > 0 {
				bigbuf := make([]byte, 32+size*4)
				copy(bigbuf, buf)
				if _, err := io.ReadFull(c.conn, bigbuf[32:]); err != nil {
					c.shutdown(err)
					return
				}
				buf = bigbuf
			}

			ck := c.claimCookie(seq)
			if ck == nil || ck.replyChan == nil {
				// A reply nothing is waiting for means we have lost
				// track of the sequence space. Nothing after this
				// point can be attributed safely.
				c.shutdown(fmt.Errorf("reply with sequence %d matches no outstanding request: connection desynchronized", seq))
				return
			}
			ck.replyChan <- buf
		default:
			c.events.enqueue(c, buf)
			select {
			case c.eventChan <- true:
			default:
			}
		}
	}
}

// claimCookie removes and returns the pending cookie for seq. The server
// answers requests in issue order, so any older void checked cookies in
// front of it are complete by implication: they get pinged on the way.
// Returns nil if nothing pending matches, which is fatal for replies and
// merely unsolicited for errors.
func (c *Conn) claimCookie(seq uint16) *cookie {
	c.cookieLock.Lock()
	defer c.cookieLock.Unlock()

	for len(c.cookies) > 0 {
		ck := c.cookies[0]
		if ck.Sequence == seq {
			c.cookies = c.cookies[1:]
			return ck
		}
		if ck.pingChan == nil {
			// An older request still waiting on its reply; this packet
			// cannot belong to anything pending.
			return nil
		}
		select {
		case ck.pingChan <- true:
		default:
		}
		c.cookies = c.cookies[1:]
	}
	return nil
}

// UnsolicitedError exposes server errors that no request was waiting for:
// errors provoked by unchecked void requests, or whose waiter gave up. The
// channel is buffered; if nothing drains it, further errors are logged and
// dropped rather than blocking the demultiplexer.
func (c *Conn) UnsolicitedError() <-chan *ProtocolError {
	return c.unsolicited
}
