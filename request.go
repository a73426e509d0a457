package yaxi

const (
	readBuffer  = 100
	writeBuffer = 100
)

// request carries encoded wire bytes to the writer goroutine, which hands
// the assigned cookie back over cookieChan.
type request struct {
	buf        []byte
	needsReply bool
	checked    bool
	cookieChan chan *cookie
}

// sendRequest hands a fully encoded request to the writer and returns its
// cookie. Requests larger than the server's advertised maximum fail here
// with ErrRequestTooLong: nothing is written and no sequence number is
// consumed.
func (c *Conn) sendRequest(needsReply, checked bool, bufs ...[]byte) (*cookie, error) {
	buf := bufs[0]
	if len(bufs) > 1 {
		buf = make([]byte, 0)
		for _, b := range bufs {
			buf = append(buf, b...)
		}
	}

	if max := int(c.Setup.MaximumRequestLength); max > 0 && len(buf) > 4*max {
		return nil, ErrRequestTooLong
	}

	req := &request{
		buf:        buf,
		needsReply: needsReply,
		checked:    checked,
		cookieChan: make(chan *cookie, 1),
	}

	select {
	case c.requestChan <- req:
	case <-c.closed:
		return nil, ErrConnClosed
	}

	select {
	case ck := <-req.cookieChan:
		return ck, nil
	case <-c.closed:
		return nil, ErrConnClosed
	}
}

// sendRequests is the sole writer of the transport. It assigns sequence
// numbers, registers cookies and flushes the bytes, in that order: the
// waiter always exists before the server can possibly answer it. The
// sequence counter advances by exactly one for every request written,
// reply or not, and wraps silently at 2^16.
func (c *Conn) sendRequests() {
	for {
		var req *request
		select {
		case req = <-c.requestChan:
		case <-c.closed:
			return
		}

		c.seqId++
		ck := c.newCookie(c.seqId, req.needsReply, req.checked)

		if ck.pending() {
			// shutdown closes c.closed before draining c.cookies under
			// cookieLock, so re-checking it under the same lock means a
			// cookie is either drained by shutdown or resolved right
			// here; it can never be registered after the drain and left
			// with no goroutine to fail it.
			c.cookieLock.Lock()
			select {
			case <-c.closed:
				c.cookieLock.Unlock()
				ck.errorChan <- ErrConnClosed
			default:
				c.cookies = append(c.cookies, ck)
				c.cookieLock.Unlock()
			}
		}

		req.cookieChan <- ck

		if _, err := c.conn.Write(req.buf); err != nil {
			c.logf("x protocol write error: %s", err)
			// The reader notices the dead transport and shuts the
			// connection down.
			c.conn.Close()
			return
		}
	}
}

// Sync sends a round trip request and waits for its reply, guaranteeing
// that every request issued before it has been processed by the server.
func (c *Conn) Sync() {
	if ck, err := c.GetInputFocus(); err == nil {
		ck.Reply()
	}
}
