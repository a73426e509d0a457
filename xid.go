package yaxi

// NewId generates a new unused resource identifier for use with requests
// like CreateWindow. Ids are unique for the lifetime of the Conn and are
// never reused, mirroring the server's own non-reuse guarantee; once the
// granted range is consumed, NewId fails with ErrIdsExhausted.
func (c *Conn) NewId() (Id, error) {
	select {
	case x := <-c.xidChan:
		return x.id, x.err
	case <-c.closed:
		return 0, ErrConnClosed
	}
}

// xid encapsulates a resource identifier being sent over the Conn.xidChan
// channel.
type xid struct {
	id  Id
	err error
}

// generateXids sends new ids down the channel for NewId to use. An id is
// the server granted base with a counter laid into the bit positions of
// the granted mask; the smallest set bit of the mask is the increment.
func (c *Conn) generateXids() {
	inc := c.Setup.ResourceIdMask & -c.Setup.ResourceIdMask
	max := c.Setup.ResourceIdMask
	last := uint32(0)
	for {
		var x xid
		if last > 0 && last >= max-inc+1 {
			x = xid{0, ErrIdsExhausted}
		} else {
			last += inc
			x = xid{Id(last | c.Setup.ResourceIdBase), nil}
		}

		select {
		case c.xidChan <- x:
		case <-c.closed:
			return
		}
	}
}
