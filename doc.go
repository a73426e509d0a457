/*
Package yaxi is a from-scratch client for the core X11 protocol. It speaks
the wire format directly over a unix or tcp socket, with no dependency on
Xlib or XCB.

The protocol engine is the interesting part: one writer serializes requests
and stamps each with a 16-bit sequence number, and one reader demultiplexes
everything the server sends back into replies, errors and events. Replies
and errors are paired with their originating request through cookies, in the
style of XCB, so any number of goroutines can issue requests concurrently on
a single connection.

Example

Connect to the display named by $DISPLAY, create a window and print events:

	X, err := yaxi.NewConn()
	if err != nil {
		log.Fatal(err)
	}

	wid, _ := X.NewId()
	X.CreateWindow(X.DefaultScreen().RootDepth, wid, X.DefaultScreen().Root,
		0, 0, 500, 500, 0,
		yaxi.WindowClassInputOutput, X.DefaultScreen().RootVisual,
		yaxi.CwEventMask,
		[]uint32{yaxi.EventMaskStructureNotify | yaxi.EventMaskKeyPress})
	X.MapWindow(wid)

	for {
		ev, err := X.WaitForEvent()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%T %v\n", ev, ev)
	}

Requests that return data block on Reply(), which resolves with either the
server's reply or the protocol error the request provoked:

	atom, err := X.InternAtom(false, "WM_PROTOCOLS")
	reply, err := atom.Reply()

Requests without replies normally report failures asynchronously through
UnsolicitedError(). Use the Checked variant and Check() when a synchronous
verdict is wanted; Check forces a round trip.

Extensions are negotiated by name through RegisterExtension, which caches
the major opcode and the event/error code bases the server assigned. The
xinerama calls in this package show the pattern.
*/
package yaxi
