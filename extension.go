package yaxi

import (
	"strings"
)

// ExtensionInfo describes a negotiated protocol extension: the major
// opcode its requests must carry and the bases of the event and error code
// ranges the server assigned to it for this connection.
type ExtensionInfo struct {
	Name        string
	MajorOpcode byte
	FirstEvent  byte
	FirstError  byte
}

// RegisterExtension resolves an extension by name, querying the server on
// first use and caching the result for the lifetime of the Conn. An absent
// extension fails with ErrExtensionNotPresent and is not cached, so a
// later call asks the server again.
func (c *Conn) RegisterExtension(name string) (*ExtensionInfo, error) {
	nameUpper := strings.ToUpper(name)

	c.extLock.Lock()
	if info, ok := c.extensions[nameUpper]; ok {
		c.extLock.Unlock()
		return info, nil
	}
	c.extLock.Unlock()

	ck, err := c.QueryExtension(nameUpper)
	if err != nil {
		return nil, err
	}
	reply, err := ck.Reply()
	if err != nil {
		return nil, err
	}
	if !reply.Present {
		return nil, ErrExtensionNotPresent
	}

	info := &ExtensionInfo{
		Name:        nameUpper,
		MajorOpcode: reply.MajorOpcode,
		FirstEvent:  reply.FirstEvent,
		FirstError:  reply.FirstError,
	}

	c.extLock.Lock()
	c.extensions[nameUpper] = info
	c.extLock.Unlock()

	return info, nil
}

// extensionForEvent attributes an event code to the registered extension
// whose event range contains it: the extension with the highest first
// event code not above the given code.
func (c *Conn) extensionForEvent(code byte) *ExtensionInfo {
	c.extLock.Lock()
	defer c.extLock.Unlock()

	var best *ExtensionInfo
	for _, info := range c.extensions {
		if info.FirstEvent == 0 || code < info.FirstEvent {
			continue
		}
		if best == nil || info.FirstEvent > best.FirstEvent {
			best = info
		}
	}
	return best
}

func (c *Conn) extensionForError(code byte) *ExtensionInfo {
	c.extLock.Lock()
	defer c.extLock.Unlock()

	var best *ExtensionInfo
	for _, info := range c.extensions {
		if info.FirstError == 0 || code < info.FirstError {
			continue
		}
		if best == nil || info.FirstError > best.FirstError {
			best = info
		}
	}
	return best
}
