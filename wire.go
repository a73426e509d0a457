package yaxi

// Everything on the wire is little endian: the connection advertises the
// 'l' byte order marker during setup, so these codecs apply to the whole
// lifetime of a Conn.

// Pad a length to align on 4 bytes.
func pad(n int) int { return (n + 3) & ^3 }

func Put16(buf []byte, v uint16) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
}

func Put32(buf []byte, v uint32) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}

func Get16(buf []byte) uint16 {
	v := uint16(buf[0])
	v |= uint16(buf[1]) << 8
	return v
}

func Get32(buf []byte) uint32 {
	v := uint32(buf[0])
	v |= uint32(buf[1]) << 8
	v |= uint32(buf[2]) << 16
	v |= uint32(buf[3]) << 24
	return v
}

// bytesPadded copies b and appends zero bytes up to the next 4-byte
// boundary. The server's parser counts request lengths in 4-byte words, so
// this padding is load bearing, not cosmetic.
func bytesPadded(b []byte) []byte {
	return append(append(make([]byte, 0, pad(len(b))), b...), make([]byte, pad(len(b))-len(b))...)
}

func stringPadded(s string) []byte {
	return bytesPadded([]byte(s))
}

// popCount counts the bits set in a value list mask.
func popCount(mask0 uint32) int {
	mask := mask0
	n := 0
	for i := uint32(0); i < 32; i++ {
		if mask&(1<<i) != 0 {
			n++
		}
	}
	return n
}
