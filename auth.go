package yaxi

import (
	"bufio"
	"errors"
	"io"
	"os"
)

// Xauthority address families, as per /usr/include/X11/Xauth.h.
const (
	familyInternet = 0
	familyLocal    = 256
	familyWild     = 65535
)

// All fields of an Xauthority record are length prefixed with a big endian
// u16, unlike the protocol itself.
func getU16BE(r io.Reader, b []byte) (uint16, error) {
	_, err := io.ReadFull(r, b[0:2])
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 + uint16(b[1]), nil
}

func getBytes(r io.Reader, b []byte) ([]byte, error) {
	n, err := getU16BE(r, b)
	if err != nil {
		return nil, err
	}
	if int(n) > len(b) {
		return nil, errors.New("bytes too long for buffer")
	}
	_, err = io.ReadFull(r, b[0:n])
	if err != nil {
		return nil, err
	}
	return b[0:n], nil
}

func getString(r io.Reader, b []byte) (string, error) {
	b, err := getBytes(r, b)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readAuthority reads the Xauthority file and returns the authorization
// name and data for the given host and display number.
//
// The file is $XAUTHORITY, or $HOME/.Xauthority when unset. If hostname is
// empty or "localhost", the record is matched against os.Hostname under the
// local family; records with the wild family match any address. An empty
// display in a record matches every display.
func readAuthority(hostname, display string) (name string, data []byte, err error) {
	// b is a scratch buffer to use and should be at least 256 bytes long
	// (i.e. it should be able to hold a hostname).
	var b [256]byte

	if len(hostname) == 0 || hostname == "localhost" {
		hostname, err = os.Hostname()
		if err != nil {
			return "", nil, err
		}
	}

	fname := os.Getenv("XAUTHORITY")
	if len(fname) == 0 {
		home := os.Getenv("HOME")
		if len(home) == 0 {
			return "", nil, errors.New("Xauthority not found: $XAUTHORITY, $HOME not set")
		}
		fname = home + "/.Xauthority"
	}

	r, err := os.Open(fname)
	if err != nil {
		return "", nil, err
	}
	defer r.Close()

	br := bufio.NewReader(r)
	for {
		family, err := getU16BE(br, b[0:2])
		if err != nil {
			return "", nil, err
		}

		addr, err := getString(br, b[0:])
		if err != nil {
			return "", nil, err
		}

		disp, err := getString(br, b[0:])
		if err != nil {
			return "", nil, err
		}

		name0, err := getString(br, b[0:])
		if err != nil {
			return "", nil, err
		}

		data0, err := getBytes(br, b[0:])
		if err != nil {
			return "", nil, err
		}

		addrMatch := family == familyWild ||
			(family == familyLocal && addr == hostname) ||
			(family == familyInternet && addr == hostname)
		dispMatch := len(disp) == 0 || disp == display

		if addrMatch && dispMatch {
			return name0, append([]byte(nil), data0...), nil
		}
	}
}
