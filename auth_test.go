package yaxi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// authEntry encodes one Xauthority record: all fields length prefixed with
// a big endian u16.
func authEntry(family uint16, addr, disp, name string, data []byte) []byte {
	var b []byte
	putU16 := func(v uint16) { b = append(b, byte(v>>8), byte(v)) }
	putField := func(f []byte) {
		putU16(uint16(len(f)))
		b = append(b, f...)
	}
	putU16(family)
	putField([]byte(addr))
	putField([]byte(disp))
	putField([]byte(name))
	putField(data)
	return b
}

func writeAuthFile(t *testing.T, entries ...[]byte) {
	t.Helper()
	var b []byte
	for _, e := range entries {
		b = append(b, e...)
	}
	fname := filepath.Join(t.TempDir(), "Xauthority")
	require.NoError(t, os.WriteFile(fname, b, 0600))
	t.Setenv("XAUTHORITY", fname)
}

func TestReadAuthorityMatch(t *testing.T) {
	hostname, err := os.Hostname()
	require.NoError(t, err)

	cookie1 := []byte{1, 2, 3, 4}
	cookie2 := []byte{5, 6, 7, 8}
	writeAuthFile(t,
		authEntry(familyInternet, "otherhost", "0", "MIT-MAGIC-COOKIE-1", cookie1),
		authEntry(familyLocal, hostname, "1", "MIT-MAGIC-COOKIE-1", cookie2),
	)

	name, data, err := readAuthority("otherhost", "0")
	require.NoError(t, err)
	assert.Equal(t, "MIT-MAGIC-COOKIE-1", name)
	assert.Equal(t, cookie1, data)

	// An empty hostname means the local machine.
	name, data, err = readAuthority("", "1")
	require.NoError(t, err)
	assert.Equal(t, "MIT-MAGIC-COOKIE-1", name)
	assert.Equal(t, cookie2, data)
}

func TestReadAuthorityWildFamily(t *testing.T) {
	cookie := []byte{9, 9, 9}
	writeAuthFile(t,
		authEntry(familyWild, "", "0", "MIT-MAGIC-COOKIE-1", cookie),
	)

	_, data, err := readAuthority("whatever", "0")
	require.NoError(t, err)
	assert.Equal(t, cookie, data)
}

func TestReadAuthorityEmptyDisplayMatchesAll(t *testing.T) {
	cookie := []byte{1, 1, 1}
	writeAuthFile(t,
		authEntry(familyInternet, "somehost", "", "MIT-MAGIC-COOKIE-1", cookie),
	)

	_, data, err := readAuthority("somehost", "5")
	require.NoError(t, err)
	assert.Equal(t, cookie, data)
}

func TestReadAuthorityNoMatch(t *testing.T) {
	writeAuthFile(t,
		authEntry(familyInternet, "otherhost", "0", "MIT-MAGIC-COOKIE-1", []byte{1}),
	)

	_, _, err := readAuthority("nomatch", "3")
	assert.Error(t, err)
}

func TestReadAuthorityMissingFile(t *testing.T) {
	t.Setenv("XAUTHORITY", filepath.Join(t.TempDir(), "does-not-exist"))

	_, _, err := readAuthority("host", "0")
	assert.Error(t, err)
}
