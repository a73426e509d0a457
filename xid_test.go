package yaxi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdRange(t *testing.T) {
	defer leaksMonitor(t.Name()).checkTesting(t)

	c, _ := newTestConn(t, newTestServer())
	defer c.Close()

	seen := make(map[Id]bool)
	prev := Id(0)
	for i := 0; i < 1000; i++ {
		id, err := c.NewId()
		require.NoError(t, err)

		assert.False(t, seen[id], "id %#x handed out twice", id)
		seen[id] = true
		assert.Greater(t, id, prev)
		prev = id

		assert.Equal(t, uint32(testIdBase), uint32(id)&^testIdMask, "id %#x outside granted range", id)
	}
}

// The granted id space is finite and ids are never reused, so exhausting
// the mask is a permanent error.
func TestNewIdExhaustion(t *testing.T) {
	defer leaksMonitor(t.Name()).checkTesting(t)

	srv := newTestServer()
	srv.setup = testSetupBytes(0x02000000, 0x7, 1)
	lc := newLoopConn(t.Name(), srv.reply)

	c := &Conn{conn: lc}
	require.NoError(t, c.handshake())
	c, err := postNewConn(c)
	require.NoError(t, err)
	defer c.Close()

	for i := 1; i <= 7; i++ {
		id, err := c.NewId()
		require.NoError(t, err)
		assert.Equal(t, Id(0x02000000|uint32(i)), id)
	}

	for i := 0; i < 3; i++ {
		_, err := c.NewId()
		assert.ErrorIs(t, err, ErrIdsExhausted)
	}
}

// A sparse id mask still yields ids strictly inside base|mask.
func TestNewIdSparseMask(t *testing.T) {
	defer leaksMonitor(t.Name()).checkTesting(t)

	srv := newTestServer()
	srv.setup = testSetupBytes(0x02000000, 0x1c, 1)
	lc := newLoopConn(t.Name(), srv.reply)

	c := &Conn{conn: lc}
	require.NoError(t, c.handshake())
	c, err := postNewConn(c)
	require.NoError(t, err)
	defer c.Close()

	for i := 0; i < 7; i++ {
		id, err := c.NewId()
		require.NoError(t, err)
		assert.Equal(t, uint32(0), uint32(id)&^uint32(0x0200001c), "id %#x outside granted range", id)
	}
}
