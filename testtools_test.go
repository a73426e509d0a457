package yaxi

import (
	"bytes"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"
)

// stack returns a formatted stack trace of all goroutines, growing the
// buffer until the whole trace fits.
func stack() []byte {
	buf := make([]byte, 1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return buf[:n]
		}
		buf = make([]byte, 2*len(buf))
	}
}

type goroutine struct {
	id    int
	name  string
	stack []byte
}

// leaks is a snapshot of the goroutines alive at some point, used to catch
// goroutines a test leaves behind.
type leaks struct {
	name       string
	goroutines map[int]goroutine
}

func leaksMonitor(name string) leaks {
	return leaks{name, leaks{}.collectGoroutines()}
}

var goroutineIdPattern = regexp.MustCompile(`^\s*goroutine\s*(\d+)`)

func (_ leaks) collectGoroutines() map[int]goroutine {
	res := make(map[int]goroutine)
	for _, st := range bytes.Split(stack(), []byte{'\n', '\n'}) {
		lines := bytes.Split(st, []byte{'\n'})
		if len(lines) < 2 {
			continue
		}
		idMatches := goroutineIdPattern.FindSubmatch(lines[0])
		if len(idMatches) < 2 {
			continue
		}
		id, err := strconv.Atoi(string(idMatches[1]))
		if err != nil {
			panic("converting goroutine id to number error: " + err.Error())
		}
		res[id] = goroutine{id, strings.TrimSpace(string(lines[1])), st}
	}
	return res
}

func (l leaks) checkTesting(t *testing.T) {
	if len(l.collectGoroutines()) == len(l.goroutines) {
		return
	}

	// Goroutines don't die synchronously with whatever unblocks them, so
	// give stragglers a moment before declaring a leak.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(l.collectGoroutines()) == len(l.goroutines) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	goroutines := l.collectGoroutines()
	if len(goroutines) == len(l.goroutines) {
		return
	}
	t.Errorf("%s: %d goroutine leaks: start(%d) != end(%d)",
		l.name, len(goroutines)-len(l.goroutines), len(l.goroutines), len(goroutines))
	for id, gr := range goroutines {
		if _, ok := l.goroutines[id]; ok {
			continue
		}
		t.Log(gr.name, "\n", string(gr.stack))
	}
}
