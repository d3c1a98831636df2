package worker

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"sync"
)

// maxDetail bounds how much trailing output a Failure carries.
const maxDetail = 4 << 10

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}

// errorCounter forwards generator output and counts lines that match the
// error pattern. Partial lines are held until a newline or Flush.
type errorCounter struct {
	pattern *regexp.Regexp
	out     io.Writer
	partial []byte
	count   int
	errors  *tailBuffer
	tail    *tailBuffer
}

func newErrorCounter(pattern *regexp.Regexp, out io.Writer) *errorCounter {
	return &errorCounter{
		pattern: pattern,
		out:     out,
		errors:  newTailBuffer(maxDetail),
		tail:    newTailBuffer(maxDetail),
	}
}

func (c *errorCounter) Write(p []byte) (int, error) {
	c.partial = append(c.partial, p...)
	for {
		i := bytes.IndexByte(c.partial, '\n')
		if i < 0 {
			break
		}
		c.line(c.partial[:i+1])
		c.partial = c.partial[i+1:]
	}
	return len(p), nil
}

// Flush processes a trailing line with no newline.
func (c *errorCounter) Flush() {
	if len(c.partial) > 0 {
		c.line(append(c.partial, '\n'))
		c.partial = nil
	}
}

func (c *errorCounter) line(l []byte) {
	_, _ = c.out.Write(l)
	_, _ = c.tail.Write(l)
	if c.pattern.Match(bytes.TrimRight(l, "\r\n")) {
		c.count++
		_, _ = c.errors.Write(l)
	}
}
