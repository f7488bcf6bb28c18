package runner

import (
	"bytes"
	"io"
	"sync"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

// cappedOutput collects stdout and stderr against one shared byte budget.
// Writes past the budget are dropped but still reported as written so the
// child process is never blocked or killed by a short write.
type cappedOutput struct {
	mu        sync.Mutex
	limit     int
	used      int
	stdout    bytes.Buffer
	stderr    bytes.Buffer
	overflow  *bytes.Buffer
	truncated bool
}

func newCappedOutput(limit int) *cappedOutput {
	return &cappedOutput{limit: limit}
}

func (c *cappedOutput) Stdout() io.Writer { return streamWriter{c, &c.stdout} }
func (c *cappedOutput) Stderr() io.Writer { return streamWriter{c, &c.stderr} }

func (c *cappedOutput) write(dst *bytes.Buffer, p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.truncated {
		return
	}
	room := c.limit - c.used
	if len(p) <= room {
		dst.Write(p)
		c.used += len(p)
		return
	}
	if room > 0 {
		dst.Write(p[:room])
		c.used += room
	}
	c.truncated = true
	c.overflow = dst
}

// Result returns both streams, with the truncation marker appended to the
// stream that crossed the budget.
func (c *cappedOutput) Result() (stdout, stderr string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stdout, stderr = c.stdout.String(), c.stderr.String()
	switch c.overflow {
	case &c.stdout:
		stdout += domain.TruncatedMarker
	case &c.stderr:
		stderr += domain.TruncatedMarker
	}
	return stdout, stderr
}

func (c *cappedOutput) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncated
}

type streamWriter struct {
	out *cappedOutput
	dst *bytes.Buffer
}

func (w streamWriter) Write(p []byte) (int, error) {
	w.out.write(w.dst, p)
	return len(p), nil
}
