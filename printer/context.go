package printer

import (
	"io"
	"log"
)

// Context carries per-print ambient state.
type Context struct {
	// Log receives anomaly reports in addition to the inline comments.
	Log *log.Logger
}

// NewContext returns a context logging to l, or discarding when l is nil.
func NewContext(l *log.Logger) *Context {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	return &Context{Log: l}
}

func (c *Context) logger() *log.Logger {
	if c == nil || c.Log == nil {
		return log.New(io.Discard, "", 0)
	}
	return c.Log
}
