// Package trace carries an opaque distributed-trace context between tasks.
//
// Tasks never interpret the context; they only forward it to the tasks they
// dispatch, the way a monitoring agent's headers travel across process hops.
package trace

import (
	"maps"
	"strconv"

	"github.com/google/uuid"
)

// HeaderN is the header that records the task input a context was forwarded from.
const HeaderN = "n"

// Context is an immutable set of trace headers keyed by a trace id.
// The zero value is an empty, untraced context.
type Context struct {
	TraceID string
	Parent  string
	headers map[string]string
}

// New starts a fresh trace.
func New() Context {
	return Context{TraceID: uuid.NewString()}
}

// Child returns a context in the same trace whose parent is c.
func (c Context) Child() Context {
	if c.TraceID == "" {
		return New()
	}
	return Context{
		TraceID: c.TraceID,
		Parent:  c.spanID(),
		headers: maps.Clone(c.headers),
	}
}

// With returns a copy of c carrying the header key=value.
func (c Context) With(key, value string) Context {
	h := make(map[string]string, len(c.headers)+1)
	maps.Copy(h, c.headers)
	h[key] = value
	c.headers = h
	return c
}

// WithN records the task input n, mirroring the agent's {"n": n} header insertion.
func (c Context) WithN(n int) Context {
	return c.With(HeaderN, strconv.Itoa(n))
}

// Header returns the value of a header.
func (c Context) Header(key string) (string, bool) {
	v, ok := c.headers[key]
	return v, ok
}

// Headers returns a copy of all headers, including the trace id.
func (c Context) Headers() map[string]string {
	h := maps.Clone(c.headers)
	if h == nil {
		h = make(map[string]string, 2)
	}
	if c.TraceID != "" {
		h["trace_id"] = c.TraceID
	}
	if c.Parent != "" {
		h["parent_id"] = c.Parent
	}
	return h
}

// IsZero reports whether c belongs to no trace.
func (c Context) IsZero() bool {
	return c.TraceID == ""
}

const spanPrefixLen = 8

func (c Context) spanID() string {
	id := c.TraceID
	if len(id) > spanPrefixLen {
		id = id[:spanPrefixLen]
	}
	if n, ok := c.headers[HeaderN]; ok {
		return id + "/" + n
	}
	return id
}
