// Package inliner implements the recursive include/externalRef resolution
// engine: URL tracking, override application, combine-group merging, and
// namespace-context preservation across document boundaries.
package inliner

import (
	"fmt"

	rngerrors "github.com/jacoelho/rnginline/errors"
	"github.com/jacoelho/rnginline/internal/xml"
)

// frame records one document being inlined on the active call stack.
type frame struct {
	url     string
	trigger *xml.Element // include/externalRef that pulled the document in; nil for the root
}

// Context carries the per-invocation state of one inline run: the stack of
// URLs currently being resolved (the cycle guard) and the cache of
// dereferenced bytes. It is owned by a single run and never shared.
type Context struct {
	stack []frame
	bytes map[string][]byte
}

// NewContext returns an empty per-invocation context.
func NewContext() *Context {
	return &Context{bytes: make(map[string][]byte)}
}

// Cached returns previously dereferenced bytes for url.
func (c *Context) Cached(url string) ([]byte, bool) {
	data, ok := c.bytes[url]
	return data, ok
}

// Store records the dereferenced bytes for url.
func (c *Context) Store(url string, data []byte) {
	c.bytes[url] = data
}

// InStack reports whether url is currently being inlined. The empty URL
// (a root document with no known base) never participates.
func (c *Context) InStack(url string) bool {
	if url == "" {
		return false
	}
	for _, f := range c.stack {
		if f.url == url {
			return true
		}
	}
	return false
}

// Push adds a document to the active stack, failing when the URL is
// already being inlined.
func (c *Context) Push(url string, trigger *xml.Element) error {
	if c.InStack(url) {
		return c.cycleError(url, trigger)
	}
	c.stack = append(c.stack, frame{url: url, trigger: trigger})
	return nil
}

// Pop removes the most recent stack entry.
func (c *Context) Pop() {
	if len(c.stack) == 0 {
		panic("inliner: pop of empty context stack")
	}
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *Context) cycleError(url string, trigger *xml.Element) error {
	chain := make([]string, 0, len(c.stack)+1)
	for i, f := range c.stack {
		chain = append(chain, describeFrame(f.url, frameTrigger(c.stack, i)))
	}
	chain = append(chain, describeFrame(url, trigger))
	err := rngerrors.New(rngerrors.ErrCircularInclude, "schema includes itself").WithURI(url)
	err.Cycle = chain
	if trigger != nil {
		err.Line = trigger.Line
	}
	return err
}

// frameTrigger returns the element that pulled frame i in: the trigger
// recorded on frame i itself.
func frameTrigger(stack []frame, i int) *xml.Element {
	return stack[i].trigger
}

func describeFrame(url string, trigger *xml.Element) string {
	if url == "" {
		url = "(unknown)"
	}
	if trigger == nil {
		return url
	}
	return fmt.Sprintf("%s (via <%s> at line %d)", url, trigger.Local, trigger.Line)
}
