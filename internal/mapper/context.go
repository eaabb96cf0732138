// Package mapper projects values between the shared execution context and
// module input/output shapes using declarative dot-path rules.
package mapper

import (
	"sort"
	"strings"
)

// Context is the per-run dotted-path value store shared by all steps of one
// run. A run owns its context exclusively; it is never shared between runs,
// so no locking is needed. Reads of paths that were never written fail, which
// is how step ordering violations surface.
type Context struct {
	values map[string]any
}

// NewContext creates an empty execution context
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Seed writes initial values before the first step runs
func (c *Context) Seed(values map[string]any) {
	for path, v := range values {
		c.values[path] = v
	}
}

// Set writes a value at path, overwriting any previous value
func (c *Context) Set(path string, v any) {
	c.values[path] = v
}

// Get reads the value at path. The second return is false when the path has
// never been written. A dotted path may also reach inside a composite value
// stored at a shorter written path (e.g. "topic.title" inside a map written
// at "topic").
func (c *Context) Get(path string) (any, bool) {
	if v, ok := c.values[path]; ok {
		return v, true
	}

	// Walk up the path looking for a written prefix holding a composite.
	segments := strings.Split(path, ".")
	for cut := len(segments) - 1; cut > 0; cut-- {
		prefix := strings.Join(segments[:cut], ".")
		root, ok := c.values[prefix]
		if !ok {
			continue
		}
		return lookupPath(root, segments[cut:])
	}
	return nil, false
}

// Written reports whether path has a readable value
func (c *Context) Written(path string) bool {
	_, ok := c.Get(path)
	return ok
}

// Snapshot returns a copy of the flat path-to-value map for reporting
func (c *Context) Snapshot() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Paths returns all written paths in sorted order
func (c *Context) Paths() []string {
	paths := make([]string, 0, len(c.values))
	for k := range c.values {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths
}

// lookupPath descends into nested maps by path segments
func lookupPath(root any, segments []string) (any, bool) {
	current := root
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
