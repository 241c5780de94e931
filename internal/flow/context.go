package flow

// RunContext carries named variables across node invocations within one
// workflow run. It is shared by reference along a dependency chain and is
// not safe for concurrent writers: the orchestrator must serialize writes
// from independent branches touching the same key.
type RunContext struct {
	vars map[string]any
}

func NewRunContext(seed map[string]any) *RunContext {
	vars := make(map[string]any, len(seed))
	for k, v := range seed {
		vars[k] = v
	}
	return &RunContext{vars: vars}
}

func (c *RunContext) Get(name string) (any, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Set appends a result under a caller-assigned variable name between node
// invocations.
func (c *RunContext) Set(name string, value any) {
	c.vars[name] = value
}

// Scoped returns the view of the context a node is allowed to read: only
// the entries it explicitly declared as input variables. Declared names
// absent from the context are simply not included.
func (c *RunContext) Scoped(allow []string) map[string]any {
	out := make(map[string]any, len(allow))
	for _, name := range allow {
		if v, ok := c.vars[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Snapshot copies the full variable map, for logging and API responses.
func (c *RunContext) Snapshot() map[string]any {
	out := make(map[string]any, len(c.vars))
	for k, v := range c.vars {
		out[k] = v
	}
	return out
}
