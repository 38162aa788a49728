package vars

// Context is the variable namespace visible to templates. It is built once
// per invocation and never changes afterwards.
type Context struct {
	values map[string]Value
}

func (c Context) Get(name string) (Value, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Keys returns the top-level names in sorted order.
func (c Context) Keys() []string {
	return sortedKeys(c.values)
}

func (c Context) Len() int {
	return len(c.values)
}

// Data returns a fresh native copy of the namespace, safe to hand to the
// template engine.
func (c Context) Data() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v.Native()
	}
	return out
}

// NewContext copies values into a new Context. Mostly useful in tests.
func NewContext(values map[string]Value) Context {
	cp := make(map[string]Value, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return Context{values: cp}
}
