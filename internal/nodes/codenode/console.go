package codenode

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// capturedConsole records log/error/warn/info calls as an ordered list of
// strings instead of writing to a real console. Objects are serialized,
// primitives stringified, and the arguments of one call joined with a
// single space.
type capturedConsole struct {
	vm    *goja.Runtime
	calls []string
}

func newConsole(vm *goja.Runtime) *capturedConsole {
	return &capturedConsole{vm: vm}
}

func (c *capturedConsole) object() *goja.Object {
	capture := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = stringify(arg.Export())
		}
		c.calls = append(c.calls, strings.Join(parts, " "))
		return goja.Undefined()
	}

	obj := c.vm.NewObject()
	obj.Set("log", capture)
	obj.Set("error", capture)
	obj.Set("warn", capture)
	obj.Set("info", capture)
	return obj
}

func (c *capturedConsole) append(line string) {
	c.calls = append(c.calls, line)
}

// lines returns the captured calls as a slice the result schema's string
// array accepts.
func (c *capturedConsole) lines() []any {
	out := make([]any, len(c.calls))
	for i, line := range c.calls {
		out[i] = line
	}
	return out
}

func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}
