// Package codenode contributes the arbitrary-code node. It is the only
// code-injection surface in the engine: user-authored JavaScript runs in a
// fresh goja runtime whose globals are exactly the built scope, with no
// access to host process state.
package codenode

import (
	"context"

	"engine/internal/flow"
	"engine/internal/schema"

	"github.com/dop251/goja"
)

func Package() flow.Package {
	return flow.Package{
		Name:  "code",
		Nodes: []*flow.Definition{codeDefinition()},
	}
}

func codeDefinition() *flow.Definition {
	return &flow.Definition{
		Name:        "runCode",
		Title:       "Run Code",
		Description: "Evaluates a JavaScript snippet against the declared input variables",
		Icon:        "code",
		NodeType:    flow.NodeTypeAction,
		Category:    "Logic",
		Properties: schema.Object(
			schema.N("code", &schema.Field{
				Kind:        schema.KindString,
				Title:       "Code",
				Description: "Body of the function to evaluate; its return value becomes the output",
				Required:    true,
				Widget:      schema.WidgetCode,
			}),
		),
		Result: schema.Object(
			schema.N("output", &schema.Field{Kind: schema.KindAny, Description: "Return value of the snippet"}),
			schema.N("logs", &schema.Field{
				Kind: schema.KindArray,
				Elem: &schema.Field{Kind: schema.KindString},
			}),
		),
		Execute: execute,
	}
}

func execute(ctx context.Context, inv *flow.Invocation) (map[string]any, error) {
	code, _ := inv.Properties["code"].(string)

	vm := goja.New()
	console := newConsole(vm)
	vm.Set("console", console.object())

	// Scope: the capturing console, then the context entries this instance
	// declared as inputs. A declared name absent from the context is not
	// injected; referencing it behaves as referencing an undeclared name.
	for name, value := range inv.Vars {
		vm.Set(name, value)
	}

	// Abort evaluation if the surrounding call is cancelled.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	value, err := vm.RunString("(function() {\n" + code + "\n})()")
	if err != nil {
		msg := exceptionMessage(err)
		console.append("ERROR: " + msg)
		// Partial logs up to the failure point stay in the payload so
		// callers can display execution traces even on error.
		f := flow.NewFailure(flow.FailureExecutionFailed, "%s", msg)
		f.Payload = map[string]any{"logs": console.lines()}
		return nil, f
	}

	var output any
	if value != nil && !goja.IsUndefined(value) && !goja.IsNull(value) {
		output = value.Export()
	}

	return map[string]any{
		"output": output,
		"logs":   console.lines(),
	}, nil
}

func exceptionMessage(err error) string {
	if ex, ok := err.(*goja.Exception); ok {
		return ex.Value().String()
	}
	return err.Error()
}
