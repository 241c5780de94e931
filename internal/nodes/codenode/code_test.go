package codenode

import (
	"context"
	"strings"
	"testing"

	"engine/internal/flow"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher(t *testing.T) *flow.Dispatcher {
	t.Helper()
	registry, err := flow.BuildRegistry(Package())
	require.NoError(t, err)
	return flow.NewDispatcher(registry, zerolog.Nop())
}

func run(t *testing.T, code string, inputs []string, ctx map[string]any) (map[string]any, error) {
	t.Helper()
	return newDispatcher(t).Execute(context.Background(), flow.Request{
		Node:           "runCode",
		Properties:     map[string]any{"code": code},
		InputVariables: inputs,
		Context:        flow.NewRunContext(ctx),
	})
}

func TestRunCode_EvaluatesWithDeclaredInputs(t *testing.T) {
	out, err := run(t, "return a + b", []string{"a", "b"}, map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)

	assert.EqualValues(t, 5, out["output"])
	assert.Empty(t, out["logs"])
}

func TestRunCode_UndeclaredContextInvisible(t *testing.T) {
	// "b" exists in the run context but is not declared as an input.
	_, err := run(t, "return a + b", []string{"a"}, map[string]any{"a": 2, "b": 3})
	f, ok := flow.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, flow.FailureExecutionFailed, f.Kind)
	assert.Contains(t, f.Message, "b is not defined")
}

func TestRunCode_AbsentDeclaredInputNotInjected(t *testing.T) {
	// Declared but missing from context: behaves as an undeclared name,
	// not as an injected undefined.
	out, err := run(t, "return typeof missing", []string{"missing"}, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "undefined", out["output"])

	_, err = run(t, "return missing", []string{"missing"}, map[string]any{})
	f, ok := flow.AsFailure(err)
	require.True(t, ok)
	assert.Contains(t, f.Message, "missing is not defined")
}

func TestRunCode_ConsoleCapture(t *testing.T) {
	code := `
console.log("plain");
console.info("joined", 1, true);
console.warn({nested: {x: 1}});
console.error(["a", 2]);
return null;
`
	out, err := run(t, code, nil, nil)
	require.NoError(t, err)

	logs := out["logs"].([]any)
	require.Len(t, logs, 4)
	assert.Equal(t, "plain", logs[0])
	assert.Equal(t, "joined 1 true", logs[1])
	assert.Equal(t, `{"nested":{"x":1}}`, logs[2])
	assert.Equal(t, `["a",2]`, logs[3])
}

func TestRunCode_FailureKeepsPartialLogs(t *testing.T) {
	code := `
console.log("x");
throw new Error("boom");
`
	_, err := run(t, code, nil, nil)
	f, ok := flow.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, flow.FailureExecutionFailed, f.Kind)
	assert.Contains(t, f.Message, "boom")

	logs, ok := f.Payload["logs"].([]any)
	require.True(t, ok, "partial logs must ride along with the failure")
	require.Len(t, logs, 2)
	assert.Equal(t, "x", logs[0])
	assert.True(t, strings.HasPrefix(logs[1].(string), "ERROR:"))
	assert.Contains(t, logs[1].(string), "boom")
}

func TestRunCode_NoAmbientHostAccess(t *testing.T) {
	for _, name := range []string{"process", "require", "fetch", "globalThis.process"} {
		out, err := run(t, "return typeof "+name, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "undefined", out["output"], "host state %q must be unreachable", name)
	}
}

func TestRunCode_ObjectRoundTrip(t *testing.T) {
	out, err := run(t, `return {sum: n * 2, label: "v" + n}`, []string{"n"}, map[string]any{"n": 21})
	require.NoError(t, err)

	result := out["output"].(map[string]any)
	assert.EqualValues(t, 42, result["sum"])
	assert.Equal(t, "v21", result["label"])
}

func TestRunCode_EmptyReturnYieldsNilOutput(t *testing.T) {
	out, err := run(t, `console.log("side effect only");`, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, out["output"])

	logs := out["logs"].([]any)
	require.Len(t, logs, 1)
	assert.Equal(t, "side effect only", logs[0])
}
