package flow

import (
	"context"
	"errors"
	"testing"

	"engine/internal/schema"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingResolver struct {
	values map[string]map[string]any
	calls  []string
}

func (r *recordingResolver) Resolve(_ context.Context, nodeName, slot string) (any, error) {
	r.calls = append(r.calls, nodeName+"/"+slot)
	slots, ok := r.values[nodeName]
	if !ok {
		return nil, nil
	}
	return slots[slot], nil
}

// testRegistry builds a registry exercising every dispatch boundary.
func testRegistry(t *testing.T, execCount *int, seenSecrets map[string]any) *Registry {
	t.Helper()

	apiKey := &SecretDescriptor{
		Name:   "testApiKey",
		Schema: &schema.Field{Kind: schema.KindString, Required: true},
	}

	echo := &Definition{
		Name:     "echo",
		NodeType: NodeTypeAction,
		Category: "Test",
		Properties: schema.Object(
			schema.N("value", &schema.Field{Kind: schema.KindString, Required: true}),
			schema.N("tag", &schema.Field{Kind: schema.KindString, Default: "default-tag"}),
		),
		Result: schema.Object(
			schema.N("value", &schema.Field{Kind: schema.KindString, Required: true}),
			schema.N("tag", &schema.Field{Kind: schema.KindString, Required: true}),
		),
		Execute: func(_ context.Context, inv *Invocation) (map[string]any, error) {
			*execCount++
			return map[string]any{"value": inv.Properties["value"], "tag": inv.Properties["tag"]}, nil
		},
	}

	locked := func(name string) *Definition {
		return &Definition{
			Name:       name,
			NodeType:   NodeTypeAction,
			Category:   "Test",
			Properties: schema.Object(),
			Result:     schema.Object(schema.N("ok", &schema.Field{Kind: schema.KindBoolean, Required: true})),
			Secrets:    map[string]*SecretDescriptor{"apiKey": apiKey},
			Execute: func(_ context.Context, inv *Invocation) (map[string]any, error) {
				*execCount++
				seenSecrets[name] = inv.Secrets["apiKey"]
				return map[string]any{"ok": true}, nil
			},
		}
	}

	boom := &Definition{
		Name:       "boom",
		NodeType:   NodeTypeAction,
		Category:   "Test",
		Properties: schema.Object(),
		Result:     schema.Object(),
		Execute: func(_ context.Context, _ *Invocation) (map[string]any, error) {
			return nil, errors.New("node blew up")
		},
	}

	panicky := &Definition{
		Name:       "panicky",
		NodeType:   NodeTypeAction,
		Category:   "Test",
		Properties: schema.Object(),
		Result:     schema.Object(),
		Execute: func(_ context.Context, _ *Invocation) (map[string]any, error) {
			panic("unexpected state")
		},
	}

	badOutput := &Definition{
		Name:       "badOutput",
		NodeType:   NodeTypeAction,
		Category:   "Test",
		Properties: schema.Object(),
		Result:     schema.Object(schema.N("value", &schema.Field{Kind: schema.KindString, Required: true})),
		Execute: func(_ context.Context, _ *Invocation) (map[string]any, error) {
			return map[string]any{"value": 123}, nil
		},
	}

	ctxReader := &Definition{
		Name:       "ctxReader",
		NodeType:   NodeTypeAction,
		Category:   "Test",
		Properties: schema.Object(),
		Result:     schema.Object(schema.N("vars", &schema.Field{Kind: schema.KindObject})),
		Execute: func(_ context.Context, inv *Invocation) (map[string]any, error) {
			return map[string]any{"vars": inv.Vars}, nil
		},
	}

	r, err := BuildRegistry(Package{
		Name:    "test",
		Secrets: []*SecretDescriptor{apiKey},
		Nodes:   []*Definition{echo, locked("lockedA"), locked("lockedB"), boom, panicky, badOutput, ctxReader},
	})
	require.NoError(t, err)
	return r
}

func newTestDispatcher(t *testing.T, execCount *int, seenSecrets map[string]any) *Dispatcher {
	t.Helper()
	return NewDispatcher(testRegistry(t, execCount, seenSecrets), zerolog.Nop())
}

// ============ Step boundaries ============

func TestExecute_UnknownNode(t *testing.T) {
	var n int
	d := newTestDispatcher(t, &n, map[string]any{})

	_, err := d.Execute(context.Background(), Request{Node: "nope"})
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureNotFound, f.Kind)
	assert.True(t, f.Retryable())
}

func TestExecute_InvalidInputNeverStartsExecution(t *testing.T) {
	var n int
	d := newTestDispatcher(t, &n, map[string]any{})

	_, err := d.Execute(context.Background(), Request{Node: "echo", Properties: map[string]any{}})
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureInvalidInput, f.Kind)
	require.NotEmpty(t, f.Fields)
	assert.Equal(t, "$.value", f.Fields[0].Path)
	assert.Zero(t, n, "execution function must not run on invalid input")
}

func TestExecute_SuccessAppliesDefaults(t *testing.T) {
	var n int
	d := newTestDispatcher(t, &n, map[string]any{})

	out, err := d.Execute(context.Background(), Request{
		Node:       "echo",
		Properties: map[string]any{"value": "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out["value"])
	assert.Equal(t, "default-tag", out["tag"])
	assert.Equal(t, 1, n)
}

func TestExecute_MissingSecretNeverStartsExecution(t *testing.T) {
	var n int
	d := newTestDispatcher(t, &n, map[string]any{})

	_, err := d.Execute(context.Background(), Request{
		Node:     "lockedA",
		Resolver: &recordingResolver{},
	})
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureMissingSecret, f.Kind)
	assert.Zero(t, n)
}

func TestExecute_NilResolverWithDeclaredSecrets(t *testing.T) {
	var n int
	d := newTestDispatcher(t, &n, map[string]any{})

	_, err := d.Execute(context.Background(), Request{Node: "lockedA"})
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureMissingSecret, f.Kind)
}

func TestExecute_SecretsNeverLeakBetweenNodes(t *testing.T) {
	var n int
	seen := map[string]any{}
	d := newTestDispatcher(t, &n, seen)

	resolver := &recordingResolver{values: map[string]map[string]any{
		"lockedA": {"apiKey": "key-for-a"},
		"lockedB": {"apiKey": "key-for-b"},
	}}

	_, err := d.Execute(context.Background(), Request{Node: "lockedA", Resolver: resolver})
	require.NoError(t, err)
	_, err = d.Execute(context.Background(), Request{Node: "lockedB", Resolver: resolver})
	require.NoError(t, err)

	assert.Equal(t, "key-for-a", seen["lockedA"])
	assert.Equal(t, "key-for-b", seen["lockedB"])
	assert.Equal(t, []string{"lockedA/apiKey", "lockedB/apiKey"}, resolver.calls)
}

func TestExecute_SecretSchemaEnforced(t *testing.T) {
	var n int
	d := newTestDispatcher(t, &n, map[string]any{})

	resolver := &recordingResolver{values: map[string]map[string]any{
		"lockedA": {"apiKey": 12345},
	}}
	_, err := d.Execute(context.Background(), Request{Node: "lockedA", Resolver: resolver})
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureMissingSecret, f.Kind)
	assert.Zero(t, n)
}

func TestExecute_WrapsNodeErrors(t *testing.T) {
	var n int
	d := newTestDispatcher(t, &n, map[string]any{})

	_, err := d.Execute(context.Background(), Request{Node: "boom"})
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureExecutionFailed, f.Kind)
	assert.Contains(t, f.Message, "node blew up")
	assert.False(t, f.Retryable())
}

func TestExecute_RecoversPanics(t *testing.T) {
	var n int
	d := newTestDispatcher(t, &n, map[string]any{})

	_, err := d.Execute(context.Background(), Request{Node: "panicky"})
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureExecutionFailed, f.Kind)
	assert.Contains(t, f.Message, "unexpected state")
}

func TestExecute_MalformedResultIsInvalidOutput(t *testing.T) {
	var n int
	d := newTestDispatcher(t, &n, map[string]any{})

	_, err := d.Execute(context.Background(), Request{Node: "badOutput"})
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureInvalidOutput, f.Kind)
	require.NotEmpty(t, f.Fields)
	assert.Equal(t, "$.value", f.Fields[0].Path)
}

func TestExecute_ResultAlwaysValidatesAgainstOwnSchema(t *testing.T) {
	var n int
	d := newTestDispatcher(t, &n, map[string]any{})

	out, err := d.Execute(context.Background(), Request{
		Node:       "echo",
		Properties: map[string]any{"value": "round-trip"},
	})
	require.NoError(t, err)

	def, _ := d.Registry().Lookup("echo")
	_, err = schema.ValidateObject(def.Result, out)
	assert.NoError(t, err)
}

// ============ Context scoping ============

func TestExecute_ContextIsAllowListed(t *testing.T) {
	var n int
	d := newTestDispatcher(t, &n, map[string]any{})

	runCtx := NewRunContext(map[string]any{"a": 1, "b": 2, "c": 3})
	out, err := d.Execute(context.Background(), Request{
		Node:           "ctxReader",
		InputVariables: []string{"a", "c", "absent"},
		Context:        runCtx,
	})
	require.NoError(t, err)

	vars := out["vars"].(map[string]any)
	assert.Equal(t, 1, vars["a"])
	assert.Equal(t, 3, vars["c"])
	assert.NotContains(t, vars, "b", "undeclared context entries must stay invisible")
	assert.NotContains(t, vars, "absent", "declared but missing entries are not injected")
}

func TestExecute_NilContextIsEmpty(t *testing.T) {
	var n int
	d := newTestDispatcher(t, &n, map[string]any{})

	out, err := d.Execute(context.Background(), Request{
		Node:           "ctxReader",
		InputVariables: []string{"a"},
	})
	require.NoError(t, err)
	assert.Empty(t, out["vars"])
}
