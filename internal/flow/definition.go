// Package flow holds the node contract model: schema-described definitions,
// the composed registry, the execution context shared along a run, and the
// dispatcher that turns one node instance into a result or a classified
// failure.
package flow

import (
	"context"

	"engine/internal/schema"
)

// NodeType is open for future kinds such as "trigger" or "condition";
// only actions exist today.
type NodeType string

const (
	NodeTypeAction NodeType = "action"
)

// SecretDescriptor declares one named credential. Descriptors are defined
// once per integration package and referenced by name from every node that
// needs them; they are never duplicated per node.
type SecretDescriptor struct {
	Name        string        `json:"name"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Schema      *schema.Field `json:"schema"`
}

// Invocation is everything an execution function may see: its validated
// properties, the secrets for its own declared slots, and an allow-listed
// view of the run context.
type Invocation struct {
	Properties map[string]any
	Secrets    map[string]any
	Vars       map[string]any
}

// ExecFunc is the runtime behavior bound to one definition. It fails by
// returning an error; the dispatcher classifies it before anything reaches
// the caller.
type ExecFunc func(ctx context.Context, inv *Invocation) (map[string]any, error)

// Definition binds a unique name and presentation metadata to the node's
// property and result schemas, its secret slots and its execution function.
// Definitions are built at process start and immutable afterwards.
type Definition struct {
	Name        string                       `json:"name"`
	Title       string                       `json:"title"`
	Description string                       `json:"description"`
	Icon        string                       `json:"icon"`
	NodeType    NodeType                     `json:"nodeType"`
	Category    string                       `json:"category"`
	Properties  *schema.Field                `json:"properties"`
	Result      *schema.Field                `json:"result"`
	Secrets     map[string]*SecretDescriptor `json:"secrets,omitempty"`
	Execute     ExecFunc                     `json:"-"`
}

// Package is the export shape of one integration: the secret descriptors
// it owns and the nodes it contributes to the registry.
type Package struct {
	Name    string
	Secrets []*SecretDescriptor
	Nodes   []*Definition
}

// SecretResolver resolves the value for one secret slot of one node. The
// dispatcher calls it once per declared slot per invocation; values are
// never cached or shared across nodes.
type SecretResolver interface {
	Resolve(ctx context.Context, nodeName, slot string) (any, error)
}

// SecretResolverFunc adapts a function to SecretResolver.
type SecretResolverFunc func(ctx context.Context, nodeName, slot string) (any, error)

func (f SecretResolverFunc) Resolve(ctx context.Context, nodeName, slot string) (any, error) {
	return f(ctx, nodeName, slot)
}
