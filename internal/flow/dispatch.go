package flow

import (
	"context"
	"fmt"

	"engine/internal/schema"

	"github.com/rs/zerolog"
)

// Dispatcher executes single node instances against a composed registry.
type Dispatcher struct {
	registry *Registry
	logger   zerolog.Logger
}

func NewDispatcher(registry *Registry, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Request is one node instance to execute: the definition name, the raw
// user-authored property values, the context entries the instance declares
// it reads, and the resolver for its secret slots.
type Request struct {
	Node           string
	Properties     map[string]any
	InputVariables []string
	Resolver       SecretResolver
	Context        *RunContext
}

// Execute runs one node instance through the hard step boundaries: lookup,
// property validation, secret resolution, invocation, result validation.
// Every error returned is a *Failure; validation and secret failures are
// detected before any side-effecting call is made.
func (d *Dispatcher) Execute(ctx context.Context, req Request) (map[string]any, error) {
	def, ok := d.registry.Lookup(req.Node)
	if !ok {
		return nil, NewFailure(FailureNotFound, "unknown node %q", req.Node)
	}

	props, err := schema.ValidateObject(def.Properties, req.Properties)
	if err != nil {
		f := NewFailure(FailureInvalidInput, "invalid properties for node %q", req.Node)
		if verr, ok := err.(*schema.Error); ok {
			f.Fields = verr.Fields
		}
		return nil, f
	}

	secrets, failure := d.resolveSecrets(ctx, def, req.Resolver)
	if failure != nil {
		return nil, failure
	}

	runCtx := req.Context
	if runCtx == nil {
		runCtx = NewRunContext(nil)
	}

	inv := &Invocation{
		Properties: props,
		Secrets:    secrets,
		Vars:       runCtx.Scoped(req.InputVariables),
	}

	out, err := d.invoke(ctx, def, inv)
	if err != nil {
		if f, ok := AsFailure(err); ok && f.Kind.IsExecutionFailure() {
			d.logger.Debug().Str("node", def.Name).Str("kind", string(f.Kind)).Msg("Node execution failed")
			return nil, f
		}
		d.logger.Debug().Str("node", def.Name).Err(err).Msg("Node execution failed")
		return nil, NewFailure(FailureExecutionFailed, "node %q failed: %v", def.Name, err)
	}

	result, err := schema.ValidateObject(def.Result, out)
	if err != nil {
		f := NewFailure(FailureInvalidOutput, "node %q returned a malformed result", def.Name)
		if verr, ok := err.(*schema.Error); ok {
			f.Fields = verr.Fields
		}
		return nil, f
	}

	return result, nil
}

// resolveSecrets fills every slot the definition declares. Resolution is
// per-invocation and per-node; a slot of one node never sees another
// node's value because the resolver is always called with this node's name.
func (d *Dispatcher) resolveSecrets(ctx context.Context, def *Definition, resolver SecretResolver) (map[string]any, *Failure) {
	if len(def.Secrets) == 0 {
		return nil, nil
	}
	if resolver == nil {
		return nil, NewFailure(FailureMissingSecret, "node %q declares secrets but no resolver was provided", def.Name)
	}

	secrets := make(map[string]any, len(def.Secrets))
	for slot, sd := range def.Secrets {
		value, err := resolver.Resolve(ctx, def.Name, slot)
		if err != nil {
			return nil, NewFailure(FailureMissingSecret, "secret %q for node %q: %v", slot, def.Name, err)
		}
		if value == nil {
			return nil, NewFailure(FailureMissingSecret, "secret %q for node %q is not configured", slot, def.Name)
		}
		checked, err := schema.Validate(sd.Schema, value)
		if err != nil {
			return nil, NewFailure(FailureMissingSecret, "secret %q for node %q does not match its schema: %v", slot, def.Name, err)
		}
		secrets[slot] = checked
	}
	return secrets, nil
}

// invoke calls the execution function, converting a panic into an error so
// no failure ever escapes unclassified.
func (d *Dispatcher) invoke(ctx context.Context, def *Definition, inv *Invocation) (out map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return def.Execute(ctx, inv)
}
