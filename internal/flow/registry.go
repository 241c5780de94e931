package flow

import (
	"fmt"

	"engine/internal/schema"
)

// Registry is the immutable, composed catalog of every node definition and
// secret descriptor available to the builder and the dispatcher.
type Registry struct {
	nodes       map[string]*Definition
	secrets     map[string]*SecretDescriptor
	nodeOrder   []string
	secretOrder []string
}

// BuildRegistry composes integration packages into one flat catalog. It is
// a pure function called once at startup; duplicate node or secret names
// across packages are a configuration defect and fail the build rather
// than being resolved by precedence. Composition order only affects
// listing order, never content.
func BuildRegistry(pkgs ...Package) (*Registry, error) {
	r := &Registry{
		nodes:   make(map[string]*Definition),
		secrets: make(map[string]*SecretDescriptor),
	}

	for _, pkg := range pkgs {
		for _, sd := range pkg.Secrets {
			if sd.Name == "" {
				return nil, fmt.Errorf("package %q: secret descriptor without a name", pkg.Name)
			}
			if _, dup := r.secrets[sd.Name]; dup {
				return nil, fmt.Errorf("package %q: duplicate secret descriptor %q", pkg.Name, sd.Name)
			}
			if err := schema.Check(sd.Schema); err != nil {
				return nil, fmt.Errorf("secret %q: invalid schema: %w", sd.Name, err)
			}
			r.secrets[sd.Name] = sd
			r.secretOrder = append(r.secretOrder, sd.Name)
		}

		for _, def := range pkg.Nodes {
			if def.Name == "" {
				return nil, fmt.Errorf("package %q: node definition without a name", pkg.Name)
			}
			if _, dup := r.nodes[def.Name]; dup {
				return nil, fmt.Errorf("package %q: duplicate node definition %q", pkg.Name, def.Name)
			}
			if def.Execute == nil {
				return nil, fmt.Errorf("node %q: no execution function", def.Name)
			}
			if err := schema.Check(def.Properties); err != nil {
				return nil, fmt.Errorf("node %q: invalid properties schema: %w", def.Name, err)
			}
			if err := schema.Check(def.Result); err != nil {
				return nil, fmt.Errorf("node %q: invalid result schema: %w", def.Name, err)
			}
			r.nodes[def.Name] = def
			r.nodeOrder = append(r.nodeOrder, def.Name)
		}
	}

	return r, nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	def, ok := r.nodes[name]
	return def, ok
}

// Nodes lists definitions in composition order, for UI catalogs.
func (r *Registry) Nodes() []*Definition {
	out := make([]*Definition, 0, len(r.nodeOrder))
	for _, name := range r.nodeOrder {
		out = append(out, r.nodes[name])
	}
	return out
}

// Secrets lists secret descriptors in composition order.
func (r *Registry) Secrets() []*SecretDescriptor {
	out := make([]*SecretDescriptor, 0, len(r.secretOrder))
	for _, name := range r.secretOrder {
		out = append(out, r.secrets[name])
	}
	return out
}
