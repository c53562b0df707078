package gan_go

import (
	"fmt"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// ParamStore Single owner of every learnable value.
//
// Graph nodes never own parameters: each node created through the store is bound to the store's
// tensor, so several graphs (e.g. Discriminator training graph and GAN graph) can reference the very
// same weights. Solvers update tensors in place, therefore an update made through one graph is
// immediately visible through every other one.
//
type ParamStore struct {
	values map[string]*tensor.Dense
	order  []string
}

// NewParamStore Constructor for ParamStore
func NewParamStore() *ParamStore {
	return &ParamStore{
		values: make(map[string]*tensor.Dense),
	}
}

// Node Returns node on provided graph bound to the parameter with given name.
// If parameter does not exist yet it is created with provided shape and initializer.
func (s *ParamStore) Node(g *gorgonia.ExprGraph, name string, shape tensor.Shape, init gorgonia.InitWFn) (*gorgonia.Node, error) {
	if v, ok := s.values[name]; ok {
		if !v.Shape().Eq(shape) {
			return nil, fmt.Errorf("Parameter '%s' has shape %v, but %v has been requested", name, v.Shape(), shape)
		}
		return gorgonia.NewTensor(g, tensor.Float64, len(shape), gorgonia.WithShape(shape...), gorgonia.WithName(name), gorgonia.WithValue(v)), nil
	}
	node := gorgonia.NewTensor(g, tensor.Float64, len(shape), gorgonia.WithShape(shape...), gorgonia.WithName(name), gorgonia.WithInit(init))
	if err := s.Adopt(name, node); err != nil {
		return nil, err
	}
	return node, nil
}

// Adopt Registers value of a node which has been created outside of the store (batch normalization scale and shift, for example)
func (s *ParamStore) Adopt(name string, node *gorgonia.Node) error {
	if _, ok := s.values[name]; ok {
		return fmt.Errorf("Parameter '%s' already exists", name)
	}
	v, ok := node.Value().(*tensor.Dense)
	if !ok {
		return fmt.Errorf("Parameter '%s' has no dense value (got %T)", name, node.Value())
	}
	s.values[name] = v
	s.order = append(s.order, name)
	return nil
}

// Value Returns tensor of the parameter with given name
func (s *ParamStore) Value(name string) (*tensor.Dense, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names Returns parameter names in creation order
func (s *ParamStore) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Len Number of registered parameters
func (s *ParamStore) Len() int {
	return len(s.order)
}

// Snapshot Copies current values of provided parameters (all of them if no names given)
func (s *ParamStore) Snapshot(names ...string) map[string][]float64 {
	if len(names) == 0 {
		names = s.order
	}
	snap := make(map[string][]float64, len(names))
	for _, name := range names {
		v, ok := s.values[name]
		if !ok {
			continue
		}
		data := v.Data().([]float64)
		cp := make([]float64, len(data))
		copy(cp, data)
		snap[name] = cp
	}
	return snap
}

// NodeNames Extracts names of provided nodes
func NodeNames(nodes gorgonia.Nodes) []string {
	names := make([]string, len(nodes))
	for i := range nodes {
		names[i] = nodes[i].Name()
	}
	return names
}
