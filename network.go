package gan_go

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
)

// Network Abstraction for neural network.
//
// Layers - simple sequence of layers
// out - alias to activated output of last layer
//
type Network struct {
	Name   string
	Layers []*Layer
	out    *gorgonia.Node
}

// Out Returns reference to output node
func (net *Network) Out() *gorgonia.Node {
	return net.out
}

// Learnables Returns learnables nodes
func (net *Network) Learnables() gorgonia.Nodes {
	learnables := make(gorgonia.Nodes, 0, 2*len(net.Layers))
	for _, l := range net.Layers {
		if l != nil {
			if l.WeightNode != nil {
				learnables = append(learnables, l.WeightNode)
			}
			if l.BiasNode != nil {
				learnables = append(learnables, l.BiasNode)
			}
		}
	}
	return learnables
}

// LearnableNames Returns ParamStore names of learnables in the same order as Learnables() does
func (net *Network) LearnableNames() []string {
	names := make([]string, 0, 2*len(net.Layers))
	for _, l := range net.Layers {
		if l != nil {
			if l.WeightNode != nil {
				names = append(names, l.WeightName())
			}
			if l.BiasNode != nil {
				names = append(names, l.BiasName())
			}
		}
	}
	return names
}

// View Returns new network with the same layers' definitions. Its learnables are not bound yet
func (net *Network) View(name string) *Network {
	view := &Network{
		Name:   name,
		Layers: make([]*Layer, len(net.Layers)),
	}
	for i, l := range net.Layers {
		if l != nil {
			view.Layers[i] = l.Blueprint()
		}
	}
	return view
}

// Bind Binds learnables of every layer to provided graph via ParamStore
func (net *Network) Bind(g *gorgonia.ExprGraph, store *ParamStore) error {
	for i, l := range net.Layers {
		if l == nil {
			return fmt.Errorf("Network's layer #%d is nil", i)
		}
		if err := l.Bind(g, store); err != nil {
			return errors.Wrap(err, fmt.Sprintf("[%s] Can't bind learnables of layer #%d", net.networkName(), i))
		}
	}
	return nil
}

func (net *Network) networkName() string {
	if net.Name != "" {
		return net.Name
	}
	return "network"
}

// Fwd Initializates feedforward for provided input
//
// input - Input node
// batchSize - batch size. If it's >= 2 then broadcast function will be applied
// store - parameters store for layers creating learnables on the fly. Could be nil
//
func (net *Network) Fwd(input *gorgonia.Node, batchSize int, store *ParamStore) error {
	networkName := net.networkName()
	if len(net.Layers) == 0 {
		return fmt.Errorf("Network must have one layer atleast")
	}
	lastActivatedLayer := input
	for i := range net.Layers {
		if net.Layers[i] == nil {
			return fmt.Errorf("Network's layer #%d is nil", i)
		}
		// Feedforward input through i-th layer
		layerNonActivated, err := net.Layers[i].Fwd(batchSize, lastActivatedLayer, store)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("[%s, Layer #%d] Can't feedforward input before activation", networkName, i))
		}
		gorgonia.WithName(fmt.Sprintf("%s_%d", networkName, i))(layerNonActivated)
		// Activate i-th layer's output
		layerActivated, err := net.Layers[i].Activate(layerNonActivated)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("Can't apply activation function to non-activated output of %s's layer #%d", networkName, i))
		}
		if layerActivated != layerNonActivated {
			gorgonia.WithName(fmt.Sprintf("%s_activated_%d", networkName, i))(layerActivated)
		}
		net.Layers[i].out = layerActivated
		lastActivatedLayer = layerActivated
	}
	net.out = lastActivatedLayer
	return nil
}
