package gan_go

import (
	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
)

// DiscriminatorNet Abstraction for discriminator part of GAN. It's simple neural network actually.
type DiscriminatorNet struct {
	private *Network
}

// Discriminator Constructor for DiscriminatorNet
func Discriminator(Layers ...*Layer) *DiscriminatorNet {
	return &DiscriminatorNet{private: &Network{
		Name:   "discriminator",
		Layers: Layers,
	}}
}

// Out Returns reference to output node
func (net *DiscriminatorNet) Out() *gorgonia.Node {
	return net.private.Out()
}

// Layers Returns layers of the discriminator
func (net *DiscriminatorNet) Layers() []*Layer {
	return net.private.Layers
}

// Learnables Returns learnables nodes
func (net *DiscriminatorNet) Learnables() gorgonia.Nodes {
	return net.private.Learnables()
}

// LearnableNames Returns names of learnables in ParamStore
func (net *DiscriminatorNet) LearnableNames() []string {
	return net.private.LearnableNames()
}

// View Returns discriminator with the same structure which is not bound to any graph yet.
// Binding it through the same ParamStore gives another graph access to the very same weights.
func (net *DiscriminatorNet) View(name string) *DiscriminatorNet {
	return &DiscriminatorNet{private: net.private.View(name)}
}

// Bind Binds learnables on provided graph
func (net *DiscriminatorNet) Bind(g *gorgonia.ExprGraph, store *ParamStore) error {
	if err := net.private.Bind(g, store); err != nil {
		return errors.Wrap(err, "[Discriminator]")
	}
	return nil
}

// Fwd Initializates feedforward for provided input
//
// input - Input node
// batchSize - batch size. If it's >= 2 then broadcast function will be applied
//
func (net *DiscriminatorNet) Fwd(input *gorgonia.Node, batchSize int) error {
	if err := net.private.Fwd(input, batchSize, nil); err != nil {
		return errors.Wrap(err, "[Discriminator]")
	}
	return nil
}
