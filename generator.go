package gan_go

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// GeneratorNet Abstraction for generator part of GAN. Maps batch of latent vectors to batch of images
type GeneratorNet struct {
	private *Network
	input   *gorgonia.Node
}

// Generator Constructor for GeneratorNet
func Generator(Layers ...*Layer) *GeneratorNet {
	return &GeneratorNet{private: &Network{
		Name:   "generator",
		Layers: Layers,
	}}
}

// Out Returns reference to output node
func (net *GeneratorNet) Out() *gorgonia.Node {
	return net.private.Out()
}

// Input Returns reference to latent input node (available after Build)
func (net *GeneratorNet) Input() *gorgonia.Node {
	return net.input
}

// Layers Returns layers of the generator
func (net *GeneratorNet) Layers() []*Layer {
	return net.private.Layers
}

// Learnables Returns learnables nodes
func (net *GeneratorNet) Learnables() gorgonia.Nodes {
	return net.private.Learnables()
}

// LearnableNames Returns names of learnables in ParamStore
func (net *GeneratorNet) LearnableNames() []string {
	return net.private.LearnableNames()
}

// Fwd Initializates feedforward for provided input
//
// input - Input node
// batchSize - batch size. If it's >= 2 then broadcast function will be applied
//
func (net *GeneratorNet) Fwd(input *gorgonia.Node, batchSize int, store *ParamStore) error {
	if err := net.private.Fwd(input, batchSize, store); err != nil {
		return errors.Wrap(err, "[Generator]")
	}
	return nil
}

// Build Binds learnables on provided graph, creates latent input node of shape (batchSize, latentDim) and initializes feedforward
func (net *GeneratorNet) Build(g *gorgonia.ExprGraph, store *ParamStore, batchSize, latentDim int) error {
	if err := net.private.Bind(g, store); err != nil {
		return errors.Wrap(err, "[Generator]")
	}
	net.input = gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(batchSize, latentDim), gorgonia.WithName("generator_input"))
	if err := net.Fwd(net.input, batchSize, store); err != nil {
		return err
	}
	if net.Out().Dims() != 4 {
		return fmt.Errorf("Generator must produce 4D output (batch, channels, height, width), but got %v", net.Out().Shape())
	}
	return nil
}
