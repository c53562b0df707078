package gan_go

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
)

// GAN Composite model: Discriminator(Generator(z)).
//
// generatorPart - reference to Generator
// discriminatorPart - view of Discriminator on the Generator's graph. It shares ParamStore entries with the
// Discriminator's training graph, so it evaluates the current discriminator weights but never owns them.
//
type GAN struct {
	generatorPart     *GeneratorNet
	discriminatorPart *DiscriminatorNet
}

// NewGAN Binds view of provided Discriminator on graph 'g' (the one Generator has been built on)
func NewGAN(g *gorgonia.ExprGraph, store *ParamStore, definedGenerator *GeneratorNet, definedDiscriminator *DiscriminatorNet) (*GAN, error) {
	if definedGenerator.Out() == nil {
		return nil, fmt.Errorf("Generator must be built before GAN")
	}
	if definedGenerator.Out().Graph() != g {
		return nil, fmt.Errorf("Generator has been built on another graph")
	}
	view := definedDiscriminator.View("gan_discriminator")
	if err := view.Bind(g, store); err != nil {
		return nil, errors.Wrap(err, "Can't bind Discriminator's view for GAN")
	}
	return &GAN{
		generatorPart:     definedGenerator,
		discriminatorPart: view,
	}, nil
}

// Out Returns reference to output node
func (net *GAN) Out() *gorgonia.Node {
	return net.discriminatorPart.Out()
}

// GeneratorOut Returns reference to output node of generator part
func (net *GAN) GeneratorOut() *gorgonia.Node {
	return net.generatorPart.Out()
}

// Learnables Returns learnables which GAN's training step is allowed to update (Generator's ones only)
func (net *GAN) Learnables() gorgonia.Nodes {
	return net.generatorPart.Learnables()
}

// LearnableNames Returns names of learnables which GAN's training step is allowed to update
func (net *GAN) LearnableNames() []string {
	return net.generatorPart.LearnableNames()
}

// FrozenLearnables Returns learnables of Discriminator's view. They take part in feedforward, but never in updates
func (net *GAN) FrozenLearnables() gorgonia.Nodes {
	return net.discriminatorPart.Learnables()
}

// FrozenLearnableNames Returns names of frozen learnables
func (net *GAN) FrozenLearnableNames() []string {
	return net.discriminatorPart.LearnableNames()
}

// Fwd Initializates feedforward for discriminator part of GAN
//
// batchSize - batch size. If it's >= 2 then broadcast function will be applied
// Note: input node is not needed since input for Discriminator is just Generator's output
//
func (net *GAN) Fwd(batchSize int) error {
	if err := net.discriminatorPart.Fwd(net.generatorPart.Out(), batchSize); err != nil {
		return errors.Wrap(err, "[GAN]")
	}
	return nil
}
