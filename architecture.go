package gan_go

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Architecture Hyperparameters of DCGAN networks
//
// ImageHeight, ImageWidth - must be divisible by 4 (generator doubles resolution twice)
// GeneratorFilters - channels of projected grid and two hidden stages: [projection, stage 1, stage 2]
// DiscriminatorFilters - channels of three convolution stages
//
type Architecture struct {
	ImageHeight          int
	ImageWidth           int
	ImageChannels        int
	LatentDim            int
	KernelSize           int
	GeneratorFilters     [3]int
	DiscriminatorFilters [3]int
	LeakyAlpha           float64
	Dropout              float64
	BatchNormMomentum    float64
	BatchNormEpsilon     float64
}

// DefaultArchitecture DCGAN for 28x28 grayscale images
func DefaultArchitecture() Architecture {
	return Architecture{
		ImageHeight:          28,
		ImageWidth:           28,
		ImageChannels:        1,
		LatentDim:            100,
		KernelSize:           5,
		GeneratorFilters:     [3]int{256, 128, 64},
		DiscriminatorFilters: [3]int{64, 128, 128},
		LeakyAlpha:           0.2,
		Dropout:              0.3,
		BatchNormMomentum:    0.99,
		BatchNormEpsilon:     1e-3,
	}
}

// Validate Checks if networks could be built with the architecture
func (a Architecture) Validate() error {
	if a.ImageHeight <= 0 || a.ImageWidth <= 0 || a.ImageChannels <= 0 {
		return fmt.Errorf("Image shape must be positive, but got %dx%dx%d", a.ImageChannels, a.ImageHeight, a.ImageWidth)
	}
	if a.ImageHeight%4 != 0 || a.ImageWidth%4 != 0 {
		return fmt.Errorf("Image height and width must be divisible by 4, but got %dx%d", a.ImageHeight, a.ImageWidth)
	}
	if a.LatentDim <= 0 {
		return fmt.Errorf("Latent dimension must be positive, but got %d", a.LatentDim)
	}
	if a.KernelSize <= 0 || a.KernelSize%2 == 0 {
		return fmt.Errorf("Kernel size must be positive odd number, but got %d", a.KernelSize)
	}
	for i := range a.GeneratorFilters {
		if a.GeneratorFilters[i] <= 0 {
			return fmt.Errorf("Generator filters #%d must be positive, but got %d", i, a.GeneratorFilters[i])
		}
		if a.DiscriminatorFilters[i] <= 0 {
			return fmt.Errorf("Discriminator filters #%d must be positive, but got %d", i, a.DiscriminatorFilters[i])
		}
	}
	if a.Dropout < 0 || a.Dropout >= 1 {
		return fmt.Errorf("Dropout probability must be in [0;1), but got %f", a.Dropout)
	}
	return nil
}

// ImageShape Shape of a single image (channels, height, width)
func (a Architecture) ImageShape() tensor.Shape {
	return tensor.Shape{a.ImageChannels, a.ImageHeight, a.ImageWidth}
}

func (a Architecture) samePadding() []int {
	return []int{a.KernelSize / 2, a.KernelSize / 2}
}

// DefineGenerator Generator: dense projection => reshape to (filters, H/4, W/4) => batchnorm
// => conv => batchnorm => upsample x2 => conv => batchnorm => upsample x2 => conv(tanh)
func DefineGenerator(a Architecture) *GeneratorNet {
	gridH, gridW := a.ImageHeight/4, a.ImageWidth/4
	projected := a.GeneratorFilters[0] * gridH * gridW
	k := a.KernelSize
	conv := func(name string, in, out int, activation ActivationFunc) *Layer {
		return &Layer{
			Name:         name,
			Type:         LayerConvolutional,
			Activation:   activation,
			WeightShape:  tensor.Shape{out, in, k, k},
			KernelHeight: k,
			KernelWidth:  k,
			Padding:      a.samePadding(),
			Stride:       []int{1, 1},
			Dilation:     []int{1, 1},
		}
	}
	batchNorm := func(name string) *Layer {
		return &Layer{
			Name:       name,
			Type:       LayerBatchNorm,
			Activation: NoActivation,
			Momentum:   a.BatchNormMomentum,
			Epsilon:    a.BatchNormEpsilon,
		}
	}
	upsample := func(name string) *Layer {
		return &Layer{
			Name:       name,
			Type:       LayerUpsample,
			Activation: NoActivation,
			Scale:      2,
		}
	}
	return Generator(
		&Layer{
			Name:        "generator_dense",
			Type:        LayerLinear,
			Activation:  NoActivation,
			WeightShape: tensor.Shape{projected, a.LatentDim},
			BiasShape:   tensor.Shape{1, projected},
		},
		&Layer{
			Name:        "generator_reshape",
			Type:        LayerReshape,
			Activation:  NoActivation,
			ReshapeDims: []int{a.GeneratorFilters[0], gridH, gridW},
		},
		batchNorm("generator_bn0"),
		conv("generator_conv0", a.GeneratorFilters[0], a.GeneratorFilters[1], Rectify),
		batchNorm("generator_bn1"),
		upsample("generator_up1"),
		conv("generator_conv1", a.GeneratorFilters[1], a.GeneratorFilters[2], Rectify),
		batchNorm("generator_bn2"),
		upsample("generator_up2"),
		conv("generator_conv2", a.GeneratorFilters[2], a.ImageChannels, Tanh),
	)
}

// DefineDiscriminator Discriminator: three convolutions (stride 2, 2, 1) each followed by LeakyReLU and dropout
// => flatten => dense(1, sigmoid)
func DefineDiscriminator(a Architecture) *DiscriminatorNet {
	k := a.KernelSize
	h, w := a.ImageHeight/4, a.ImageWidth/4
	leaky := []Options{{Alpha: a.LeakyAlpha}}
	conv := func(name string, in, out, stride int) *Layer {
		return &Layer{
			Name:           name,
			Type:           LayerConvolutional,
			Activation:     LeakyRectify,
			ActivationOpts: leaky,
			WeightShape:    tensor.Shape{out, in, k, k},
			KernelHeight:   k,
			KernelWidth:    k,
			Padding:        a.samePadding(),
			Stride:         []int{stride, stride},
			Dilation:       []int{1, 1},
		}
	}
	dropout := func(name string) *Layer {
		return &Layer{
			Name:        name,
			Type:        LayerDropout,
			Activation:  NoActivation,
			Probability: a.Dropout,
		}
	}
	flat := a.DiscriminatorFilters[2] * h * w
	return Discriminator(
		conv("discriminator_conv0", a.ImageChannels, a.DiscriminatorFilters[0], 2),
		dropout("discriminator_drop0"),
		conv("discriminator_conv1", a.DiscriminatorFilters[0], a.DiscriminatorFilters[1], 2),
		dropout("discriminator_drop1"),
		conv("discriminator_conv2", a.DiscriminatorFilters[1], a.DiscriminatorFilters[2], 1),
		dropout("discriminator_drop2"),
		&Layer{
			Name:       "discriminator_flatten",
			Type:       LayerFlatten,
			Activation: NoActivation,
		},
		&Layer{
			Name:        "discriminator_dense",
			Type:        LayerLinear,
			Activation:  Sigmoid,
			WeightShape: tensor.Shape{1, flat},
			BiasShape:   tensor.Shape{1, 1},
		},
	)
}
