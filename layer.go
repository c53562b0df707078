package gan_go

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer Just an alias to Weight+Bias+ActivationFunction combo
//
// Name - prefix for parameters' names. Layers with the same name in different networks share weights through ParamStore
// WeightShape, BiasShape - shapes of learnables. Empty shape means that there is no such learnable
// Probability - dropout probability (LayerDropout only)
// Scale - upsampling factor (LayerUpsample only)
// Momentum, Epsilon - batch normalization parameters (LayerBatchNorm only)
// ReshapeDims - target shape without batch dimension (LayerReshape only)
//
type Layer struct {
	Name           string
	Type           LayerType
	Activation     ActivationFunc
	ActivationOpts []Options

	WeightShape tensor.Shape
	BiasShape   tensor.Shape

	KernelHeight int
	KernelWidth  int
	Padding      []int
	Stride       []int
	Dilation     []int
	ReshapeDims  []int
	Probability  float64
	Scale        int
	Momentum     float64
	Epsilon      float64

	WeightNode *gorgonia.Node
	BiasNode   *gorgonia.Node

	out *gorgonia.Node
}

type LayerType uint16

const (
	LayerLinear = LayerType(iota)
	LayerFlatten
	LayerConvolutional
	LayerReshape
	LayerDropout
	LayerUpsample
	LayerBatchNorm
)

func (t LayerType) String() string {
	switch t {
	case LayerLinear:
		return "linear"
	case LayerFlatten:
		return "flatten"
	case LayerConvolutional:
		return "conv2d"
	case LayerReshape:
		return "reshape"
	case LayerDropout:
		return "dropout"
	case LayerUpsample:
		return "upsample2d"
	case LayerBatchNorm:
		return "batchnorm"
	default:
		return fmt.Sprintf("layer_type_%d", uint16(t))
	}
}

var (
	allowedNoWeights = []LayerType{LayerFlatten, LayerReshape, LayerDropout, LayerUpsample, LayerBatchNorm}
)

func noWeightsAllowed(checkType LayerType) bool {
	return checkLayerType(checkType, allowedNoWeights...)
}

func checkLayerType(checkType LayerType, t ...LayerType) bool {
	for _, typeOf := range t {
		if checkType == typeOf {
			return true
		}
	}
	return false
}

// WeightName Name of weights parameter in ParamStore
func (l *Layer) WeightName() string {
	return l.Name + "_w"
}

// BiasName Name of bias parameter in ParamStore
func (l *Layer) BiasName() string {
	return l.Name + "_b"
}

// Blueprint Returns copy of layer's definition without any nodes attached
func (l *Layer) Blueprint() *Layer {
	return &Layer{
		Name:           l.Name,
		Type:           l.Type,
		Activation:     l.Activation,
		ActivationOpts: l.ActivationOpts,
		WeightShape:    l.WeightShape,
		BiasShape:      l.BiasShape,
		KernelHeight:   l.KernelHeight,
		KernelWidth:    l.KernelWidth,
		Padding:        l.Padding,
		Stride:         l.Stride,
		Dilation:       l.Dilation,
		ReshapeDims:    l.ReshapeDims,
		Probability:    l.Probability,
		Scale:          l.Scale,
		Momentum:       l.Momentum,
		Epsilon:        l.Epsilon,
	}
}

// Bind Creates (or reuses) learnables of the layer on provided graph
func (l *Layer) Bind(g *gorgonia.ExprGraph, store *ParamStore) error {
	var err error
	if len(l.WeightShape) > 0 {
		l.WeightNode, err = store.Node(g, l.WeightName(), l.WeightShape, gorgonia.GlorotN(1.0))
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("Can't bind weights of layer '%s'", l.Name))
		}
	}
	if len(l.BiasShape) > 0 {
		l.BiasNode, err = store.Node(g, l.BiasName(), l.BiasShape, gorgonia.Zeroes())
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("Can't bind bias of layer '%s'", l.Name))
		}
	}
	return nil
}

// Fwd Feedforward input through the layer (without activation)
//
// batchSize - batch size. If it's >= 2 then broadcast function will be applied
// store - needed by layers which create their learnables while feedforwarding (batch normalization). Could be nil otherwise
//
func (l *Layer) Fwd(batchSize int, input *gorgonia.Node, store *ParamStore) (*gorgonia.Node, error) {
	if l.WeightNode == nil && !noWeightsAllowed(l.Type) {
		return nil, fmt.Errorf("Layer '%s' has nil weight node", l.Name)
	}
	var out *gorgonia.Node
	var err error
	switch l.Type {
	case LayerLinear:
		tOp, err := gorgonia.Transpose(l.WeightNode)
		if err != nil {
			return nil, errors.Wrap(err, "Can't transpose weights")
		}
		out, err = gorgonia.Mul(input, tOp)
		if err != nil {
			return nil, errors.Wrap(err, "Can't multiply input and weights")
		}
		if l.BiasNode != nil {
			if batchSize < 2 {
				out, err = gorgonia.Add(out, l.BiasNode)
				if err != nil {
					return nil, errors.Wrap(err, "Can't add bias")
				}
			} else {
				out, err = gorgonia.BroadcastAdd(out, l.BiasNode, nil, []byte{0})
				if err != nil {
					return nil, errors.Wrap(err, fmt.Sprintf("Can't add bias [in broadcast term with batch_size = %d]", batchSize))
				}
			}
		}
	case LayerConvolutional:
		out, err = gorgonia.Conv2d(input, l.WeightNode, tensor.Shape{l.KernelHeight, l.KernelWidth}, l.Padding, l.Stride, l.Dilation)
		if err != nil {
			return nil, errors.Wrap(err, "Can't convolve[2D] input by kernel")
		}
	case LayerFlatten:
		out, err = gorgonia.Reshape(input, tensor.Shape{batchSize, input.Shape().TotalSize() / batchSize})
		if err != nil {
			return nil, errors.Wrap(err, "Can't flatten input")
		}
	case LayerReshape:
		out, err = gorgonia.Reshape(input, append(tensor.Shape{batchSize}, l.ReshapeDims...))
		if err != nil {
			return nil, errors.Wrap(err, "Can't reshape input")
		}
	case LayerDropout:
		out, err = gorgonia.Dropout(input, l.Probability)
		if err != nil {
			return nil, errors.Wrap(err, "Can't apply dropout")
		}
	case LayerUpsample:
		out, err = gorgonia.Upsample2D(input, l.Scale)
		if err != nil {
			return nil, errors.Wrap(err, "Can't upsample[2D] input")
		}
	case LayerBatchNorm:
		var scale, shift *gorgonia.Node
		out, scale, shift, _, err = gorgonia.BatchNorm(input, l.WeightNode, l.BiasNode, l.Momentum, l.Epsilon)
		if err != nil {
			return nil, errors.Wrap(err, "Can't normalize input")
		}
		if l.WeightNode == nil && store != nil {
			if err = store.Adopt(l.WeightName(), scale); err != nil {
				return nil, errors.Wrap(err, "Can't register scale of batch normalization")
			}
			if err = store.Adopt(l.BiasName(), shift); err != nil {
				return nil, errors.Wrap(err, "Can't register shift of batch normalization")
			}
		}
		l.WeightNode, l.BiasNode = scale, shift
	default:
		return nil, fmt.Errorf("Layer's type '%d' (uint16) is not handled", l.Type)
	}
	return out, nil
}

// Activate Applies activation function of the layer. Missing activation means identity
func (l *Layer) Activate(input *gorgonia.Node) (*gorgonia.Node, error) {
	if l.Activation == nil {
		return input, nil
	}
	return l.Activation(input, l.ActivationOpts...)
}

// OutShape Shape of activated output. Empty until network's feedforward has been initialized
func (l *Layer) OutShape() tensor.Shape {
	if l.out == nil {
		return nil
	}
	return l.out.Shape()
}

// ParamCount Number of learnable values in the layer
func (l *Layer) ParamCount() int {
	count := 0
	for _, n := range []*gorgonia.Node{l.WeightNode, l.BiasNode} {
		if n != nil {
			count += n.Shape().TotalSize()
		}
	}
	return count
}
