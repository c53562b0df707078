package gan_go

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
)

type LossReduction uint16

const (
	LossReductionSum = LossReduction(iota)
	LossReductionMean
)

// LossFunc Signature shared by every loss of the package
type LossFunc func(a, b *gorgonia.Node, reduction ...LossReduction) (*gorgonia.Node, error)

// MSELoss See ref. https://en.wikipedia.org/wiki/Mean_squared_error
// Default reduction is 'mean'
func MSELoss(a, b *gorgonia.Node, reduction ...LossReduction) (*gorgonia.Node, error) {
	sub, err := gorgonia.Sub(a, b)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do (A-B)")
	}
	sqr, err := gorgonia.Square(sub)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do (x^2)")
	}
	return reduce(sqr, reduction...)
}

// BinaryCrossEntropyLoss See ref. https://en.wikipedia.org/wiki/Cross_entropy#Cross-entropy_loss_function_and_logistic_regression
// In case of binary variation of cross entropy loss: sample could belong to 0 or 1 only.
// loss = -(B*log(A) + (1-B)*log(1-A))
// Predictions are squeezed into [eps; 1-eps] before taking logarithms, so saturated sigmoid does not produce infinities.
// Default reduction is 'mean'
func BinaryCrossEntropyLoss(a, b *gorgonia.Node, reduction ...LossReduction) (*gorgonia.Node, error) {
	a, err := clipProbabilities(a)
	if err != nil {
		return nil, err
	}
	logMain, err := gorgonia.Log(a)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do log(A)")
	}
	hprodMain, err := gorgonia.HadamardProd(logMain, b)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do (x.*B)")
	}

	onesTensor := gorgonia.NewTensor(a.Graph(), a.Dtype(), a.Dims(), gorgonia.WithShape(a.Shape()...), gorgonia.WithName(a.Name()+"_bce_ones"), gorgonia.WithInit(gorgonia.Ones()))
	subBin, err := gorgonia.Sub(onesTensor, a)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do (1-A)")
	}
	logBin, err := gorgonia.Log(subBin)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do log(1-A)")
	}
	preLogBin, err := gorgonia.Sub(onesTensor, b)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do (1-B)")
	}
	hprodBin, err := gorgonia.HadamardProd(logBin, preLogBin)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do (x.*(1-B))")
	}
	hprod, err := gorgonia.Add(hprodMain, hprodBin)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do (x+y)")
	}
	neg, err := gorgonia.Neg(hprod)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do -1*x")
	}
	return reduce(neg, reduction...)
}

// BCEEpsilon Margin keeping probabilities away from 0 and 1 in BinaryCrossEntropyLoss
const BCEEpsilon = 1e-7

func clipProbabilities(a *gorgonia.Node) (*gorgonia.Node, error) {
	// Unnamed scalars of the same type are merged by graph, so every constant needs its own name
	scaleScalar := gorgonia.NewScalar(a.Graph(), a.Dtype(), gorgonia.WithName(a.Name()+"_bce_scale"), gorgonia.WithValue(1.0-2*BCEEpsilon))
	shiftScalar := gorgonia.NewScalar(a.Graph(), a.Dtype(), gorgonia.WithName(a.Name()+"_bce_shift"), gorgonia.WithValue(BCEEpsilon))
	scaled, err := gorgonia.Mul(a, scaleScalar)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do (A*(1-2eps))")
	}
	shifted, err := gorgonia.Add(scaled, shiftScalar)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do (x+eps)")
	}
	gorgonia.WithName(a.Name() + "_clipped")(shifted)
	return shifted, nil
}

func reduce(a *gorgonia.Node, reduction ...LossReduction) (*gorgonia.Node, error) {
	reductionDefault := LossReductionMean
	if len(reduction) != 0 {
		reductionDefault = reduction[0]
	}
	switch reductionDefault {
	case LossReductionSum:
		return gorgonia.Sum(a)
	case LossReductionMean:
		return gorgonia.Mean(a)
	default:
		return nil, fmt.Errorf("Reduction type %d is not supported", reductionDefault)
	}
}
