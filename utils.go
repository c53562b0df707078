package gan_go

import (
	"fmt"
	"math/rand"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NormRandDense Return reference to tensor.Dense filled with normally distributed (mean = 0, stddev = 1) float64 values
//
// rng - source of randomness. Same seed gives same tensor
// batchSize - Simply batch size
// n - Number of elements in each batch
// Resulting dense will have batchSize*n elements
//
func NormRandDense(rng *rand.Rand, batchSize, n int) *tensor.Dense {
	data := make([]float64, batchSize*n)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return tensor.New(tensor.WithShape(batchSize, n), tensor.WithBacking(data))
}

// LabelsDense Return reference to tensor.Dense of shape (zeros+ones, 1): 'zeros' rows of 0 followed by 'ones' rows of 1
func LabelsDense(zeros, ones int) *tensor.Dense {
	data := make([]float64, zeros+ones)
	for i := zeros; i < len(data); i++ {
		data[i] = 1
	}
	return tensor.New(tensor.WithShape(zeros+ones, 1), tensor.WithBacking(data))
}

// Float64s Extracts float64 values from gorgonia's value (tensor or scalar)
func Float64s(v gorgonia.Value) ([]float64, error) {
	switch t := v.(type) {
	case nil:
		return nil, fmt.Errorf("Value is nil")
	case *gorgonia.F64:
		return []float64{float64(*t)}, nil
	case tensor.Tensor:
		data, ok := t.Data().([]float64)
		if !ok {
			if scalar, ok := t.Data().(float64); ok {
				return []float64{scalar}, nil
			}
			return nil, fmt.Errorf("Tensor holds %T, but []float64 expected", t.Data())
		}
		return data, nil
	default:
		return nil, fmt.Errorf("Value of type %T is not handled", v)
	}
}

// Scalar Extracts single float64 value from gorgonia's value
func Scalar(v gorgonia.Value) (float64, error) {
	data, err := Float64s(v)
	if err != nil {
		return 0, err
	}
	if len(data) != 1 {
		return 0, fmt.Errorf("Value has %d elements, but scalar expected", len(data))
	}
	return data[0], nil
}

// Accuracy Share of probabilities which fall on the same side of 0.5 as corresponding labels
func Accuracy(probabilities, labels []float64) float64 {
	if len(probabilities) == 0 || len(probabilities) != len(labels) {
		return 0
	}
	hits := 0
	for i := range probabilities {
		predicted := 0.0
		if probabilities[i] >= 0.5 {
			predicted = 1.0
		}
		if predicted == labels[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(probabilities))
}
