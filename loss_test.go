package gan_go

import (
	"math"
	"testing"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func evalLoss(t *testing.T, lossFn LossFunc, predicted, target []float64) float64 {
	t.Helper()
	g := gorgonia.NewGraph()
	a := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(len(predicted), 1), gorgonia.WithName("a"), gorgonia.WithValue(tensor.New(tensor.WithShape(len(predicted), 1), tensor.WithBacking(predicted))))
	b := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(len(target), 1), gorgonia.WithName("b"), gorgonia.WithValue(tensor.New(tensor.WithShape(len(target), 1), tensor.WithBacking(target))))
	cost, err := lossFn(a, b)
	if err != nil {
		t.Fatalf("loss: %v", err)
	}
	var costVal gorgonia.Value
	gorgonia.Read(cost, &costVal)
	tm := gorgonia.NewTapeMachine(g)
	defer tm.Close()
	if err = tm.RunAll(); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	v, err := Scalar(costVal)
	if err != nil {
		t.Fatalf("Scalar: %v", err)
	}
	return v
}

func TestBinaryCrossEntropyLoss(t *testing.T) {
	got := evalLoss(t, BinaryCrossEntropyLoss, []float64{0.9, 0.2}, []float64{1, 0})
	expected := -(math.Log(0.9) + math.Log(0.8)) / 2
	if math.Abs(got-expected) > 1e-5 {
		t.Fatalf("expected %f, got %f", expected, got)
	}
}

func TestBinaryCrossEntropyLossSaturated(t *testing.T) {
	got := evalLoss(t, BinaryCrossEntropyLoss, []float64{0, 1}, []float64{1, 0})
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Fatalf("saturated predictions must give finite loss, got %f", got)
	}
	if got < 10 {
		t.Fatalf("completely wrong predictions must give large loss, got %f", got)
	}
}

func TestMSELoss(t *testing.T) {
	got := evalLoss(t, MSELoss, []float64{1, 0.5}, []float64{0, 0.5})
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected 0.5, got %f", got)
	}
}

func TestClipProbabilities(t *testing.T) {
	g := gorgonia.NewGraph()
	a := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(2, 1), gorgonia.WithName("a"), gorgonia.WithValue(tensor.New(tensor.WithShape(2, 1), tensor.WithBacking([]float64{0, 1}))))
	clipped, err := clipProbabilities(a)
	if err != nil {
		t.Fatalf("clipProbabilities: %v", err)
	}
	var clippedVal gorgonia.Value
	gorgonia.Read(clipped, &clippedVal)
	tm := gorgonia.NewTapeMachine(g)
	defer tm.Close()
	if err = tm.RunAll(); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	data, err := Float64s(clippedVal)
	if err != nil {
		t.Fatalf("Float64s: %v", err)
	}
	if math.Abs(data[0]-BCEEpsilon) > 1e-12 || math.Abs(data[1]-(1-BCEEpsilon)) > 1e-12 {
		t.Fatalf("expected [%g %g], got %v", BCEEpsilon, 1-BCEEpsilon, data)
	}
}
