package gan_go

import (
	"testing"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestParamStoreSharesValues(t *testing.T) {
	store := NewParamStore()
	g1 := gorgonia.NewGraph()
	g2 := gorgonia.NewGraph()
	n1, err := store.Node(g1, "dense_w", tensor.Shape{2, 3}, gorgonia.GlorotN(1.0))
	if err != nil {
		t.Fatalf("Node: %v", err)
	}
	n2, err := store.Node(g2, "dense_w", tensor.Shape{2, 3}, gorgonia.Zeroes())
	if err != nil {
		t.Fatalf("Node: %v", err)
	}
	if n1.Graph() == n2.Graph() {
		t.Fatal("nodes must live on different graphs")
	}
	v, _ := store.Value("dense_w")
	v.Data().([]float64)[0] = 42
	if got := n2.Value().Data().([]float64)[0]; got != 42 {
		t.Fatalf("second node must see stored value, got %v", got)
	}
	if store.Len() != 1 {
		t.Fatalf("expected single parameter, got %d", store.Len())
	}
}

func TestParamStoreShapeMismatch(t *testing.T) {
	store := NewParamStore()
	g := gorgonia.NewGraph()
	if _, err := store.Node(g, "w", tensor.Shape{2, 2}, gorgonia.Zeroes()); err != nil {
		t.Fatalf("Node: %v", err)
	}
	if _, err := store.Node(gorgonia.NewGraph(), "w", tensor.Shape{4, 1}, gorgonia.Zeroes()); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestParamStoreAdoptAndSnapshot(t *testing.T) {
	store := NewParamStore()
	g := gorgonia.NewGraph()
	n := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(1, 2), gorgonia.WithName("bn_w"), gorgonia.WithInit(gorgonia.Ones()))
	if err := store.Adopt("bn_w", n); err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	if err := store.Adopt("bn_w", n); err == nil {
		t.Fatal("expected duplicate error")
	}
	snap := store.Snapshot()
	snap["bn_w"][0] = -1
	v, _ := store.Value("bn_w")
	if v.Data().([]float64)[0] != 1 {
		t.Fatal("snapshot must be a copy")
	}
	if names := store.Names(); len(names) != 1 || names[0] != "bn_w" {
		t.Fatalf("unexpected names: %v", names)
	}
}
