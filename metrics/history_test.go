package metrics

import (
	"math"
	"testing"
)

func TestHistoryClosePass(t *testing.T) {
	h := NewHistory()
	h.RecordDiscriminator(0.5, 1)
	h.RecordDiscriminator(1.5, 0)
	h.RecordGenerator(2, 0.25)

	ps := h.ClosePass(1)
	if ps.Pass != 1 {
		t.Fatalf("expected pass 1, got %d", ps.Pass)
	}
	if ps.DiscriminatorSteps != 2 || ps.GeneratorSteps != 1 {
		t.Fatalf("unexpected step counts: %+v", ps)
	}
	if math.Abs(ps.DiscriminatorLoss-1) > 1e-12 {
		t.Fatalf("expected discriminator loss 1, got %f", ps.DiscriminatorLoss)
	}
	if math.Abs(ps.DiscriminatorAccuracy-0.5) > 1e-12 {
		t.Fatalf("expected discriminator accuracy 0.5, got %f", ps.DiscriminatorAccuracy)
	}
	if ps.GeneratorLoss != 2 || ps.GeneratorAccuracy != 0.25 {
		t.Fatalf("unexpected generator stats: %+v", ps)
	}

	empty := h.ClosePass(2)
	if empty.DiscriminatorSteps != 0 || empty.DiscriminatorLoss != 0 {
		t.Fatalf("expected empty second pass, got %+v", empty)
	}
	if got := len(h.Passes()); got != 2 {
		t.Fatalf("expected 2 passes, got %d", got)
	}
}
