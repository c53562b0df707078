package metrics

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// History accumulates per-step losses and accuracies of both networks and folds them into per-pass stats.
type History struct {
	discriminatorLoss []float64
	discriminatorAcc  []float64
	generatorLoss     []float64
	generatorAcc      []float64
	started           time.Time
	passes            []PassStats
}

// PassStats represents loggable metrics of a single pass.
type PassStats struct {
	Pass                  int
	DiscriminatorSteps    int
	GeneratorSteps        int
	DiscriminatorLoss     float64
	DiscriminatorAccuracy float64
	GeneratorLoss         float64
	GeneratorAccuracy     float64
	Duration              time.Duration
}

// NewHistory starts an empty history; the first pass starts now.
func NewHistory() *History {
	return &History{started: time.Now()}
}

// RecordDiscriminator adds a discriminator step measurement to the current pass.
func (h *History) RecordDiscriminator(loss, accuracy float64) {
	h.discriminatorLoss = append(h.discriminatorLoss, loss)
	h.discriminatorAcc = append(h.discriminatorAcc, accuracy)
}

// RecordGenerator adds a generator step measurement to the current pass.
func (h *History) RecordGenerator(loss, accuracy float64) {
	h.generatorLoss = append(h.generatorLoss, loss)
	h.generatorAcc = append(h.generatorAcc, accuracy)
}

// ClosePass aggregates current pass, stores it and starts a new one.
func (h *History) ClosePass(pass int) PassStats {
	now := time.Now()
	ps := PassStats{
		Pass:                  pass,
		DiscriminatorSteps:    len(h.discriminatorLoss),
		GeneratorSteps:        len(h.generatorLoss),
		DiscriminatorLoss:     mean(h.discriminatorLoss),
		DiscriminatorAccuracy: mean(h.discriminatorAcc),
		GeneratorLoss:         mean(h.generatorLoss),
		GeneratorAccuracy:     mean(h.generatorAcc),
		Duration:              now.Sub(h.started),
	}
	h.passes = append(h.passes, ps)
	h.discriminatorLoss = h.discriminatorLoss[:0]
	h.discriminatorAcc = h.discriminatorAcc[:0]
	h.generatorLoss = h.generatorLoss[:0]
	h.generatorAcc = h.generatorAcc[:0]
	h.started = now
	return ps
}

// Passes returns stats of every closed pass.
func (h *History) Passes() []PassStats {
	out := make([]PassStats, len(h.passes))
	copy(out, h.passes)
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
