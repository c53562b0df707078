package gan_go

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/LdDl/dcgan-go/dataset"
	"github.com/LdDl/dcgan-go/metrics"
	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// UpdateKind Which part of adversarial pair has been updated
type UpdateKind uint16

const (
	UpdateDiscriminator = UpdateKind(iota)
	UpdateGenerator
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateDiscriminator:
		return "discriminator"
	case UpdateGenerator:
		return "generator"
	default:
		return fmt.Sprintf("update_kind_%d", uint16(k))
	}
}

// UpdateEvent Report of single optimizer step
//
// Updated - names of parameters the step was allowed to change
// Frozen - names of parameters which took part in feedforward, but were not changed
//
type UpdateEvent struct {
	Kind     UpdateKind
	Pass     int
	Batch    int
	Loss     float64
	Accuracy float64
	Updated  []string
	Frozen   []string
}

// TrainerOptions Hyperparameters of adversarial training
//
// Optimizer - "rmsprop" (default) or "adam"
// Loss - "bce" (default) or "mse"
// Seed - seed for latent noise (including fixed seed batch used for samples)
//
type TrainerOptions struct {
	Architecture Architecture
	BatchSize    int
	Optimizer    string
	LearningRate float64
	Loss         string
	Seed         int64
}

// DefaultTrainerOptions Options used for Fashion-MNIST
func DefaultTrainerOptions() TrainerOptions {
	return TrainerOptions{
		Architecture: DefaultArchitecture(),
		BatchSize:    32,
		Optimizer:    "rmsprop",
		LearningRate: 1e-3,
		Loss:         "bce",
	}
}

// BatchSource Anything which could produce passes over real images (dataset.Loader, for example)
type BatchSource interface {
	Pass() dataset.Iterator
}

// SampleSink Receives samples generated from the fixed seed batch. Index is 1-based pass number
type SampleSink func(index int, samples *tensor.Dense) error

// Trainer Holds both training graphs, their tape machines and solvers.
//
// Discriminator graph: input of shape (2*batch, C, H, W) => Discriminator => loss against (2*batch, 1) targets.
// GAN graph: latent input of shape (batch, latent) => Generator => view of Discriminator => loss against ones.
// Both graphs share learnables through single ParamStore.
//
type Trainer struct {
	opts  TrainerOptions
	store *ParamStore

	generator     *GeneratorNet
	discriminator *DiscriminatorNet
	gan           *GAN

	discriminatorGraph  *gorgonia.ExprGraph
	discriminatorInput  *gorgonia.Node
	discriminatorTarget *gorgonia.Node
	discriminatorOut    gorgonia.Value
	discriminatorCost   gorgonia.Value
	tmDiscriminator     gorgonia.VM
	solverDiscriminator gorgonia.Solver

	ganGraph   *gorgonia.ExprGraph
	ganTarget  *gorgonia.Node
	ganOut     gorgonia.Value
	ganCost    gorgonia.Value
	generated  gorgonia.Value
	tmForward  gorgonia.VM
	tmGAN      gorgonia.VM
	solverGAN  gorgonia.Solver
	realLabels *tensor.Dense
	allLabels  *tensor.Dense

	rng        *rand.Rand
	seedLatent *tensor.Dense
	observer   func(UpdateEvent)
	history    *metrics.History
	pass       int
	batch      int
}

// NewTrainer Builds Generator, Discriminator and GAN with provided options
func NewTrainer(opts TrainerOptions) (*Trainer, error) {
	if err := opts.Architecture.Validate(); err != nil {
		return nil, errors.Wrap(err, "Can't use architecture")
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("Batch size must be positive, but got %d", opts.BatchSize)
	}
	lossFn, err := NewLoss(opts.Loss)
	if err != nil {
		return nil, err
	}
	if _, err := NewSolver(opts.Optimizer, opts.LearningRate); err != nil {
		return nil, err
	}
	arch := opts.Architecture
	batchSize := opts.BatchSize
	t := &Trainer{
		opts:          opts,
		store:         NewParamStore(),
		generator:     DefineGenerator(arch),
		discriminator: DefineDiscriminator(arch),
		rng:           rand.New(rand.NewSource(opts.Seed)),
		history:       metrics.NewHistory(),
		realLabels:    LabelsDense(0, batchSize),
		allLabels:     LabelsDense(batchSize, batchSize),
	}

	/* Discriminator training graph */
	t.discriminatorGraph = gorgonia.NewGraph()
	imageShape := arch.ImageShape()
	t.discriminatorInput = gorgonia.NewTensor(t.discriminatorGraph, tensor.Float64, 4, gorgonia.WithShape(2*batchSize, imageShape[0], imageShape[1], imageShape[2]), gorgonia.WithName("discriminator_input"))
	if err = t.discriminator.Bind(t.discriminatorGraph, t.store); err != nil {
		return nil, err
	}
	if err = t.discriminator.Fwd(t.discriminatorInput, 2*batchSize); err != nil {
		return nil, err
	}
	gorgonia.Read(t.discriminator.Out(), &t.discriminatorOut)
	t.discriminatorTarget = gorgonia.NewMatrix(t.discriminatorGraph, tensor.Float64, gorgonia.WithShape(2*batchSize, 1), gorgonia.WithName("discriminator_target"))
	costDiscriminator, err := lossFn(t.discriminator.Out(), t.discriminatorTarget)
	if err != nil {
		return nil, errors.Wrap(err, "Can't define Discriminator's loss")
	}
	gorgonia.WithName("discriminator_loss")(costDiscriminator)
	gorgonia.Read(costDiscriminator, &t.discriminatorCost)
	if _, err = gorgonia.Grad(costDiscriminator, t.discriminator.Learnables()...); err != nil {
		return nil, errors.Wrap(err, "Can't define gradients for Discriminator")
	}
	t.tmDiscriminator = gorgonia.NewTapeMachine(t.discriminatorGraph, gorgonia.BindDualValues(t.discriminator.Learnables()...))
	t.solverDiscriminator, _ = NewSolver(opts.Optimizer, opts.LearningRate)

	/* GAN graph: Generator and view of Discriminator */
	t.ganGraph = gorgonia.NewGraph()
	if err = t.generator.Build(t.ganGraph, t.store, batchSize, arch.LatentDim); err != nil {
		return nil, err
	}
	if !t.generator.Out().Shape().Eq(tensor.Shape{batchSize, imageShape[0], imageShape[1], imageShape[2]}) {
		return nil, fmt.Errorf("Generator produces %v, but %v expected", t.generator.Out().Shape(), tensor.Shape{batchSize, imageShape[0], imageShape[1], imageShape[2]})
	}
	t.gan, err = NewGAN(t.ganGraph, t.store, t.generator, t.discriminator)
	if err != nil {
		return nil, err
	}
	if err = t.gan.Fwd(batchSize); err != nil {
		return nil, err
	}
	gorgonia.Read(t.gan.GeneratorOut(), &t.generated)
	gorgonia.Read(t.gan.Out(), &t.ganOut)
	// Feedforward-only machine must be compiled before loss and gradients are attached to the graph
	t.tmForward = gorgonia.NewTapeMachine(t.ganGraph)

	t.ganTarget = gorgonia.NewMatrix(t.ganGraph, tensor.Float64, gorgonia.WithShape(batchSize, 1), gorgonia.WithName("gan_discriminator_target"))
	costGAN, err := lossFn(t.gan.Out(), t.ganTarget)
	if err != nil {
		return nil, errors.Wrap(err, "Can't define GAN's loss")
	}
	gorgonia.WithName("gan_discriminator_loss")(costGAN)
	gorgonia.Read(costGAN, &t.ganCost)
	if _, err = gorgonia.Grad(costGAN, t.gan.Learnables()...); err != nil {
		return nil, errors.Wrap(err, "Can't define gradients for GAN")
	}
	t.tmGAN = gorgonia.NewTapeMachine(t.ganGraph, gorgonia.BindDualValues(t.gan.Learnables()...))
	t.solverGAN, _ = NewSolver(opts.Optimizer, opts.LearningRate)

	t.seedLatent = NormRandDense(t.rng, batchSize, arch.LatentDim)
	return t, nil
}

// NewSolver Returns gorgonia's solver by its name
func NewSolver(kind string, learningRate float64) (gorgonia.Solver, error) {
	if learningRate <= 0 {
		return nil, fmt.Errorf("Learning rate must be positive, but got %f", learningRate)
	}
	switch kind {
	case "", "rmsprop":
		return gorgonia.NewRMSPropSolver(gorgonia.WithLearnRate(learningRate)), nil
	case "adam":
		return gorgonia.NewAdamSolver(gorgonia.WithLearnRate(learningRate)), nil
	default:
		return nil, fmt.Errorf("Optimizer '%s' is not supported", kind)
	}
}

// NewLoss Returns loss function by its name
func NewLoss(kind string) (LossFunc, error) {
	switch kind {
	case "", "bce":
		return BinaryCrossEntropyLoss, nil
	case "mse":
		return MSELoss, nil
	default:
		return nil, fmt.Errorf("Loss '%s' is not supported", kind)
	}
}

// Close Releases tape machines
func (t *Trainer) Close() error {
	for _, vm := range []gorgonia.VM{t.tmForward, t.tmGAN, t.tmDiscriminator} {
		if vm == nil {
			continue
		}
		if err := vm.Close(); err != nil {
			return errors.Wrap(err, "Can't close tape machine")
		}
	}
	return nil
}

// SetObserver Sets callback which is called after every optimizer step
func (t *Trainer) SetObserver(observer func(UpdateEvent)) {
	t.observer = observer
}

// Store Returns parameters store shared by both graphs
func (t *Trainer) Store() *ParamStore {
	return t.store
}

// Generator Returns generator network
func (t *Trainer) Generator() *GeneratorNet {
	return t.generator
}

// Discriminator Returns discriminator network (the one being trained directly)
func (t *Trainer) Discriminator() *DiscriminatorNet {
	return t.discriminator
}

// GAN Returns composite model
func (t *Trainer) GAN() *GAN {
	return t.gan
}

// History Returns statistics of finished passes
func (t *Trainer) History() *metrics.History {
	return t.history
}

// Generate Feedforward latent batch of shape (batch, latent) through Generator. Returned tensor is a copy
func (t *Trainer) Generate(latent *tensor.Dense) (*tensor.Dense, error) {
	expected := tensor.Shape{t.opts.BatchSize, t.opts.Architecture.LatentDim}
	if !latent.Shape().Eq(expected) {
		return nil, fmt.Errorf("Latent batch must have shape %v, but got %v", expected, latent.Shape())
	}
	if err := gorgonia.Let(t.generator.Input(), latent); err != nil {
		return nil, errors.Wrap(err, "Can't set Generator's input")
	}
	defer t.tmForward.Reset()
	if err := t.tmForward.RunAll(); err != nil {
		return nil, errors.Wrap(err, "Can't run Generator")
	}
	generated, ok := t.generated.(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("Generator's output is %T, but *tensor.Dense expected", t.generated)
	}
	return generated.Clone().(*tensor.Dense), nil
}

// Samples Generates images from the seed batch. Seed batch is drawn once, so calls between updates give identical images
func (t *Trainer) Samples() (*tensor.Dense, error) {
	return t.Generate(t.seedLatent)
}

// DiscriminatorStep Single update of Discriminator on [fakes; reals] with labels [0...0; 1...1]
func (t *Trainer) DiscriminatorStep(reals *tensor.Dense) (UpdateEvent, error) {
	shape := t.opts.Architecture.ImageShape()
	expected := tensor.Shape{t.opts.BatchSize, shape[0], shape[1], shape[2]}
	if !reals.Shape().Eq(expected) {
		return UpdateEvent{}, fmt.Errorf("Real batch must have shape %v, but got %v", expected, reals.Shape())
	}
	fakes, err := t.Generate(NormRandDense(t.rng, t.opts.BatchSize, t.opts.Architecture.LatentDim))
	if err != nil {
		return UpdateEvent{}, errors.Wrap(err, "Can't generate fake samples")
	}
	allSamples, err := tensor.Concat(0, fakes, reals)
	if err != nil {
		return UpdateEvent{}, errors.Wrap(err, "Can't concat fake and real samples")
	}
	if err = gorgonia.Let(t.discriminatorInput, allSamples); err != nil {
		return UpdateEvent{}, errors.Wrap(err, "Can't set Discriminator's input")
	}
	if err = gorgonia.Let(t.discriminatorTarget, t.allLabels); err != nil {
		return UpdateEvent{}, errors.Wrap(err, "Can't set Discriminator's target")
	}
	trainable := t.discriminator.Learnables()
	if err = t.update(t.tmDiscriminator, t.solverDiscriminator, trainable); err != nil {
		return UpdateEvent{}, errors.Wrap(err, "[Discriminator]")
	}
	event, err := t.event(UpdateDiscriminator, t.discriminatorCost, t.discriminatorOut, t.allLabels)
	if err != nil {
		return UpdateEvent{}, err
	}
	event.Updated = t.discriminator.LearnableNames()
	t.emit(event)
	return event, nil
}

// GeneratorStep Single update of Generator through GAN with every label set to 1. Discriminator's parameters stay untouched
func (t *Trainer) GeneratorStep() (UpdateEvent, error) {
	latent := NormRandDense(t.rng, t.opts.BatchSize, t.opts.Architecture.LatentDim)
	if err := gorgonia.Let(t.generator.Input(), latent); err != nil {
		return UpdateEvent{}, errors.Wrap(err, "Can't set Generator's input")
	}
	if err := gorgonia.Let(t.ganTarget, t.realLabels); err != nil {
		return UpdateEvent{}, errors.Wrap(err, "Can't set GAN's target")
	}
	if err := t.update(t.tmGAN, t.solverGAN, t.gan.Learnables()); err != nil {
		return UpdateEvent{}, errors.Wrap(err, "[GAN]")
	}
	event, err := t.event(UpdateGenerator, t.ganCost, t.ganOut, t.realLabels)
	if err != nil {
		return UpdateEvent{}, err
	}
	event.Updated = t.gan.LearnableNames()
	event.Frozen = t.gan.FrozenLearnableNames()
	t.emit(event)
	return event, nil
}

// update Runs machine (feedforward + backpropagation) and applies solver to provided trainable set only
func (t *Trainer) update(vm gorgonia.VM, solver gorgonia.Solver, trainable gorgonia.Nodes) error {
	defer vm.Reset()
	if err := vm.RunAll(); err != nil {
		return errors.Wrap(err, "Can't run tape machine")
	}
	if err := solver.Step(gorgonia.NodesToValueGrads(trainable)); err != nil {
		return errors.Wrap(err, "Can't do solver step")
	}
	return nil
}

func (t *Trainer) event(kind UpdateKind, cost, out gorgonia.Value, labels *tensor.Dense) (UpdateEvent, error) {
	loss, err := Scalar(cost)
	if err != nil {
		return UpdateEvent{}, errors.Wrap(err, fmt.Sprintf("Can't read %s's loss", kind))
	}
	probabilities, err := Float64s(out)
	if err != nil {
		return UpdateEvent{}, errors.Wrap(err, fmt.Sprintf("Can't read %s's output", kind))
	}
	return UpdateEvent{
		Kind:     kind,
		Pass:     t.pass,
		Batch:    t.batch,
		Loss:     loss,
		Accuracy: Accuracy(probabilities, labels.Data().([]float64)),
	}, nil
}

func (t *Trainer) emit(event UpdateEvent) {
	switch event.Kind {
	case UpdateDiscriminator:
		t.history.RecordDiscriminator(event.Loss, event.Accuracy)
	case UpdateGenerator:
		t.history.RecordGenerator(event.Loss, event.Accuracy)
	}
	if t.observer != nil {
		t.observer(event)
	}
}

// Train Runs fixed number of passes: for every batch Discriminator step then Generator step.
// After each pass samples of the seed batch are sent to sink with index pass+1, after the last one they are sent
// once more with index 'passes'. Context is checked between batches.
//
// sink - could be nil
//
func (t *Trainer) Train(ctx context.Context, src BatchSource, passes int, sink SampleSink) error {
	if passes <= 0 {
		return fmt.Errorf("Number of passes must be positive, but got %d", passes)
	}
	for pass := 0; pass < passes; pass++ {
		t.pass = pass
		st := time.Now()
		it := src.Pass()
		t.batch = 0
		for {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, fmt.Sprintf("Training interrupted at pass %d", pass+1))
			}
			reals, ok := it.Next()
			if !ok {
				break
			}
			if _, err := t.DiscriminatorStep(reals); err != nil {
				return errors.Wrap(err, fmt.Sprintf("Pass %d, batch %d", pass+1, t.batch))
			}
			if _, err := t.GeneratorStep(); err != nil {
				return errors.Wrap(err, fmt.Sprintf("Pass %d, batch %d", pass+1, t.batch))
			}
			t.batch++
		}
		stats := t.history.ClosePass(pass + 1)
		log.Printf("pass=%d/%d batches=%d d_loss=%.4f d_acc=%.3f g_loss=%.4f g_acc=%.3f took=%s", pass+1, passes, t.batch, stats.DiscriminatorLoss, stats.DiscriminatorAccuracy, stats.GeneratorLoss, stats.GeneratorAccuracy, time.Since(st).Round(time.Millisecond))
		if err := t.render(sink, pass+1); err != nil {
			return err
		}
	}
	return t.render(sink, passes)
}

func (t *Trainer) render(sink SampleSink, index int) error {
	if sink == nil {
		return nil
	}
	samples, err := t.Samples()
	if err != nil {
		return errors.Wrap(err, "Can't generate samples")
	}
	if err = sink(index, samples); err != nil {
		return errors.Wrap(err, fmt.Sprintf("Can't export samples #%d", index))
	}
	return nil
}
