package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	gan "github.com/LdDl/dcgan-go"
	"github.com/LdDl/dcgan-go/config"
	"github.com/LdDl/dcgan-go/dataset"
	"github.com/LdDl/dcgan-go/render"
	"gorgonia.org/tensor"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (defaults are used when empty)")
	datasetName := flag.String("dataset", "", "Dataset: fashion or synthetic")
	dataDir := flag.String("data-dir", "", "Directory with Fashion-MNIST files")
	outputDir := flag.String("output-dir", "", "Directory for samples, animation and loss plot")
	passes := flag.Int("passes", 0, "Number of passes over the dataset")
	batchSize := flag.Int("batch-size", 0, "Batch size")
	seed := flag.Int64("seed", 0, "PRNG seed")
	optimizer := flag.String("optimizer", "", "Optimizer: rmsprop or adam")
	learningRate := flag.Float64("learning-rate", 0, "Learning rate")
	loss := flag.String("loss", "", "Loss: bce or mse")
	noDownload := flag.Bool("no-download", false, "Do not download missing dataset files")
	holdLast := flag.Bool("hold-last", false, "Repeat last frame of the animation")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	overrides := config.Overrides{
		Dataset:      *datasetName,
		DataDir:      *dataDir,
		OutputDir:    *outputDir,
		BatchSize:    *batchSize,
		Passes:       *passes,
		Seed:         *seed,
		Optimizer:    *optimizer,
		LearningRate: *learningRate,
		Loss:         *loss,
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "no-download":
			download := !*noDownload
			overrides.Download = &download
		case "hold-last":
			overrides.HoldLast = holdLast
		}
	})
	cfg.ApplyOverrides(overrides)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// Initializers of gorgonia rely on global source
	rand.Seed(cfg.Seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	split, err := loadSplit(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}
	set := split.Train
	log.Printf("dataset=%s train_images=%d test_images=%d shape=%dx%d", cfg.Dataset, set.Count, split.Test.Count, set.Height, set.Width)

	loader, err := dataset.NewLoader(set, dataset.LoaderOptions{
		BatchSize:  cfg.BatchSize,
		BufferSize: cfg.BufferSize,
		Seed:       cfg.Seed,
	})
	if err != nil {
		log.Fatalf("failed to prepare loader: %v", err)
	}
	if loader.NumBatches() == 0 {
		log.Fatalf("dataset has %d images, which is less than batch size %d", set.Count, cfg.BatchSize)
	}

	trainer, err := gan.NewTrainer(cfg.TrainerOptions(set.Height, set.Width))
	if err != nil {
		log.Fatalf("failed to build networks: %v", err)
	}
	defer trainer.Close()
	if err := trainer.Summary(os.Stdout); err != nil {
		log.Fatalf("failed to print summary: %v", err)
	}

	gridOpts := render.GridOptions{
		Rows:   cfg.GridRows,
		Cols:   cfg.GridCols,
		Scale:  cfg.GridScale,
		Margin: cfg.GridMargin,
		Invert: cfg.Invert,
	}
	if err := saveExamples(split.Test, gridOpts, filepath.Join(cfg.OutputDir, cfg.ExamplesFile)); err != nil {
		log.Fatalf("failed to render real examples: %v", err)
	}
	sink := func(index int, samples *tensor.Dense) error {
		opts := gridOpts
		opts.Caption = fmt.Sprintf("pass %d", index)
		img, err := render.Grid(samples, opts)
		if err != nil {
			return err
		}
		path, err := render.SaveSample(cfg.OutputDir, index, img)
		if err != nil {
			return err
		}
		log.Printf("samples=%s", path)
		return nil
	}

	log.Printf("training passes=%d batches_per_pass=%d batch_shape=%v optimizer=%s loss=%s", cfg.Passes, loader.NumBatches(), loader.BatchShape(), cfg.Optimizer, cfg.Loss)
	st := time.Now()
	if err := trainer.Train(ctx, loader, cfg.Passes, sink); err != nil {
		log.Fatalf("training failed: %v", err)
	}
	log.Printf("training done took=%s", time.Since(st).Round(time.Second))

	plotPath := filepath.Join(cfg.OutputDir, cfg.LossPlotFile)
	if err := render.PlotLosses(trainer.History().Passes(), plotPath); err != nil {
		log.Fatalf("failed to plot losses: %v", err)
	}
	gifPath := filepath.Join(cfg.OutputDir, cfg.AnimationFile)
	frames, err := render.AssembleGIF(cfg.OutputDir, render.SamplePattern, gifPath, render.AnimationOptions{
		Delay:    cfg.GIFDelay,
		HoldLast: cfg.HoldLastFrame,
	})
	if err != nil {
		log.Fatalf("failed to assemble animation: %v", err)
	}
	log.Printf("animation=%s frames=%d losses=%s", gifPath, frames, plotPath)
}

func loadSplit(ctx context.Context, cfg *config.Config) (*dataset.Split, error) {
	if cfg.Dataset == config.DatasetSynthetic {
		return &dataset.Split{
			Train: dataset.Synthetic(cfg.SyntheticSize, 28, 28, cfg.Seed),
			Test:  dataset.Synthetic(cfg.GridRows*cfg.GridCols, 28, 28, cfg.Seed+1),
		}, nil
	}
	if cfg.Download {
		client := &http.Client{Timeout: 5 * time.Minute}
		if err := dataset.Fetch(ctx, client, cfg.BaseURL, cfg.DataDir); err != nil {
			return nil, err
		}
	}
	return dataset.Load(cfg.DataDir)
}

// saveExamples Renders grid of real images, so generated samples could be compared against them
func saveExamples(set *dataset.Set, opts render.GridOptions, path string) error {
	batch, err := set.Head(opts.Rows * opts.Cols)
	if err != nil {
		return err
	}
	opts.Caption = "real"
	img, err := render.Grid(batch, opts)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	log.Printf("examples=%s", path)
	return f.Close()
}
