package config

import (
	"fmt"
	"os"

	gan "github.com/LdDl/dcgan-go"
	"github.com/LdDl/dcgan-go/dataset"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DatasetFashion   = "fashion"
	DatasetSynthetic = "synthetic"
)

// Config captures the runtime knobs for a DCGAN run.
type Config struct {
	Dataset       string `yaml:"dataset"`
	DataDir       string `yaml:"data_dir"`
	Download      bool   `yaml:"download"`
	BaseURL       string `yaml:"base_url"`
	SyntheticSize int    `yaml:"synthetic_size"`
	OutputDir     string `yaml:"output_dir"`
	AnimationFile string `yaml:"animation_file"`
	LossPlotFile  string `yaml:"loss_plot_file"`
	ExamplesFile  string `yaml:"examples_file"`

	BatchSize    int     `yaml:"batch_size"`
	BufferSize   int     `yaml:"buffer_size"`
	Passes       int     `yaml:"passes"`
	Seed         int64   `yaml:"seed"`
	Optimizer    string  `yaml:"optimizer"`
	LearningRate float64 `yaml:"learning_rate"`
	Loss         string  `yaml:"loss"`

	LatentDim            int     `yaml:"latent_dim"`
	KernelSize           int     `yaml:"kernel_size"`
	GeneratorFilters     [3]int  `yaml:"generator_filters,flow"`
	DiscriminatorFilters [3]int  `yaml:"discriminator_filters,flow"`
	LeakyAlpha           float64 `yaml:"leaky_alpha"`
	Dropout              float64 `yaml:"dropout"`

	GridRows      int  `yaml:"grid_rows"`
	GridCols      int  `yaml:"grid_cols"`
	GridScale     int  `yaml:"grid_scale"`
	GridMargin    int  `yaml:"grid_margin"`
	Invert        bool `yaml:"invert"`
	GIFDelay      int  `yaml:"gif_delay"`
	HoldLastFrame bool `yaml:"hold_last_frame"`
}

// Overrides captures CLI supplied values. Zero values (nil for flags) mean "not set".
type Overrides struct {
	Dataset      string
	DataDir      string
	OutputDir    string
	BatchSize    int
	Passes       int
	Seed         int64
	Optimizer    string
	LearningRate float64
	Loss         string
	Download     *bool
	HoldLast     *bool
}

// Default returns the configuration of the reference Fashion-MNIST run.
func Default() *Config {
	arch := gan.DefaultArchitecture()
	return &Config{
		Dataset:              DatasetFashion,
		DataDir:              "data/fashion",
		Download:             true,
		BaseURL:              dataset.FashionMNISTURL,
		SyntheticSize:        1024,
		OutputDir:            "out",
		AnimationFile:        "dcgan.gif",
		LossPlotFile:         "losses.png",
		ExamplesFile:         "real_examples.png",
		BatchSize:            32,
		BufferSize:           1000,
		Passes:               10,
		Optimizer:            "rmsprop",
		LearningRate:         1e-3,
		Loss:                 "bce",
		LatentDim:            arch.LatentDim,
		KernelSize:           arch.KernelSize,
		GeneratorFilters:     arch.GeneratorFilters,
		DiscriminatorFilters: arch.DiscriminatorFilters,
		LeakyAlpha:           arch.LeakyAlpha,
		Dropout:              arch.Dropout,
		GridRows:             5,
		GridCols:             5,
		GridScale:            4,
		GridMargin:           2,
		Invert:               true,
		GIFDelay:             50,
	}
}

// Load reads a Config from YAML on top of Default() and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Dataset != "" {
		c.Dataset = o.Dataset
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.OutputDir != "" {
		c.OutputDir = o.OutputDir
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Passes > 0 {
		c.Passes = o.Passes
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Optimizer != "" {
		c.Optimizer = o.Optimizer
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Loss != "" {
		c.Loss = o.Loss
	}
	if o.Download != nil {
		c.Download = *o.Download
	}
	if o.HoldLast != nil {
		c.HoldLastFrame = *o.HoldLast
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	switch c.Dataset {
	case DatasetFashion:
		if c.DataDir == "" {
			return fmt.Errorf("data_dir must be set for dataset %q", c.Dataset)
		}
	case DatasetSynthetic:
		if c.SyntheticSize < c.BatchSize {
			return fmt.Errorf("synthetic_size must be >= batch_size (got %d < %d)", c.SyntheticSize, c.BatchSize)
		}
	default:
		return fmt.Errorf("dataset must be %q or %q (got %q)", DatasetFashion, DatasetSynthetic, c.Dataset)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must be set")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.Passes <= 0 {
		return fmt.Errorf("passes must be > 0 (got %d)", c.Passes)
	}
	if _, err := gan.NewSolver(c.Optimizer, c.LearningRate); err != nil {
		return errors.Wrap(err, "optimizer")
	}
	if _, err := gan.NewLoss(c.Loss); err != nil {
		return errors.Wrap(err, "loss")
	}
	if c.GridRows <= 0 || c.GridCols <= 0 {
		return fmt.Errorf("grid must be at least 1x1 (got %dx%d)", c.GridRows, c.GridCols)
	}
	if c.GridRows*c.GridCols > c.BatchSize {
		return fmt.Errorf("grid %dx%d needs more samples than batch_size %d", c.GridRows, c.GridCols, c.BatchSize)
	}
	if c.GIFDelay < 0 {
		return fmt.Errorf("gif_delay must be >= 0 (got %d)", c.GIFDelay)
	}
	if err := c.Architecture(28, 28).Validate(); err != nil {
		return errors.Wrap(err, "architecture")
	}
	return nil
}

// Architecture maps network knobs onto the architecture for images of given size.
func (c *Config) Architecture(height, width int) gan.Architecture {
	arch := gan.DefaultArchitecture()
	arch.ImageHeight = height
	arch.ImageWidth = width
	arch.LatentDim = c.LatentDim
	arch.KernelSize = c.KernelSize
	arch.GeneratorFilters = c.GeneratorFilters
	arch.DiscriminatorFilters = c.DiscriminatorFilters
	arch.LeakyAlpha = c.LeakyAlpha
	arch.Dropout = c.Dropout
	return arch
}

// TrainerOptions maps the config onto trainer options for images of given size.
func (c *Config) TrainerOptions(height, width int) gan.TrainerOptions {
	return gan.TrainerOptions{
		Architecture: c.Architecture(height, width),
		BatchSize:    c.BatchSize,
		Optimizer:    c.Optimizer,
		LearningRate: c.LearningRate,
		Loss:         c.Loss,
		Seed:         c.Seed,
	}
}
