package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	gan "github.com/LdDl/dcgan-go"
	"github.com/LdDl/dcgan-go/dataset"
	"gorgonia.org/tensor"
)

var (
	imgHeight     = 12
	imgWidth      = 12
	batchSize     = 16
	numImages     = 256
	numPasses     = 30
	evalPrint     = 5
	learning_rate = 0.001
)

func main() {
	// Initialize seed with constant value to reproduce results
	rand.Seed(1337)

	// Prepare synthetic data: single bright blob per image
	trainSet := dataset.Synthetic(numImages, imgHeight, imgWidth, 1337)
	fmt.Println("Example of training image:")
	printImage(trainSet.Image(0))

	loader, err := dataset.NewLoader(trainSet, dataset.LoaderOptions{
		BatchSize:  batchSize,
		BufferSize: numImages,
		Seed:       1337,
	})
	if err != nil {
		panic(err)
	}

	// Small DCGAN is enough for blobs
	arch := gan.DefaultArchitecture()
	arch.ImageHeight = imgHeight
	arch.ImageWidth = imgWidth
	arch.LatentDim = 8
	arch.KernelSize = 3
	arch.GeneratorFilters = [3]int{16, 8, 4}
	arch.DiscriminatorFilters = [3]int{4, 8, 8}

	trainer, err := gan.NewTrainer(gan.TrainerOptions{
		Architecture: arch,
		BatchSize:    batchSize,
		Optimizer:    "adam",
		LearningRate: learning_rate,
		Loss:         "bce",
		Seed:         1337,
	})
	if err != nil {
		panic(err)
	}
	defer trainer.Close()

	st := time.Now()
	printed := 0
	sink := func(index int, samples *tensor.Dense) error {
		// Final render repeats index of the last pass
		if index%evalPrint != 0 || index == printed {
			return nil
		}
		printed = index
		passes := trainer.History().Passes()
		last := passes[len(passes)-1]
		fmt.Printf("Pass %d:\n", index)
		fmt.Printf("\tDiscriminator's loss: %v\n", last.DiscriminatorLoss)
		fmt.Printf("\tGenerator's loss: %v\n", last.GeneratorLoss)
		fmt.Printf("\tTaken time: %v\n", time.Since(st))
		st = time.Now()
		printImage(samples.Data().([]float64)[:imgHeight*imgWidth])
		return nil
	}
	if err = trainer.Train(context.Background(), loader, numPasses, sink); err != nil {
		panic(err)
	}
}

// printImage Prints image with values in [-1;1] as ASCII art
func printImage(data []float64) {
	for y := 0; y < imgHeight; y++ {
		fmt.Printf("\t")
		for x := 0; x < imgWidth; x++ {
			char := " "
			switch v := data[y*imgWidth+x]; {
			case v > 0.5:
				char = "#"
			case v > 0:
				char = "+"
			case v > -0.5:
				char = "."
			}
			fmt.Printf("%s ", char)
		}
		fmt.Println()
	}
}
