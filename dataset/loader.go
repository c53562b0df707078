package dataset

import (
	"fmt"
	"math/rand"

	"gorgonia.org/tensor"
)

// Iterator Lazy sequence of image batches of shape (batch, 1, height, width)
type Iterator interface {
	Next() (*tensor.Dense, bool)
}

// LoaderOptions configures batching.
//
// BufferSize - size of shuffle buffer. Non-positive value (or value not less than dataset size) means full permutation
// Seed - seed of shuffling. Same seed gives same sequence of passes
//
type LoaderOptions struct {
	BatchSize  int
	BufferSize int
	Seed       int64
}

// Loader Splits Set into fixed-size batches; each call of Pass() reshuffles the data
type Loader struct {
	set  *Set
	opts LoaderOptions
	rng  *rand.Rand
}

// NewLoader Constructor for Loader
func NewLoader(set *Set, opts LoaderOptions) (*Loader, error) {
	if set == nil || set.Count == 0 {
		return nil, fmt.Errorf("Loader needs non-empty set")
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("Batch size must be positive, but got %d", opts.BatchSize)
	}
	return &Loader{
		set:  set,
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
	}, nil
}

// NumBatches Number of batches in every pass. Tail which is smaller than batch size is dropped
func (l *Loader) NumBatches() int {
	return l.set.Count / l.opts.BatchSize
}

// BatchShape Shape of produced batches
func (l *Loader) BatchShape() tensor.Shape {
	return tensor.Shape{l.opts.BatchSize, 1, l.set.Height, l.set.Width}
}

// Pass Starts next pass over the data
func (l *Loader) Pass() Iterator {
	return &batchIterator{
		set:   l.set,
		order: ShuffleOrder(l.rng, l.set.Count, l.opts.BufferSize),
		batch: l.opts.BatchSize,
	}
}

// ShuffleOrder Returns order of n elements as produced by a shuffle buffer of given size:
// buffer is filled with first elements, then every output is picked at random from the buffer
// and its slot is refilled with the next element of the input.
func ShuffleOrder(rng *rand.Rand, n, bufferSize int) []int {
	if bufferSize <= 0 || bufferSize >= n {
		return rng.Perm(n)
	}
	order := make([]int, 0, n)
	buffer := make([]int, 0, bufferSize)
	next := 0
	for ; next < bufferSize; next++ {
		buffer = append(buffer, next)
	}
	for len(buffer) > 0 {
		j := rng.Intn(len(buffer))
		order = append(order, buffer[j])
		if next < n {
			buffer[j] = next
			next++
			continue
		}
		last := len(buffer) - 1
		buffer[j] = buffer[last]
		buffer = buffer[:last]
	}
	return order
}

type batchIterator struct {
	set   *Set
	order []int
	batch int
	pos   int
}

func (it *batchIterator) Next() (*tensor.Dense, bool) {
	if it.pos+it.batch > len(it.order) {
		return nil, false
	}
	size := it.set.ImageSize()
	data := make([]float64, it.batch*size)
	for i := 0; i < it.batch; i++ {
		copy(data[i*size:(i+1)*size], it.set.Image(it.order[it.pos+i]))
	}
	it.pos += it.batch
	return tensor.New(tensor.WithShape(it.batch, 1, it.set.Height, it.set.Width), tensor.WithBacking(data)), true
}
