package dataset

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Set Labeled single-channel images, normalized into [-1;1]
//
// Data - Count*Height*Width values, row-major, image after image
//
type Set struct {
	Count  int
	Height int
	Width  int
	Data   []float64
	Labels []uint8
}

// NewSet Normalizes raw pixels: [0;255] => [0;1] => [-1;1]
func NewSet(images *Images, labels []uint8) *Set {
	data := ToUnit(images.Pixels)
	ToSymmetric(data)
	return &Set{
		Count:  images.Count,
		Height: images.Rows,
		Width:  images.Cols,
		Data:   data,
		Labels: labels,
	}
}

// ImageSize Number of values per image
func (s *Set) ImageSize() int {
	return s.Height * s.Width
}

// Image Returns normalized values of i-th image
func (s *Set) Image(i int) []float64 {
	size := s.ImageSize()
	return s.Data[i*size : (i+1)*size]
}

// Head Copies first n images into batch of shape (n, 1, height, width)
func (s *Set) Head(n int) (*tensor.Dense, error) {
	if n <= 0 || n > s.Count {
		return nil, fmt.Errorf("Can't take %d images from set of %d", n, s.Count)
	}
	data := make([]float64, n*s.ImageSize())
	copy(data, s.Data[:n*s.ImageSize()])
	return tensor.New(tensor.WithShape(n, 1, s.Height, s.Width), tensor.WithBacking(data)), nil
}

// Split Train and test parts of a dataset
type Split struct {
	Train *Set
	Test  *Set
}

// ToUnit Maps pixel intensities to [0;1]
func ToUnit(pixels []uint8) []float64 {
	out := make([]float64, len(pixels))
	for i, p := range pixels {
		out[i] = float64(p) / 255.0
	}
	return out
}

// ToSymmetric Rescales [0;1] values to [-1;1] in place
func ToSymmetric(values []float64) {
	for i := range values {
		values[i] = values[i]*2.0 - 1.0
	}
}
