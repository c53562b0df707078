package dataset

import (
	"math"
	"math/rand"
)

// Synthetic Generates deterministic toy dataset: n images (height x width) with a bright blob on dark background.
// Labels are blob's quadrant (0..3).
func Synthetic(n, height, width int, seed int64) *Set {
	rng := rand.New(rand.NewSource(seed))
	images := &Images{
		Count:  n,
		Rows:   height,
		Cols:   width,
		Pixels: make([]uint8, n*height*width),
	}
	labels := make([]uint8, n)
	sigma := math.Max(1, float64(height+width)/10)
	for i := 0; i < n; i++ {
		cy := rng.Float64() * float64(height)
		cx := rng.Float64() * float64(width)
		label := 0
		if cy >= float64(height)/2 {
			label += 2
		}
		if cx >= float64(width)/2 {
			label++
		}
		labels[i] = uint8(label)
		pixels := images.At(i)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				dy, dx := float64(y)-cy, float64(x)-cx
				v := 255 * math.Exp(-(dy*dy+dx*dx)/(2*sigma*sigma))
				pixels[y*width+x] = uint8(math.Round(v))
			}
		}
	}
	return NewSet(images, labels)
}
