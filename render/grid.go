package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gorgonia.org/tensor"
)

// SamplePattern Glob pattern matching every file produced by SaveSample
const SamplePattern = "image_at_epoch_*.png"

const (
	captionHeight  = 17
	captionPadding = 4
)

// GridOptions Layout of samples grid
//
// Rows, Cols - number of images along each side. First Rows*Cols images of a batch are used
// Scale - nearest neighbour upscaling factor. Values less than 2 mean no upscaling
// Margin - gap in pixels between neighbouring images (before upscaling)
// Invert - dark pixels for high intensities (the way 'binary' colormap shows images)
// Caption - text printed on the strip below the grid. Empty caption means no strip
//
type GridOptions struct {
	Rows    int
	Cols    int
	Scale   int
	Margin  int
	Invert  bool
	Caption string
}

// DefaultGridOptions 5x5 grid with inverted intensities
func DefaultGridOptions() GridOptions {
	return GridOptions{
		Rows:   5,
		Cols:   5,
		Scale:  4,
		Margin: 2,
		Invert: true,
	}
}

// Intensity Maps value from [-1;1] into [0;255]: x*127.5+127.5, clamped
func Intensity(x float64) uint8 {
	v := math.Round(x*127.5 + 127.5)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Grid Lays single-channel images of batch (batch, 1, height, width) out on a grid
func Grid(batch *tensor.Dense, opts GridOptions) (*image.Gray, error) {
	shape := batch.Shape()
	if len(shape) != 4 {
		return nil, fmt.Errorf("Batch must be 4D (batch, channels, height, width), but got %v", shape)
	}
	if shape[1] != 1 {
		return nil, fmt.Errorf("Only single-channel images are supported, but got %d channels", shape[1])
	}
	if opts.Rows <= 0 || opts.Cols <= 0 {
		return nil, fmt.Errorf("Grid must have positive number of rows and columns, but got %dx%d", opts.Rows, opts.Cols)
	}
	if opts.Margin < 0 {
		return nil, fmt.Errorf("Margin can't be negative, but got %d", opts.Margin)
	}
	cells := opts.Rows * opts.Cols
	if shape[0] < cells {
		return nil, fmt.Errorf("Grid %dx%d needs %d images, but batch has %d", opts.Rows, opts.Cols, cells, shape[0])
	}
	data, ok := batch.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("Batch holds %T, but []float64 expected", batch.Data())
	}
	h, w := shape[2], shape[3]
	m := opts.Margin
	gridW := opts.Cols*w + (opts.Cols+1)*m
	gridH := opts.Rows*h + (opts.Rows+1)*m
	grid := image.NewGray(image.Rect(0, 0, gridW, gridH))
	draw.Draw(grid, grid.Bounds(), image.White, image.Point{}, draw.Src)
	for i := 0; i < cells; i++ {
		row, col := i/opts.Cols, i%opts.Cols
		x0 := m + col*(w+m)
		y0 := m + row*(h+m)
		pixels := data[i*h*w : (i+1)*h*w]
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := Intensity(pixels[y*w+x])
				if opts.Invert {
					v = 255 - v
				}
				grid.SetGray(x0+x, y0+y, color.Gray{Y: v})
			}
		}
	}
	if opts.Scale > 1 {
		scaled := image.NewGray(image.Rect(0, 0, gridW*opts.Scale, gridH*opts.Scale))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), grid, grid.Bounds(), draw.Src, nil)
		grid = scaled
	}
	if opts.Caption == "" {
		return grid, nil
	}
	return withCaption(grid, opts.Caption), nil
}

func withCaption(src *image.Gray, caption string) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()+captionHeight))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, b, src, b.Min, draw.Src)
	d := &font.Drawer{
		Dst:  out,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(captionPadding, b.Dy()+captionHeight-captionPadding),
	}
	d.DrawString(caption)
	return out
}

// SampleName Name of samples file for provided pass index
func SampleName(pass int) string {
	return fmt.Sprintf("image_at_epoch_%04d.png", pass)
}

// SaveSample Writes image as PNG into dir. File with the same index is overwritten
func SaveSample(dir string, pass int, img image.Image) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, fmt.Sprintf("Can't create directory '%s'", dir))
	}
	path := filepath.Join(dir, SampleName(pass))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, fmt.Sprintf("Can't create '%s'", path))
	}
	if err = png.Encode(f, img); err != nil {
		f.Close()
		return "", errors.Wrap(err, fmt.Sprintf("Can't encode '%s'", path))
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, fmt.Sprintf("Can't close '%s'", path))
	}
	return path, nil
}
