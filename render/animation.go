package render

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// AnimationOptions Parameters of GIF assembly
//
// Delay - delay between frames in 100ths of a second
// HoldLast - append final frame once more, so viewers stay on the last image a bit longer
//
type AnimationOptions struct {
	Delay    int
	HoldLast bool
}

// DefaultAnimationOptions Half a second per frame, no extra final frame
func DefaultAnimationOptions() AnimationOptions {
	return AnimationOptions{
		Delay: 50,
	}
}

var grayPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}()

// SelectFrames Sorts names and keeps those whose frame index (twice the position in sorted list)
// exceeds index of the last kept one. Returned slice is a new one
func SelectFrames(names []string) []string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	selected := make([]string, 0, len(sorted))
	last := -1
	for i, name := range sorted {
		frame := 2 * i
		if frame <= last {
			continue
		}
		last = frame
		selected = append(selected, name)
	}
	return selected
}

// AssembleGIF Collects files in dir matching pattern and writes them as frames of animated GIF into out.
// Returns number of written frames
func AssembleGIF(dir, pattern, out string, opts AnimationOptions) (int, error) {
	names, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0, errors.Wrap(err, fmt.Sprintf("Can't match pattern '%s'", pattern))
	}
	frames := SelectFrames(names)
	if len(frames) == 0 {
		return 0, fmt.Errorf("No files match '%s' in '%s'", pattern, dir)
	}
	if opts.HoldLast {
		frames = append(frames, frames[len(frames)-1])
	}
	anim := &gif.GIF{}
	for _, name := range frames {
		img, err := readPNG(name)
		if err != nil {
			return 0, err
		}
		anim.Image = append(anim.Image, paletted(img))
		anim.Delay = append(anim.Delay, opts.Delay)
	}
	f, err := os.Create(out)
	if err != nil {
		return 0, errors.Wrap(err, fmt.Sprintf("Can't create '%s'", out))
	}
	if err = gif.EncodeAll(f, anim); err != nil {
		f.Close()
		return 0, errors.Wrap(err, fmt.Sprintf("Can't encode '%s'", out))
	}
	if err = f.Close(); err != nil {
		return 0, errors.Wrap(err, fmt.Sprintf("Can't close '%s'", out))
	}
	return len(anim.Image), nil
}

func readPNG(name string) (image.Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("Can't open '%s'", name))
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("Can't decode '%s'", name))
	}
	return img, nil
}

func paletted(img image.Image) *image.Paletted {
	b := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), grayPalette)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
