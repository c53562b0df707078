package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049
)

// Images Raw grayscale images stored row-major, one byte per pixel
type Images struct {
	Count  int
	Rows   int
	Cols   int
	Pixels []uint8
}

// At Returns pixels of i-th image
func (im *Images) At(i int) []uint8 {
	size := im.Rows * im.Cols
	return im.Pixels[i*size : (i+1)*size]
}

// ReadImages Reads IDX3 images file (see http://yann.lecun.com/exdb/mnist/)
func ReadImages(r io.Reader) (*Images, error) {
	var header [4]int32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrap(err, "Can't read IDX images header")
	}
	if header[0] != idxImagesMagic {
		return nil, fmt.Errorf("Invalid magic number for IDX images: %d", header[0])
	}
	if header[1] < 0 || header[2] <= 0 || header[3] <= 0 {
		return nil, fmt.Errorf("Invalid IDX images dimensions: %d x %d x %d", header[1], header[2], header[3])
	}
	im := &Images{
		Count: int(header[1]),
		Rows:  int(header[2]),
		Cols:  int(header[3]),
	}
	im.Pixels = make([]uint8, im.Count*im.Rows*im.Cols)
	if _, err := io.ReadFull(r, im.Pixels); err != nil {
		return nil, errors.Wrap(err, "Can't read IDX images payload")
	}
	return im, nil
}

// ReadLabels Reads IDX1 labels file
func ReadLabels(r io.Reader) ([]uint8, error) {
	var header [2]int32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrap(err, "Can't read IDX labels header")
	}
	if header[0] != idxLabelsMagic {
		return nil, fmt.Errorf("Invalid magic number for IDX labels: %d", header[0])
	}
	if header[1] < 0 {
		return nil, fmt.Errorf("Invalid IDX labels count: %d", header[1])
	}
	labels := make([]uint8, header[1])
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, errors.Wrap(err, "Can't read IDX labels payload")
	}
	return labels, nil
}

// WriteImages Writes images in IDX3 format
func WriteImages(w io.Writer, im *Images) error {
	header := [4]int32{idxImagesMagic, int32(im.Count), int32(im.Rows), int32(im.Cols)}
	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return errors.Wrap(err, "Can't write IDX images header")
	}
	if _, err := w.Write(im.Pixels); err != nil {
		return errors.Wrap(err, "Can't write IDX images payload")
	}
	return nil
}

// WriteLabels Writes labels in IDX1 format
func WriteLabels(w io.Writer, labels []uint8) error {
	header := [2]int32{idxLabelsMagic, int32(len(labels))}
	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return errors.Wrap(err, "Can't write IDX labels header")
	}
	if _, err := w.Write(labels); err != nil {
		return errors.Wrap(err, "Can't write IDX labels payload")
	}
	return nil
}

// openIDX Opens IDX file. Files with '.gz' extension are decompressed on the fly
func openIDX(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("Can't open '%s'", path))
	}
	if !strings.HasSuffix(path, ".gz") {
		return struct {
			io.Reader
			io.Closer
		}{bufio.NewReader(f), f}, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, fmt.Sprintf("Can't decompress '%s'", path))
	}
	return &gzipFile{Reader: gz, file: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	gzErr := g.Reader.Close()
	if err := g.file.Close(); err != nil {
		return err
	}
	return gzErr
}

// LoadSet Reads images and labels files into Set
func LoadSet(imagesPath, labelsPath string) (*Set, error) {
	imagesFile, err := openIDX(imagesPath)
	if err != nil {
		return nil, err
	}
	defer imagesFile.Close()
	images, err := ReadImages(imagesFile)
	if err != nil {
		return nil, errors.Wrap(err, filepath.Base(imagesPath))
	}
	labelsFile, err := openIDX(labelsPath)
	if err != nil {
		return nil, err
	}
	defer labelsFile.Close()
	labels, err := ReadLabels(labelsFile)
	if err != nil {
		return nil, errors.Wrap(err, filepath.Base(labelsPath))
	}
	if len(labels) != images.Count {
		return nil, fmt.Errorf("Number of labels (%d) does not match number of images (%d)", len(labels), images.Count)
	}
	return NewSet(images, labels), nil
}
