package dataset

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FashionMNISTURL Default location of Fashion-MNIST files
const FashionMNISTURL = "http://fashion-mnist.s3-website.eu-central-1.amazonaws.com/"

const (
	TrainImagesFile = "train-images-idx3-ubyte.gz"
	TrainLabelsFile = "train-labels-idx1-ubyte.gz"
	TestImagesFile  = "t10k-images-idx3-ubyte.gz"
	TestLabelsFile  = "t10k-labels-idx1-ubyte.gz"
)

// Files Every file which forms the dataset
var Files = []string{TrainImagesFile, TrainLabelsFile, TestImagesFile, TestLabelsFile}

// Fetch Downloads missing dataset files from baseURL into dir. Existing files are left untouched
func Fetch(ctx context.Context, client *http.Client, baseURL, dir string) error {
	if client == nil {
		client = http.DefaultClient
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, fmt.Sprintf("Can't create directory '%s'", dir))
	}
	for _, name := range Files {
		dest := filepath.Join(dir, name)
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		url := strings.TrimSuffix(baseURL, "/") + "/" + name
		log.Printf("downloading url=%s", url)
		if err := download(ctx, client, url, dest); err != nil {
			return err
		}
	}
	return nil
}

func download(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "Can't prepare request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("Can't download '%s'", url))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Bad status for '%s': %s", url, resp.Status)
	}
	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("Can't create '%s'", tmp))
	}
	if _, err = io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return errors.Wrap(err, fmt.Sprintf("Can't save '%s'", url))
	}
	if err = out.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, fmt.Sprintf("Can't close '%s'", tmp))
	}
	return os.Rename(tmp, dest)
}

// Load Reads train and test parts of the dataset stored in dir
func Load(dir string) (*Split, error) {
	train, err := LoadSet(filepath.Join(dir, TrainImagesFile), filepath.Join(dir, TrainLabelsFile))
	if err != nil {
		return nil, errors.Wrap(err, "Can't load train set")
	}
	test, err := LoadSet(filepath.Join(dir, TestImagesFile), filepath.Join(dir, TestLabelsFile))
	if err != nil {
		return nil, errors.Wrap(err, "Can't load test set")
	}
	return &Split{Train: train, Test: test}, nil
}
