package dataset

import (
	"bytes"
	"compress/gzip"
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestReadImagesRoundTrip(t *testing.T) {
	im := &Images{Count: 2, Rows: 2, Cols: 3, Pixels: []uint8{0, 1, 2, 3, 4, 5, 250, 251, 252, 253, 254, 255}}
	buf := &bytes.Buffer{}
	if err := WriteImages(buf, im); err != nil {
		t.Fatalf("WriteImages: %v", err)
	}
	got, err := ReadImages(buf)
	if err != nil {
		t.Fatalf("ReadImages: %v", err)
	}
	if !reflect.DeepEqual(got, im) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, im)
	}
	if !reflect.DeepEqual(got.At(1), []uint8{250, 251, 252, 253, 254, 255}) {
		t.Fatalf("unexpected second image: %v", got.At(1))
	}
}

func TestReadImagesRejectsLabels(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteLabels(buf, make([]uint8, 16)); err != nil {
		t.Fatalf("WriteLabels: %v", err)
	}
	if _, err := ReadImages(buf); err == nil || !strings.Contains(err.Error(), "magic") {
		t.Fatalf("expected magic number error, got %v", err)
	}
}

func TestReadImagesTruncated(t *testing.T) {
	im := &Images{Count: 2, Rows: 2, Cols: 2, Pixels: []uint8{1, 2, 3, 4, 5, 6, 7, 8}}
	buf := &bytes.Buffer{}
	if err := WriteImages(buf, im); err != nil {
		t.Fatalf("WriteImages: %v", err)
	}
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-3])
	if _, err := ReadImages(truncated); err == nil {
		t.Fatal("expected error for truncated payload")
	}
}

func TestNormalization(t *testing.T) {
	unit := ToUnit([]uint8{0, 51, 255})
	if unit[0] != 0 || unit[2] != 1 || unit[1] != 0.2 {
		t.Fatalf("unexpected unit values: %v", unit)
	}
	ToSymmetric(unit)
	if unit[0] != -1 || unit[2] != 1 {
		t.Fatalf("unexpected symmetric values: %v", unit)
	}
	set := Synthetic(10, 8, 8, 1)
	for _, v := range set.Data {
		if v < -1 || v > 1 {
			t.Fatalf("value out of [-1;1]: %f", v)
		}
	}
}

func TestLoadGzippedSet(t *testing.T) {
	dir := t.TempDir()
	split := writeSplit(t, dir, 5, 3)
	if split.Train.Count != 5 || split.Test.Count != 3 {
		t.Fatalf("unexpected counts: train=%d test=%d", split.Train.Count, split.Test.Count)
	}
	if split.Train.Height != 4 || split.Train.Width != 4 {
		t.Fatalf("unexpected image shape %dx%d", split.Train.Height, split.Train.Width)
	}
	if len(split.Train.Labels) != 5 {
		t.Fatalf("expected 5 labels, got %d", len(split.Train.Labels))
	}
}

func TestSetHead(t *testing.T) {
	set := Synthetic(5, 4, 4, 2)
	head, err := set.Head(3)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	loader, err := NewLoader(set, LoaderOptions{BatchSize: 3})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if !head.Shape().Eq(loader.BatchShape()) {
		t.Fatalf("head must have batch shape %v, got %v", loader.BatchShape(), head.Shape())
	}
	if !reflect.DeepEqual(head.Data(), set.Data[:3*16]) {
		t.Fatal("head must hold first images in order")
	}
	head.Data().([]float64)[0] = 100
	if set.Data[0] == 100 {
		t.Fatal("head must be a copy")
	}
	if _, err = set.Head(6); err == nil {
		t.Fatal("expected error when asking for more images than set has")
	}
}

func TestLoadSetLabelMismatch(t *testing.T) {
	dir := t.TempDir()
	imagesPath := filepath.Join(dir, "images")
	labelsPath := filepath.Join(dir, "labels")
	writeFile(t, imagesPath, func(buf *bytes.Buffer) error {
		return WriteImages(buf, &Images{Count: 2, Rows: 1, Cols: 1, Pixels: []uint8{1, 2}})
	}, false)
	writeFile(t, labelsPath, func(buf *bytes.Buffer) error {
		return WriteLabels(buf, []uint8{1})
	}, false)
	if _, err := LoadSet(imagesPath, labelsPath); err == nil {
		t.Fatal("expected label count mismatch error")
	}
}

func TestLoaderBatches(t *testing.T) {
	set := Synthetic(70, 8, 8, 3)
	loader, err := NewLoader(set, LoaderOptions{BatchSize: 32, BufferSize: 16, Seed: 7})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if loader.NumBatches() != 2 {
		t.Fatalf("expected 2 batches, got %d", loader.NumBatches())
	}
	it := loader.Pass()
	count := 0
	for {
		batch, ok := it.Next()
		if !ok {
			break
		}
		count++
		if !batch.Shape().Eq(loader.BatchShape()) {
			t.Fatalf("unexpected batch shape %v", batch.Shape())
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 batches (tail dropped), got %d", count)
	}
}

func TestLoaderDeterministicPerSeed(t *testing.T) {
	set := Synthetic(64, 4, 4, 5)
	first := collectPasses(t, set, 11, 3)
	second := collectPasses(t, set, 11, 3)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same seed must produce same passes")
	}
	if reflect.DeepEqual(first[0], first[1]) {
		t.Fatal("every pass must be reshuffled")
	}
}

func TestShuffleOrderIsPermutation(t *testing.T) {
	for _, buffer := range []int{0, 1, 5, 100, 1000} {
		order := ShuffleOrder(rand.New(rand.NewSource(1)), 100, buffer)
		sorted := append([]int(nil), order...)
		sort.Ints(sorted)
		for i := range sorted {
			if sorted[i] != i {
				t.Fatalf("buffer=%d: order is not a permutation: %v", buffer, order)
			}
		}
	}
	// Buffer of one element keeps input order
	order := ShuffleOrder(rand.New(rand.NewSource(1)), 5, 1)
	if !reflect.DeepEqual(order, []int{0, 1, 2, 3, 4}) {
		t.Fatalf("buffer of size 1 must keep order, got %v", order)
	}
}

func TestFetchDownloadsMissingFiles(t *testing.T) {
	requested := make(map[string]int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested[r.URL.Path]++
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, TrainImagesFile), []byte("cached"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Fetch(context.Background(), srv.Client(), srv.URL, dir); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if requested["/"+TrainImagesFile] != 0 {
		t.Fatal("existing file must not be downloaded again")
	}
	for _, name := range []string{TrainLabelsFile, TestImagesFile, TestLabelsFile} {
		if requested["/"+name] != 1 {
			t.Fatalf("expected one request for %s, got %d", name, requested["/"+name])
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil || string(data) != "payload" {
			t.Fatalf("unexpected content of %s: %q (%v)", name, data, err)
		}
	}
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()
	dir := t.TempDir()
	if err := Fetch(context.Background(), srv.Client(), srv.URL, dir); err == nil {
		t.Fatal("expected error on 404")
	}
	if _, err := os.Stat(filepath.Join(dir, TrainImagesFile)); !os.IsNotExist(err) {
		t.Fatal("failed download must not leave the file behind")
	}
}

func collectPasses(t *testing.T, set *Set, seed int64, passes int) [][]float64 {
	t.Helper()
	loader, err := NewLoader(set, LoaderOptions{BatchSize: 16, BufferSize: 10, Seed: seed})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	out := make([][]float64, 0, passes)
	for p := 0; p < passes; p++ {
		it := loader.Pass()
		var values []float64
		for {
			batch, ok := it.Next()
			if !ok {
				break
			}
			values = append(values, batch.Data().([]float64)...)
		}
		out = append(out, values)
	}
	return out
}

func writeSplit(t *testing.T, dir string, nTrain, nTest int) *Split {
	t.Helper()
	for _, part := range []struct {
		images, labels string
		n              int
	}{
		{TrainImagesFile, TrainLabelsFile, nTrain},
		{TestImagesFile, TestLabelsFile, nTest},
	} {
		n := part.n
		im := &Images{Count: n, Rows: 4, Cols: 4, Pixels: make([]uint8, n*16)}
		for i := range im.Pixels {
			im.Pixels[i] = uint8(i)
		}
		writeFile(t, filepath.Join(dir, part.images), func(buf *bytes.Buffer) error { return WriteImages(buf, im) }, true)
		writeFile(t, filepath.Join(dir, part.labels), func(buf *bytes.Buffer) error { return WriteLabels(buf, make([]uint8, n)) }, true)
	}
	split, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return split
}

func writeFile(t *testing.T, path string, fill func(*bytes.Buffer) error, compress bool) {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := fill(buf); err != nil {
		t.Fatalf("fill %s: %v", path, err)
	}
	payload := buf.Bytes()
	if compress {
		gzBuf := &bytes.Buffer{}
		zw := gzip.NewWriter(gzBuf)
		if _, err := zw.Write(payload); err != nil {
			t.Fatalf("gzip: %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("gzip close: %v", err)
		}
		payload = gzBuf.Bytes()
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
