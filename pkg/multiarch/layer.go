package multiarch

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
	"github.com/google/go-containerregistry/pkg/v1/types"
)

const (
	binaryMode = int64(0755)
	dirMode    = int64(0755)
)

// BinaryLayer creates a reproducible layer with a single executable at binaryPath
// and its parent directories.
func BinaryLayer(binaryPath string, binary []byte) (v1.Layer, error) {
	name, err := layerPath(binaryPath)
	if err != nil {
		return nil, err
	}

	b := &bytes.Buffer{}
	w := tar.NewWriter(b)

	dirs := []string{}
	for d := path.Dir(name); d != "."; d = path.Dir(d) {
		dirs = append([]string{d + "/"}, dirs...)
	}
	for _, d := range dirs {
		if err := w.WriteHeader(&tar.Header{
			Name:     d,
			Mode:     dirMode,
			Typeflag: tar.TypeDir,
		}); err != nil {
			return nil, err
		}
	}

	if err := w.WriteHeader(&tar.Header{
		Name:     name,
		Size:     int64(len(binary)),
		Mode:     binaryMode,
		Typeflag: tar.TypeReg,
	}); err != nil {
		return nil, err
	}
	if _, err := w.Write(binary); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	// Return a new copy of the buffer each time it's opened.
	return tarball.LayerFromOpener(func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewBuffer(b.Bytes())), nil
	}, tarball.WithMediaType(types.OCILayer))
}

// layerPath turns an absolute image path into a tar entry name
func layerPath(binaryPath string) (string, error) {
	if !strings.HasPrefix(binaryPath, "/") {
		return "", fmt.Errorf("binaryPath must have leading slash, got: %s", binaryPath)
	}
	name := path.Clean(binaryPath)[1:]
	if name == "" {
		return "", fmt.Errorf("binaryPath must name a file, got: %s", binaryPath)
	}
	return name, nil
}
