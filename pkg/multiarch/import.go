package multiarch

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/layout"
	"github.com/google/go-containerregistry/pkg/v1/match"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/turbokube/fatmacho/pkg/cputype"
	"github.com/turbokube/fatmacho/pkg/registry"
	"go.uber.org/zap"
)

// Binary is a thin image read from one platform's image
type Binary struct {
	Platform v1.Platform
	Arch     cputype.Arch
	Data     []byte
}

// FromLayout reads binaries from the index of an OCI image layout directory
func FromLayout(dir string, binaryPath string, platforms match.Matcher) ([]Binary, error) {
	index, err := layout.ImageIndexFromPath(dir)
	if err != nil {
		return nil, fmt.Errorf("loading %s as OCI layout: %w", dir, err)
	}
	return FromIndex(index, binaryPath, platforms)
}

// FromRemote reads binaries from an index in a registry
func FromRemote(ref name.Reference, binaryPath string, platforms match.Matcher, config *registry.RegistryConfig) ([]Binary, error) {
	zap.L().Info("fetching", zap.String("ref", ref.String()))
	index, err := remote.Index(ref, config.CraneOptions.Remote...)
	if err != nil {
		return nil, err
	}
	return FromIndex(index, binaryPath, platforms)
}

// FromIndex takes binaryPath from every darwin image in the index.
// Manifests with other platforms, nested indexes and attestations are skipped.
func FromIndex(index v1.ImageIndex, binaryPath string, platforms match.Matcher) ([]Binary, error) {
	file, err := layerPath(binaryPath)
	if err != nil {
		return nil, err
	}
	manifest, err := index.IndexManifest()
	if err != nil {
		return nil, err
	}
	var binaries []Binary
	for i, d := range manifest.Manifests {
		if d.Platform == nil {
			zap.L().Debug("skipping manifest without platform", zap.Int("item", i))
			continue
		}
		if !d.MediaType.IsImage() {
			zap.L().Warn("skipping unsupported media type",
				zap.String("got", string(d.MediaType)),
				zap.String("platform", d.Platform.String()),
			)
			continue
		}
		arch, ok := ArchOf(*d.Platform)
		if !ok {
			zap.L().Debug("skipping platform", zap.String("platform", d.Platform.String()))
			continue
		}
		if platforms != nil && !platforms(d) {
			zap.L().Debug("skipping unmatched platform", zap.String("platform", d.Platform.String()))
			continue
		}
		img, err := index.Image(d.Digest)
		if err != nil {
			return nil, err
		}
		data, err := extractFile(img, file)
		if err != nil {
			zap.L().Error("extract", zap.String("platform", d.Platform.String()), zap.String("digest", d.Digest.String()), zap.Error(err))
			return nil, err
		}
		zap.L().Debug("imported",
			zap.String("platform", d.Platform.String()),
			zap.Stringer("arch", arch),
			zap.Int("size", len(data)),
		)
		binaries = append(binaries, Binary{
			Platform: *d.Platform,
			Arch:     arch,
			Data:     data,
		})
	}
	if len(binaries) == 0 {
		return nil, errors.New("found no darwin image in index")
	}
	return binaries, nil
}

// extractFile reads a regular file from the image's flattened filesystem
func extractFile(img v1.Image, file string) ([]byte, error) {
	rc := mutate.Extract(img)
	defer rc.Close()
	tr := tar.NewReader(rc)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if path.Clean("/"+h.Name)[1:] != file {
			continue
		}
		if h.Typeflag != tar.TypeReg {
			return nil, fmt.Errorf("not a regular file: /%s", file)
		}
		return io.ReadAll(tr)
	}
	return nil, fmt.Errorf("file not found in image: /%s", file)
}
