package multiarch

import (
	"fmt"
	"time"

	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/layout"
	"github.com/google/go-containerregistry/pkg/v1/match"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/types"
	"github.com/turbokube/fatmacho/pkg/annotate"
	"github.com/turbokube/fatmacho/pkg/fat"
	"github.com/turbokube/fatmacho/pkg/registry"
	"go.uber.org/zap"
)

const (
	progressReportMinInterval = time.Second
)

// Export configures how a fat binary becomes an image index
type Export struct {
	// BinaryPath is where each image has its slice
	BinaryPath string
	// Platforms selects slices, nil for all
	Platforms match.Matcher
	// Annotate is applied to the index, optional
	Annotate annotate.Annotator
	// Env entries are KEY=VALUE, see mergeEnv
	Env []string
}

// NewIndex builds one image per slice that has an OCI platform.
// Slices of other arches are skipped, and it's an error if no slice remains.
func (e Export) NewIndex(r *fat.Reader) (v1.ImageIndex, error) {
	var adds []mutate.IndexAddendum
	var arches []string
	for _, s := range r.Slices() {
		arches = append(arches, s.Arch.NameOrUnknown())
		platform, ok := PlatformOf(s.Arch)
		if !ok {
			zap.L().Warn("skipping slice without OCI platform", zap.Stringer("arch", s.Arch))
			continue
		}
		if e.Platforms != nil && !e.Platforms(v1.Descriptor{Platform: &platform}) {
			zap.L().Debug("skipping unmatched platform", zap.String("platform", platform.String()))
			continue
		}
		img, err := e.sliceImage(s, r.Bytes(s), platform)
		if err != nil {
			zap.L().Error("slice image", zap.Stringer("arch", s.Arch), zap.Error(err))
			return nil, err
		}
		adds = append(adds, mutate.IndexAddendum{
			Add: img,
			Descriptor: v1.Descriptor{
				Platform:    &platform,
				Annotations: map[string]string{annotate.AnnotationArch: s.Arch.NameOrUnknown()},
			},
		})
	}
	if len(adds) == 0 {
		return nil, fmt.Errorf("no slice to export, got arches %v", arches)
	}
	index := mutate.AppendManifests(empty.Index, adds...)
	if e.Annotate != nil {
		index = e.Annotate(index).(v1.ImageIndex)
	}
	return index, nil
}

// sliceImage is an empty OCI base with the slice as its only layer
func (e Export) sliceImage(s fat.Slice, data []byte, platform v1.Platform) (v1.Image, error) {
	binaryPath := e.BinaryPath
	base := empty.Image
	base = mutate.MediaType(base, types.OCIManifestSchema1)
	base = mutate.ConfigMediaType(base, types.OCIConfigJSON)

	layer, err := BinaryLayer(binaryPath, data)
	if err != nil {
		return nil, err
	}
	img, err := mutate.AppendLayers(base, layer)
	if err != nil {
		return nil, err
	}
	cf, err := img.ConfigFile()
	if err != nil {
		return nil, err
	}
	cf = cf.DeepCopy()
	cf.OS = platform.OS
	cf.Architecture = platform.Architecture
	cf.Variant = platform.Variant
	cf.Config.Entrypoint = []string{binaryPath}
	if cf.Config.Env, err = mergeEnv(cf.Config.Env, e.Env); err != nil {
		return nil, err
	}
	img, err = mutate.ConfigFile(img, cf)
	if err != nil {
		return nil, err
	}
	return annotate.NewSlice(s, binaryPath)(img).(v1.Image), nil
}

// WriteLayout writes or replaces the index of an OCI image layout directory
func WriteLayout(path string, index v1.ImageIndex) error {
	if _, err := layout.Write(path, index); err != nil {
		zap.L().Error("write layout", zap.String("path", path), zap.Error(err))
		return err
	}
	digest, err := index.Digest()
	if err != nil {
		return err
	}
	zap.L().Info("wrote layout", zap.String("path", path), zap.String("digest", digest.String()))
	return nil
}

// PushIndex pushes every image by digest, then the index to tag
func PushIndex(tag name.Reference, index v1.ImageIndex, config *registry.RegistryConfig) (Pushed, error) {
	manifest, err := index.IndexManifest()
	if err != nil {
		return Pushed{}, err
	}
	for _, d := range manifest.Manifests {
		img, err := index.Image(d.Digest)
		if err != nil {
			zap.L().Error("index child", zap.String("digest", d.Digest.String()), zap.Error(err))
			return Pushed{}, err
		}
		child := tag.Context().Digest(d.Digest.String())
		if err := push(child, img, config); err != nil {
			zap.L().Error("child push", zap.String("platform", d.Platform.String()), zap.Error(err))
			return Pushed{}, err
		}
	}

	published, err := newPublishedIndex(index)
	if err != nil {
		zap.L().Error("index manifest", zap.Error(err))
		return Pushed{}, err
	}
	if err := remote.Put(tag, published, config.CraneOptions.Remote...); err != nil {
		zap.L().Error("put", zap.Error(err))
		return Pushed{}, err
	}
	zap.L().Info("index",
		zap.String("tag", tag.String()),
		zap.String("digest", published.desc.Digest.String()),
		zap.Int("manifests", len(manifest.Manifests)),
	)
	return Pushed{
		Tag:       tag,
		Digest:    published.desc.Digest,
		MediaType: published.desc.MediaType,
		Manifests: len(manifest.Manifests),
	}, nil
}

func push(ref name.Reference, image v1.Image, config *registry.RegistryConfig) error {
	progressChan := make(chan v1.Update, 200)
	errChan := make(chan error, 2)

	go func() {
		options := append(config.CraneOptions.Remote, remote.WithProgress(progressChan))
		errChan <- remote.Write(
			ref,
			image,
			options...,
		)
	}()

	logger := zap.L()
	nextProgress := time.Now().Add(progressReportMinInterval)

	for update := range progressChan {
		if update.Error != nil {
			logger.Error("push update", zap.Error(update.Error))
			errChan <- update.Error
			break
		}

		if update.Complete == update.Total {
			logger.Debug("pushed", zap.String("ref", ref.String()), zap.Int64("total", update.Total))
		} else if time.Now().After(nextProgress) {
			nextProgress = time.Now().Add(progressReportMinInterval)
			logger.Info("push", zap.Int64("completed", update.Complete), zap.Int64("total", update.Total))
		}
	}

	return <-errChan
}
