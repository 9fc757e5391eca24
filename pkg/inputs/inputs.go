package inputs

import (
	"errors"
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/match"
	"github.com/moby/patternmatcher"
	"github.com/turbokube/fatmacho/pkg/localdir"
	"github.com/turbokube/fatmacho/pkg/multiarch"
	"github.com/turbokube/fatmacho/pkg/object"
	"github.com/turbokube/fatmacho/pkg/registry"
	"github.com/turbokube/fatmacho/pkg/schema"
	v1 "github.com/turbokube/fatmacho/pkg/schema/v1"
	"go.uber.org/zap"
)

// Source is one candidate for the fat writer, thin or fat
type Source struct {
	// Name says where the bytes came from, for logs and errors
	Name string
	Data []byte
}

type Loader func() ([]Source, error)

// NewLoader validates an input item. Nothing is read until the loader is called.
func NewLoader(cfg v1.Input, platforms match.Matcher, config *registry.RegistryConfig) (Loader, error) {
	set := 0
	for _, s := range []string{cfg.Path, cfg.Dir.Path, cfg.OCILayout.Path, cfg.OCIImage.Ref} {
		if s != "" {
			set++
		}
	}
	if set == 0 {
		return nil, errors.New("no input config found")
	}
	if set > 1 {
		return nil, fmt.Errorf("each input item must have exactly one type, got %d", set)
	}
	switch {
	case cfg.Path != "":
		return file(cfg.Path), nil
	case cfg.Dir.Path != "":
		return dir(cfg.Dir)
	case cfg.OCILayout.Path != "":
		return ociLayout(cfg.OCILayout, platforms), nil
	default:
		return ociImage(cfg.OCIImage, platforms, config)
	}
}

func file(path string) Loader {
	return func() ([]Source, error) {
		f, err := localdir.SingleFile(schema.Fs, path, 0)
		if err != nil {
			return nil, err
		}
		return []Source{{Name: path, Data: f.Data}}, nil
	}
}

func dir(cfg v1.LocalDir) (Loader, error) {
	d := localdir.Dir{
		Fs:   schema.Fs,
		Path: cfg.Path,
	}
	if len(cfg.Ignore) > 0 {
		var err error
		d.Ignore, err = patternmatcher.New(cfg.Ignore)
		if err != nil {
			return nil, fmt.Errorf("patternmatcher from: %v", cfg.Ignore)
		}
	}
	if cfg.MaxFiles > 0 {
		d.MaxFiles = cfg.MaxFiles
	}
	if cfg.MaxSize != "" {
		s, err := localdir.NewSize(cfg.MaxSize)
		if err != nil {
			return nil, err
		}
		d.MaxSize = s
	}
	return func() ([]Source, error) {
		files, err := localdir.FromFilesystem(d)
		if err != nil {
			return nil, err
		}
		sources := make([]Source, len(files))
		for i, f := range files {
			sources[i] = Source{Name: cfg.Path + "/" + f.Path, Data: f.Data}
		}
		return sources, nil
	}, nil
}

func binaryPath(configured string) string {
	if configured == "" {
		return schema.DefaultBinaryPath
	}
	return configured
}

func ociLayout(cfg v1.OCILayout, platforms match.Matcher) Loader {
	return func() ([]Source, error) {
		binaries, err := multiarch.FromLayout(cfg.Path, binaryPath(cfg.BinaryPath), platforms)
		if err != nil {
			return nil, err
		}
		return fromBinaries(cfg.Path, binaries)
	}
}

func ociImage(cfg v1.OCIImage, platforms match.Matcher, config *registry.RegistryConfig) (Loader, error) {
	ref, err := name.ParseReference(cfg.Ref)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("registry config required for ociImage input")
	}
	return func() ([]Source, error) {
		binaries, err := multiarch.FromRemote(ref, binaryPath(cfg.BinaryPath), platforms, config)
		if err != nil {
			return nil, err
		}
		return fromBinaries(cfg.Ref, binaries)
	}, nil
}

// fromBinaries requires each binary to be a thin image of its platform's arch
func fromBinaries(from string, binaries []multiarch.Binary) ([]Source, error) {
	sources := make([]Source, len(binaries))
	for i, b := range binaries {
		src := fmt.Sprintf("%s[%s]", from, b.Platform.String())
		obj, err := object.Parse(b.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src, err)
		}
		if !obj.IsThin() || !obj.Arch.Matches(b.Arch) {
			zap.L().Error("platform mismatch",
				zap.String("source", src),
				zap.Stringer("kind", obj.Kind),
				zap.Stringer("arch", obj.Arch),
			)
			return nil, fmt.Errorf("%s: expected a thin %s image, got %s %s", src, b.Arch, obj.Kind, obj.Arch)
		}
		sources[i] = Source{Name: src, Data: b.Data}
	}
	return sources, nil
}
