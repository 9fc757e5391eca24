package build

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/match"
	"github.com/turbokube/fatmacho/pkg/annotate"
	"github.com/turbokube/fatmacho/pkg/fat"
	"github.com/turbokube/fatmacho/pkg/inputs"
	"github.com/turbokube/fatmacho/pkg/multiarch"
	"github.com/turbokube/fatmacho/pkg/pushed"
	"github.com/turbokube/fatmacho/pkg/registry"
	"github.com/turbokube/fatmacho/pkg/schema"
	schemav1 "github.com/turbokube/fatmacho/pkg/schema/v1"
	"go.uber.org/zap"
)

// Run is what you call if you have a complete config and want a fat binary
// - Depends on a zap.ReplaceGlobals logger
// - Reads inputs from schema.Fs and writes config.Output to fat.Fs
// - Exports to an OCI layout and/or pushes to config.OCI.Tag if configured
func Run(config schemav1.FatConfig) (*pushed.BuildOutput, error) {
	return RunWithRegistry(config, nil)
}

// RunWithRegistry is Run with registry options that override those derived from config
func RunWithRegistry(config schemav1.FatConfig, registryConfig *registry.RegistryConfig) (*pushed.BuildOutput, error) {
	if config.Output == "" && !config.OCI.Enabled() {
		return nil, errors.New("config has neither output nor oci export")
	}
	platforms, err := multiarch.NewPlatformsMatcher(config.Platforms)
	if err != nil {
		return nil, err
	}
	if registryConfig == nil {
		registryConfig, err = registry.New(registryRefs(config)...)
		if err != nil {
			return nil, err
		}
	}

	sources, err := RunInputs(config, platforms, registryConfig)
	if err != nil {
		return nil, err
	}
	w, err := RunWriter(sources, config.Remove)
	if err != nil {
		return nil, err
	}

	output := &pushed.BuildOutput{
		Fat: pushed.NewFatOutput(config.Output, w.Layout()),
	}
	if config.Output != "" {
		if err := w.WriteToFile(config.Output); err != nil {
			return nil, fmt.Errorf("write %s: %w", config.Output, err)
		}
	}
	if config.OCI.Enabled() {
		if err := RunExport(config, w, platforms, registryConfig, output); err != nil {
			return nil, err
		}
	}
	return output, nil
}

// Plan reads inputs and computes the fat layout like Run does, but writes nothing
func Plan(config schemav1.FatConfig) (*pushed.BuildOutput, error) {
	platforms, err := multiarch.NewPlatformsMatcher(config.Platforms)
	if err != nil {
		return nil, err
	}
	registryConfig, err := registry.New(registryRefs(config)...)
	if err != nil {
		return nil, err
	}
	sources, err := RunInputs(config, platforms, registryConfig)
	if err != nil {
		return nil, err
	}
	w, err := RunWriter(sources, config.Remove)
	if err != nil {
		return nil, err
	}
	return &pushed.BuildOutput{
		Fat: pushed.NewFatOutput(config.Output, w.Layout()),
	}, nil
}

func registryRefs(config schemav1.FatConfig) []string {
	refs := []string{config.OCI.Tag}
	for _, in := range config.Inputs {
		refs = append(refs, in.OCIImage.Ref)
	}
	return refs
}

// RunInputs is the file system and registry read part of a run
func RunInputs(config schemav1.FatConfig, platforms match.Matcher, registryConfig *registry.RegistryConfig) ([]inputs.Source, error) {
	if len(config.Inputs) == 0 {
		return nil, errors.New("config has no inputs")
	}

	loaders := make([]inputs.Loader, len(config.Inputs))
	for i, inputCfg := range config.Inputs {
		l, err := inputs.NewLoader(inputCfg, platforms, registryConfig)
		if err != nil {
			zap.L().Error("Failed to get input loader",
				zap.Int("item", i),
				zap.Any("config", inputCfg),
				zap.Error(err),
			)
			return nil, err
		}
		loaders[i] = l
	}

	var sources []inputs.Source
	for i, loader := range loaders {
		s, err := loader()
		if err != nil {
			zap.L().Error("input loader invocation failed", zap.Int("item", i), zap.Error(err))
			return nil, err
		}
		sources = append(sources, s...)
	}

	return sources, nil
}

// RunWriter adds all sources and then removes arches by name
func RunWriter(sources []inputs.Source, remove []string) (*fat.Writer, error) {
	w := fat.NewWriter()
	for _, s := range sources {
		if err := w.Add(s.Data); err != nil {
			zap.L().Error("add", zap.String("source", s.Name), zap.Error(err))
			return nil, fmt.Errorf("%s: %w", s.Name, err)
		}
	}
	for _, arch := range remove {
		if _, ok := w.Remove(arch); !ok {
			return nil, fmt.Errorf("remove %s: no such arch in inputs", arch)
		}
		zap.L().Debug("removed", zap.String("arch", arch))
	}
	if w.Len() == 0 {
		return nil, errors.New("no arches left to write")
	}
	return w, nil
}

// RunExport is the OCI part of a run
func RunExport(config schemav1.FatConfig, w *fat.Writer, platforms match.Matcher, registryConfig *registry.RegistryConfig, output *pushed.BuildOutput) error {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return err
	}
	r, err := fat.NewReader(buf.Bytes())
	if err != nil {
		return err
	}

	binaryPath := config.OCI.BinaryPath
	if binaryPath == "" {
		binaryPath = schema.DefaultBinaryPath
	}
	index, err := multiarch.Export{
		BinaryPath: binaryPath,
		Platforms:  platforms,
		Annotate:   annotate.NewIndex(config.OCI.Tag, config.Output),
		Env:        config.OCI.Env,
	}.NewIndex(r)
	if err != nil {
		return err
	}

	if config.OCI.Layout != "" {
		if err := multiarch.WriteLayout(config.OCI.Layout, index); err != nil {
			return err
		}
		digest, err := index.Digest()
		if err != nil {
			return err
		}
		output.Layout = &pushed.LayoutOutput{
			Path:   config.OCI.Layout,
			Digest: digest.String(),
		}
	}

	if config.OCI.Tag != "" {
		tag, err := name.ParseReference(config.OCI.Tag, registryConfig.CraneOptions.Name...)
		if err != nil {
			zap.L().Error("Failed to parse result image ref", zap.String("ref", config.OCI.Tag), zap.Error(err))
			return err
		}
		result, err := multiarch.PushIndex(tag, index, registryConfig)
		if err != nil {
			return err
		}
		artifact, err := pushed.NewPushedIndex(config.OCI.Tag, result.Digest, index)
		if err != nil {
			return err
		}
		if err := output.WithArtifact(artifact); err != nil {
			return err
		}
	}
	return nil
}
