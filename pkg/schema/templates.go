package schema

import (
	"os"
	"strings"

	v1 "github.com/turbokube/fatmacho/pkg/schema/v1"
	"go.uber.org/zap"
)

const (
	// DefaultConfig is looked up in the working dir when no config flag is given
	DefaultConfig = "fatmacho.yaml"
	// DefaultBinaryPath is where OCI export puts each slice
	DefaultBinaryPath = "/app"
)

// OutputFromEnv gets the output path for templated builds
func OutputFromEnv() string {
	output, exists := os.LookupEnv("FATMACHO_OUTPUT")
	if !exists {
		return ""
	}
	zap.L().Debug("FATMACHO_OUTPUT env found", zap.String("value", output))
	return output
}

// PlatformsFromEnv splits the PLATFORMS env, same format as docker buildx
func PlatformsFromEnv() []string {
	value, exists := os.LookupEnv("PLATFORMS")
	if !exists || value == "" {
		return nil
	}
	var platforms []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			platforms = append(platforms, p)
		}
	}
	zap.L().Debug("PLATFORMS env found", zap.Strings("platforms", platforms))
	return platforms
}

func IgnoreDefault() []string {
	return []string{
		"*.dSYM",
		"*.txt",
		DefaultConfig,
	}
}

// TemplateCreate is the config for inputs given as arguments.
// A directory argument becomes a dir input.
func TemplateCreate(output string, inputs []string) v1.FatConfig {
	if output == "" {
		output = OutputFromEnv()
	}
	config := v1.FatConfig{
		Status: v1.FatConfigStatus{
			Template: true,
		},
		Output:    output,
		Platforms: PlatformsFromEnv(),
	}
	for _, path := range inputs {
		if info, err := Fs.Stat(path); err == nil && info.IsDir() {
			config.Inputs = append(config.Inputs, v1.Input{
				Dir: v1.LocalDir{
					Path:     path,
					Ignore:   IgnoreDefault(),
					MaxFiles: 16,
					MaxSize:  "1073741824", // "1Gi"
				},
			})
			continue
		}
		config.Inputs = append(config.Inputs, v1.Input{Path: path})
	}
	return config
}
