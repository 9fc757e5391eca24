package multiarch

import (
	"fmt"
	"strings"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/match"
	"github.com/turbokube/fatmacho/pkg/cputype"
	"go.uber.org/zap"
)

// NewPlatformsMatcher matches descriptors with any of the given platforms, or everything if none are given.
// Entries are OCI platforms such as darwin/arm64/e, or Mach-O arch names such as arm64e.
func NewPlatformsMatcher(config []string) (match.Matcher, error) {
	if len(config) == 0 {
		return func(desc v1.Descriptor) bool {
			return true
		}, nil
	}
	platforms := make([]v1.Platform, len(config))
	for i, c := range config {
		p, err := parsePlatform(c)
		if err != nil {
			zap.L().Error("platform", zap.Int("i", i), zap.String("config", c), zap.Error(err))
			return nil, err
		}
		if p.OS != OS {
			zap.L().Warn("platform matches no slice", zap.String("config", c))
		}
		platforms[i] = p
	}
	return match.Platforms(platforms...), nil
}

func parsePlatform(s string) (v1.Platform, error) {
	if strings.Contains(s, "/") {
		p, err := v1.ParsePlatform(s)
		if err != nil {
			return v1.Platform{}, err
		}
		return *p, nil
	}
	a, ok := cputype.Lookup(s)
	if !ok {
		return v1.Platform{}, fmt.Errorf("platform %s is neither os/arch nor a known arch name", s)
	}
	p, ok := PlatformOf(a)
	if !ok {
		return v1.Platform{}, fmt.Errorf("arch %s has no OCI platform", s)
	}
	return p, nil
}
