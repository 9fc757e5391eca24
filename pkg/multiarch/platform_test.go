package multiarch_test

import (
	"testing"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	. "github.com/onsi/gomega"
	"github.com/turbokube/fatmacho/pkg/cputype"
	"github.com/turbokube/fatmacho/pkg/multiarch"
)

func TestPlatformOf(t *testing.T) {
	RegisterTestingT(t)

	for name, platform := range map[string]string{
		"x86_64":  "darwin/amd64",
		"x86_64h": "darwin/amd64/h",
		"i386":    "darwin/386",
		"arm64":   "darwin/arm64",
		"arm64e":  "darwin/arm64/e",
		"armv7":   "darwin/arm/v7",
		"armv7s":  "darwin/arm/v7s",
		"ppc64":   "darwin/ppc64",
	} {
		a, ok := cputype.Lookup(name)
		Expect(ok).To(BeTrue(), name)
		p, ok := multiarch.PlatformOf(a)
		Expect(ok).To(BeTrue(), name)
		Expect(p.String()).To(Equal(platform))
		back, ok := multiarch.ArchOf(p)
		Expect(ok).To(BeTrue(), platform)
		Expect(back).To(Equal(a), platform)
	}

	for _, name := range []string{"m68k", "sparc", "arm64_32", "armv7em"} {
		a, ok := cputype.Lookup(name)
		Expect(ok).To(BeTrue(), name)
		_, ok = multiarch.PlatformOf(a)
		Expect(ok).To(BeFalse(), name)
	}
	_, ok := multiarch.PlatformOf(cputype.Arch{CPU: 0x42})
	Expect(ok).To(BeFalse())

	_, ok = multiarch.ArchOf(v1.Platform{OS: "linux", Architecture: "amd64"})
	Expect(ok).To(BeFalse())
	_, ok = multiarch.ArchOf(v1.Platform{OS: "darwin", Architecture: "arm64", Variant: "v8"})
	Expect(ok).To(BeFalse())
}
