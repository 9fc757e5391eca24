package multiarch_test

import (
	"testing"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	. "github.com/onsi/gomega"
	"github.com/turbokube/fatmacho/pkg/multiarch"
)

func TestNewPlatformsMatcher(t *testing.T) {
	RegisterTestingT(t)
	m, err := multiarch.NewPlatformsMatcher([]string{"darwin/amd64", "darwin/arm64/e"})
	Expect(err).NotTo(HaveOccurred())

	for _, c := range []struct {
		platform v1.Platform
		match    bool
	}{
		{v1.Platform{OS: "darwin", Architecture: "amd64"}, true},
		{v1.Platform{OS: "darwin", Architecture: "amd64", Variant: "h"}, false},
		{v1.Platform{OS: "darwin", Architecture: "arm64", Variant: "e"}, true},
		// plain arm64 is a different slice than arm64e
		{v1.Platform{OS: "darwin", Architecture: "arm64"}, false},
		{v1.Platform{OS: "linux", Architecture: "amd64"}, false},
	} {
		Expect(m(v1.Descriptor{Platform: &c.platform})).To(Equal(c.match), c.platform.String())
	}

	all, err := multiarch.NewPlatformsMatcher(nil)
	Expect(err).NotTo(HaveOccurred())
	Expect(all(v1.Descriptor{})).To(BeTrue())

	_, err = multiarch.NewPlatformsMatcher([]string{"darwin/arm64/e/x"})
	Expect(err).To(HaveOccurred())
}

func TestPlatformsMatcherArchNames(t *testing.T) {
	RegisterTestingT(t)
	m, err := multiarch.NewPlatformsMatcher([]string{"arm64e", "armv7k", "linux/amd64"})
	Expect(err).NotTo(HaveOccurred())
	Expect(m(v1.Descriptor{
		Platform: &v1.Platform{OS: "darwin", Architecture: "arm64", Variant: "e"},
	})).To(BeTrue())
	Expect(m(v1.Descriptor{
		Platform: &v1.Platform{OS: "darwin", Architecture: "arm", Variant: "v7k"},
	})).To(BeTrue())
	Expect(m(v1.Descriptor{
		Platform: &v1.Platform{OS: "darwin", Architecture: "amd64"},
	})).To(BeFalse())

	_, err = multiarch.NewPlatformsMatcher([]string{"z80"})
	Expect(err).To(MatchError(ContainSubstring("neither os/arch nor a known arch name")))
	_, err = multiarch.NewPlatformsMatcher([]string{"m68k"})
	Expect(err).To(MatchError("arch m68k has no OCI platform"))
}
