package multiarch

import (
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/turbokube/fatmacho/pkg/cputype"
)

// OS is the platform os of every exported slice
const OS = "darwin"

var platforms = []struct {
	name     string
	platform v1.Platform
}{
	{"x86_64", v1.Platform{OS: OS, Architecture: "amd64"}},
	{"x86_64h", v1.Platform{OS: OS, Architecture: "amd64", Variant: "h"}},
	{"i386", v1.Platform{OS: OS, Architecture: "386"}},
	{"arm64", v1.Platform{OS: OS, Architecture: "arm64"}},
	{"arm64e", v1.Platform{OS: OS, Architecture: "arm64", Variant: "e"}},
	{"armv6", v1.Platform{OS: OS, Architecture: "arm", Variant: "v6"}},
	{"armv7", v1.Platform{OS: OS, Architecture: "arm", Variant: "v7"}},
	{"armv7s", v1.Platform{OS: OS, Architecture: "arm", Variant: "v7s"}},
	{"armv7k", v1.Platform{OS: OS, Architecture: "arm", Variant: "v7k"}},
	{"ppc", v1.Platform{OS: OS, Architecture: "ppc"}},
	{"ppc64", v1.Platform{OS: OS, Architecture: "ppc64"}},
}

// PlatformOf maps a slice arch to an OCI platform.
// Arches without a GOARCH counterpart have none.
func PlatformOf(a cputype.Arch) (v1.Platform, bool) {
	name, ok := a.Name()
	if !ok {
		return v1.Platform{}, false
	}
	for _, p := range platforms {
		if p.name == name {
			return p.platform, true
		}
	}
	return v1.Platform{}, false
}

// ArchOf is the inverse of PlatformOf, requiring os darwin
func ArchOf(p v1.Platform) (cputype.Arch, bool) {
	if p.OS != OS {
		return cputype.Arch{}, false
	}
	for _, m := range platforms {
		if m.platform.Architecture == p.Architecture && m.platform.Variant == p.Variant {
			return cputype.Lookup(m.name)
		}
	}
	return cputype.Arch{}, false
}
