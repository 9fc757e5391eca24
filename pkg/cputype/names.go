package cputype

// Unknown is the name reported for an arch that has no entry in the table.
const Unknown = "unknown"

type archFlag struct {
	name string
	arch Arch
}

// archFlags is the name table used by lipo and friends.
// The first entry for a given pair is its canonical name.
var archFlags = []archFlag{
	{"any", Arch{Any, SubTypeMultiple}},
	{"little", Arch{Any, SubTypeLittleEndian}},
	{"big", Arch{Any, SubTypeBigEndian}},

	// 64-bit families
	{"ppc64", Arch{PowerPC64, SubTypePowerPCAll}},
	{"x86_64", Arch{X86_64, SubTypeX86_64All}},
	{"x86_64h", Arch{X86_64, SubTypeX86_64H}},
	{"arm64", Arch{ARM64, SubTypeARM64All}},
	// 64-bit implementations
	{"ppc970-64", Arch{PowerPC64, SubTypePowerPC970}},
	{"arm64_32", Arch{ARM64_32, SubTypeARM64_32V8}},
	{"arm64e", Arch{ARM64, SubTypeARM64E}},

	// 32-bit families
	{"ppc", Arch{PowerPC, SubTypePowerPCAll}},
	{"i386", Arch{I386, SubTypeI386All}},
	{"m68k", Arch{MC680x0, SubTypeMC680x0All}},
	{"hppa", Arch{HPPA, SubTypeHPPAAll}},
	{"sparc", Arch{SPARC, SubTypeSPARCAll}},
	{"m88k", Arch{MC88000, SubTypeMC88000All}},
	{"i860", Arch{I860, SubTypeI860All}},
	{"arm", Arch{ARM, SubTypeARMAll}},
	// 32-bit implementations
	{"ppc601", Arch{PowerPC, SubTypePowerPC601}},
	{"ppc603", Arch{PowerPC, SubTypePowerPC603}},
	{"ppc603e", Arch{PowerPC, SubTypePowerPC603e}},
	{"ppc604", Arch{PowerPC, SubTypePowerPC604}},
	{"ppc604e", Arch{PowerPC, SubTypePowerPC604e}},
	{"ppc750", Arch{PowerPC, SubTypePowerPC750}},
	{"ppc7400", Arch{PowerPC, SubTypePowerPC7400}},
	{"ppc7450", Arch{PowerPC, SubTypePowerPC7450}},
	{"ppc970", Arch{PowerPC, SubTypePowerPC970}},
	{"m68030", Arch{MC680x0, SubTypeMC68030}},
	{"m68040", Arch{MC680x0, SubTypeMC68040}},
	{"hppa7100LC", Arch{HPPA, SubTypeHPPA7100LC}},
	{"armv4t", Arch{ARM, SubTypeARMV4T}},
	{"armv5", Arch{ARM, SubTypeARMV5TEJ}},
	{"xscale", Arch{ARM, SubTypeARMXScale}},
	{"armv6", Arch{ARM, SubTypeARMV6}},
	{"armv6m", Arch{ARM, SubTypeARMV6M}},
	{"armv7", Arch{ARM, SubTypeARMV7}},
	{"armv7f", Arch{ARM, SubTypeARMV7F}},
	{"armv7s", Arch{ARM, SubTypeARMV7S}},
	{"armv7k", Arch{ARM, SubTypeARMV7K}},
	{"armv7m", Arch{ARM, SubTypeARMV7M}},
	{"armv7em", Arch{ARM, SubTypeARMV7EM}},
	{"armv8", Arch{ARM, SubTypeARMV8}},
}

var byName map[string]Arch

func init() {
	byName = make(map[string]Arch, len(archFlags))
	for _, f := range archFlags {
		if _, exists := byName[f.name]; !exists {
			byName[f.name] = f.arch
		}
	}
}

// Lookup resolves an arch name such as "x86_64" or "arm64e".
func Lookup(name string) (Arch, bool) {
	a, ok := byName[name]
	return a, ok
}

// Name returns the canonical name, ignoring sub-type capability bits.
func (a Arch) Name() (string, bool) {
	for _, f := range archFlags {
		if f.arch.Matches(a) {
			return f.name, true
		}
	}
	return "", false
}

// NameOrUnknown is Name with the "unknown" fallback used in error messages.
func (a Arch) NameOrUnknown() string {
	if n, ok := a.Name(); ok {
		return n
	}
	return Unknown
}

// Names lists every name in table order.
func Names() []string {
	names := make([]string, len(archFlags))
	for i, f := range archFlags {
		names[i] = f.name
	}
	return names
}
