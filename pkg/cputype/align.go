package cputype

const (
	alignEmbedded    = 0x4000
	alignDesktop     = 0x1000
	alignWorkstation = 0x2000
)

// Alignment returns the power of two that a slice of this arch should start
// on inside a fat container. It depends on the CPU family only.
// Zero means no requirement beyond the natural 4 byte granularity.
func Alignment(a Arch) uint64 {
	switch a.CPU {
	case ARM, ARM64, ARM64_32:
		return alignEmbedded
	case X86_64, I386, PowerPC, PowerPC64:
		return alignDesktop
	case MC680x0, MC88000, SPARC, I860, HPPA:
		return alignWorkstation
	}
	return 0
}
