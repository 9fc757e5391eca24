package cputype

import "fmt"

type Type uint32

type SubType uint32

const (
	ArchABI64    Type = 0x01000000
	ArchABI64_32 Type = 0x02000000

	Any       Type = 0xffffffff
	VAX       Type = 1
	MC680x0   Type = 6
	X86       Type = 7
	I386      Type = X86
	X86_64    Type = X86 | ArchABI64
	MC98000   Type = 10
	HPPA      Type = 11
	ARM       Type = 12
	ARM64     Type = ARM | ArchABI64
	ARM64_32  Type = ARM | ArchABI64_32
	MC88000   Type = 13
	SPARC     Type = 14
	I860      Type = 15
	PowerPC   Type = 18
	PowerPC64 Type = PowerPC | ArchABI64
)

// SubTypeMask covers the capability bits, for example LIB64 on x86_64
// executables or the pointer authentication ABI version on arm64e.
const SubTypeMask SubType = 0xff000000

const (
	SubTypeMultiple     SubType = 0xffffffff
	SubTypeLittleEndian SubType = 0
	SubTypeBigEndian    SubType = 1

	SubTypeI386All SubType = 3

	SubTypeX86_64All SubType = 3
	SubTypeX86_64H   SubType = 8

	SubTypeARMAll    SubType = 0
	SubTypeARMV4T    SubType = 5
	SubTypeARMV6     SubType = 6
	SubTypeARMV5TEJ  SubType = 7
	SubTypeARMXScale SubType = 8
	SubTypeARMV7     SubType = 9
	SubTypeARMV7F    SubType = 10
	SubTypeARMV7S    SubType = 11
	SubTypeARMV7K    SubType = 12
	SubTypeARMV8     SubType = 13
	SubTypeARMV6M    SubType = 14
	SubTypeARMV7M    SubType = 15
	SubTypeARMV7EM   SubType = 16

	SubTypeARM64All SubType = 0
	SubTypeARM64V8  SubType = 1
	SubTypeARM64E   SubType = 2

	SubTypeARM64_32V8 SubType = 1

	SubTypePowerPCAll  SubType = 0
	SubTypePowerPC601  SubType = 1
	SubTypePowerPC603  SubType = 3
	SubTypePowerPC603e SubType = 4
	SubTypePowerPC604  SubType = 6
	SubTypePowerPC604e SubType = 7
	SubTypePowerPC750  SubType = 9
	SubTypePowerPC7400 SubType = 10
	SubTypePowerPC7450 SubType = 11
	SubTypePowerPC970  SubType = 100

	SubTypeMC680x0All SubType = 1
	SubTypeMC68040    SubType = 2
	SubTypeMC68030    SubType = 3
	SubTypeHPPAAll    SubType = 0
	SubTypeHPPA7100LC SubType = 1
	SubTypeSPARCAll   SubType = 0
	SubTypeMC88000All SubType = 0
	SubTypeI860All    SubType = 0
)

// Arch identifies a CPU architecture and variant, as found in a Mach-O header
// or in a fat container's architecture table.
type Arch struct {
	CPU    Type
	SubCPU SubType
}

// Equal is exact pair equality.
func (a Arch) Equal(b Arch) bool {
	return a.CPU == b.CPU && a.SubCPU == b.SubCPU
}

// Matches compares with the sub-type capability bits ignored.
func (a Arch) Matches(b Arch) bool {
	return a.CPU == b.CPU && a.SubCPU&^SubTypeMask == b.SubCPU&^SubTypeMask
}

// Is64 reports whether the CPU type has the 64-bit ABI flag.
func (a Arch) Is64() bool {
	return a.CPU&ArchABI64 != 0
}

func (a Arch) String() string {
	if n, ok := a.Name(); ok {
		return n
	}
	return fmt.Sprintf("cpu(0x%x,0x%x)", uint32(a.CPU), uint32(a.SubCPU))
}
