// Package object classifies raw bytes as a fat container, a thin Mach-O
// image, a static library archive or something else, and extracts the
// architecture of thin inputs.
package object

import (
	"bytes"
	"debug/macho"
	"encoding/binary"

	"github.com/turbokube/fatmacho/pkg/cputype"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindFat
	KindMachO
	KindArchive
)

func (k Kind) String() string {
	switch k {
	case KindFat:
		return "fat"
	case KindMachO:
		return "mach-o"
	case KindArchive:
		return "archive"
	}
	return "unknown"
}

const (
	MagicFat   uint32 = 0xcafebabe
	MagicFat64 uint32 = MagicFat + 1
)

var archiveMagic = []byte("!<arch>\n")

// Object is what the builder needs to know about an input.
type Object struct {
	Kind Kind
	// Arch is valid when IsThin returns true
	Arch cputype.Arch
	// Type is the Mach-O file type, of the first Mach-O member for archives
	Type macho.Type
	// Members is the number of archive members, zero for other kinds
	Members int
	thin    bool
}

// IsThin reports whether the object is a single-architecture image,
// either a Mach-O file or an archive of Mach-O objects.
func (o *Object) IsThin() bool {
	return o.thin
}

// Sniff looks at the leading magic only.
func Sniff(b []byte) Kind {
	if bytes.HasPrefix(b, archiveMagic) {
		return KindArchive
	}
	if len(b) < 4 {
		return KindUnknown
	}
	be := binary.BigEndian.Uint32(b)
	switch be {
	case MagicFat, MagicFat64:
		return KindFat
	case macho.Magic32, macho.Magic64:
		return KindMachO
	}
	switch binary.LittleEndian.Uint32(b) {
	case macho.Magic32, macho.Magic64:
		return KindMachO
	}
	return KindUnknown
}

// Parse classifies b. Errors from debug/macho are returned as is.
// A fat container is only recognized here, see the fat package for parsing.
func Parse(b []byte) (*Object, error) {
	kind := Sniff(b)
	switch kind {
	case KindMachO:
		f, err := macho.NewFile(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		return &Object{
			Kind: KindMachO,
			Arch: cputype.Arch{CPU: cputype.Type(f.Cpu), SubCPU: cputype.SubType(f.SubCpu)},
			Type: f.Type,
			thin: true,
		}, nil
	case KindArchive:
		return parseArchive(b)
	}
	return &Object{Kind: kind}, nil
}
