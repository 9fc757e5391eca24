package fat

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/turbokube/fatmacho/pkg/cputype"
	"github.com/turbokube/fatmacho/pkg/object"
)

const (
	MagicFat   = object.MagicFat
	MagicFat64 = object.MagicFat64

	fatHeaderSize = 8
	fatArchSize   = 20
	fatArch64Size = 32

	// naturalAlign is the word granularity of the header
	naturalAlign = 4
	// fallbackAlignBits is written for arches without an alignment class
	fallbackAlignBits = 2
	maxAlignBits      = 63
)

// Slice describes one architecture in a fat container.
type Slice struct {
	Arch   cputype.Arch
	Offset uint64
	Size   uint64
	// Align is the base 2 exponent of the slice alignment
	Align uint32
}

// AlignBytes returns 1<<Align.
func (s Slice) AlignBytes() uint64 {
	return 1 << s.Align
}

func headerSize(fat64 bool, count int) uint64 {
	if fat64 {
		return fatHeaderSize + uint64(count)*fatArch64Size
	}
	return fatHeaderSize + uint64(count)*fatArchSize
}

// alignBits is log2 of a power of two alignment, with the fallback for zero.
func alignBits(align uint64) uint32 {
	if align == 0 {
		return fallbackAlignBits
	}
	return uint32(bits.TrailingZeros64(align))
}

// encodeHeader returns the big endian header regardless of the slices' own byte order.
func encodeHeader(fat64 bool, slices []Slice) []byte {
	b := make([]byte, 0, headerSize(fat64, len(slices)))
	be := binary.BigEndian
	if fat64 {
		b = be.AppendUint32(b, MagicFat64)
	} else {
		b = be.AppendUint32(b, MagicFat)
	}
	b = be.AppendUint32(b, uint32(len(slices)))
	for _, s := range slices {
		b = be.AppendUint32(b, uint32(s.Arch.CPU))
		b = be.AppendUint32(b, uint32(s.Arch.SubCPU))
		if fat64 {
			b = be.AppendUint64(b, s.Offset)
			b = be.AppendUint64(b, s.Size)
		} else {
			b = be.AppendUint32(b, uint32(s.Offset))
			b = be.AppendUint32(b, uint32(s.Size))
		}
		b = be.AppendUint32(b, s.Align)
		if fat64 {
			// reserved
			b = be.AppendUint32(b, 0)
		}
	}
	return b
}

// decodeHeader validates the architecture table against a buffer of the given length.
func decodeHeader(b []byte) (fat64 bool, slices []Slice, err error) {
	if len(b) < fatHeaderSize {
		return false, nil, fmt.Errorf("%w: %d bytes is too short", ErrNotFat, len(b))
	}
	be := binary.BigEndian
	switch magic := be.Uint32(b); magic {
	case MagicFat:
	case MagicFat64:
		fat64 = true
	default:
		return false, nil, fmt.Errorf("%w: magic 0x%08x", ErrNotFat, magic)
	}
	count := be.Uint32(b[4:])
	if count == 0 {
		return false, nil, fmt.Errorf("%w: no architectures", ErrNotFat)
	}
	size := uint64(fatArchSize)
	if fat64 {
		size = fatArch64Size
	}
	avail := uint64(len(b) - fatHeaderSize)
	if uint64(count) > avail/size {
		return false, nil, fmt.Errorf("%w: table of %d architectures is truncated", ErrNotFat, count)
	}
	end := headerSize(fat64, int(count))
	slices = make([]Slice, count)
	for i := range slices {
		e := b[fatHeaderSize+uint64(i)*size:]
		s := Slice{
			Arch: cputype.Arch{
				CPU:    cputype.Type(be.Uint32(e[0:])),
				SubCPU: cputype.SubType(be.Uint32(e[4:])),
			},
		}
		if fat64 {
			s.Offset = be.Uint64(e[8:])
			s.Size = be.Uint64(e[16:])
			s.Align = be.Uint32(e[24:])
		} else {
			s.Offset = uint64(be.Uint32(e[8:]))
			s.Size = uint64(be.Uint32(e[12:]))
			s.Align = be.Uint32(e[16:])
		}
		if s.Align > maxAlignBits {
			return false, nil, fmt.Errorf("%w: architecture %d alignment 2^%d", ErrNotFat, i, s.Align)
		}
		if s.Offset < end || s.Offset > uint64(len(b)) || s.Size > uint64(len(b))-s.Offset {
			return false, nil, fmt.Errorf("%w: architecture %d range [%d,+%d) outside of %d bytes", ErrNotFat, i, s.Offset, s.Size, len(b))
		}
		slices[i] = s
	}
	return fat64, slices, nil
}
