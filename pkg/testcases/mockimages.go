package testcases

import (
	"bytes"
	"debug/macho"
	"encoding/binary"
	"fmt"

	"github.com/turbokube/fatmacho/pkg/cputype"
)

const (
	machoHeaderSize32 = 28
	machoHeaderSize64 = 32
)

// MockThin returns a header-only little endian Mach-O image for arch,
// zero load commands, padded to size bytes with a filler that depends on arch
// so that slices of different arches never compare equal.
func MockThin(arch cputype.Arch, filetype macho.Type, size int) []byte {
	magic := macho.Magic32
	hsize := machoHeaderSize32
	if arch.Is64() {
		magic = macho.Magic64
		hsize = machoHeaderSize64
	}
	if size < hsize {
		size = hsize
	}
	b := make([]byte, size)
	le := binary.LittleEndian
	le.PutUint32(b[0:], magic)
	le.PutUint32(b[4:], uint32(arch.CPU))
	le.PutUint32(b[8:], uint32(arch.SubCPU))
	le.PutUint32(b[12:], uint32(filetype))
	// ncmds, sizeofcmds, flags (and reserved) stay zero
	fill := byte(arch.CPU) ^ byte(arch.SubCPU) ^ 0x5a
	for i := hsize; i < size; i++ {
		b[i] = fill + byte(i)
	}
	return b
}

// MockExecutable is MockThin for a named arch, panics on unknown names.
func MockExecutable(arch string, size int) []byte {
	a, ok := cputype.Lookup(arch)
	if !ok {
		panic(fmt.Sprintf("unknown arch %s", arch))
	}
	return MockThin(a, macho.TypeExec, size)
}

// MockArchive builds a BSD style static library with a long named
// symbol table followed by one object file member per arch.
func MockArchive(arch string, objects int) []byte {
	a, ok := cputype.Lookup(arch)
	if !ok {
		panic(fmt.Sprintf("unknown arch %s", arch))
	}
	b := &bytes.Buffer{}
	b.WriteString("!<arch>\n")
	symdef := append([]byte("__.SYMDEF SORTED\x00\x00\x00\x00"), make([]byte, 8)...)
	writeArMember(b, "#1/20", symdef)
	for i := 0; i < objects; i++ {
		writeArMember(b, fmt.Sprintf("obj%d.o", i), MockThin(a, macho.TypeObj, 100+i))
	}
	return b.Bytes()
}

func writeArMember(b *bytes.Buffer, name string, data []byte) {
	fmt.Fprintf(b, "%-16s%-12d%-6d%-6d%-8o%-10d`\n", name, 0, 0, 0, 0644, len(data))
	b.Write(data)
	if len(data)%2 != 0 {
		b.WriteByte('\n')
	}
}
