package object

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	arHeaderSize = 60
	arLongPrefix = "#1/"
)

var ErrMalformedArchive = errors.New("malformed archive")

// Member is one entry of a static library archive.
type Member struct {
	Name string
	Data []byte
}

// ArchiveMembers lists members in order, with BSD long names resolved.
// Data slices refer to b.
func ArchiveMembers(b []byte) ([]Member, error) {
	if !bytes.HasPrefix(b, archiveMagic) {
		return nil, fmt.Errorf("%w: missing magic", ErrMalformedArchive)
	}
	var members []Member
	pos := len(archiveMagic)
	for pos < len(b) {
		// a single trailing newline pads odd sized archives
		if pos == len(b)-1 && b[pos] == '\n' {
			break
		}
		if len(b)-pos < arHeaderSize {
			return nil, fmt.Errorf("%w: truncated header at %d", ErrMalformedArchive, pos)
		}
		hdr := b[pos : pos+arHeaderSize]
		if hdr[58] != '`' || hdr[59] != '\n' {
			return nil, fmt.Errorf("%w: bad header terminator at %d", ErrMalformedArchive, pos)
		}
		size, err := strconv.ParseInt(strings.TrimSpace(string(hdr[48:58])), 10, 64)
		if err != nil || size < 0 {
			return nil, fmt.Errorf("%w: bad size at %d", ErrMalformedArchive, pos)
		}
		start := pos + arHeaderSize
		if int64(len(b)-start) < size {
			return nil, fmt.Errorf("%w: member at %d exceeds archive", ErrMalformedArchive, pos)
		}
		data := b[start : start+int(size)]
		name := strings.TrimRight(string(hdr[0:16]), " ")
		if strings.HasPrefix(name, arLongPrefix) {
			n, err := strconv.Atoi(name[len(arLongPrefix):])
			if err != nil || n < 0 || n > len(data) {
				return nil, fmt.Errorf("%w: bad long name at %d", ErrMalformedArchive, pos)
			}
			name = strings.TrimRight(string(data[:n]), "\x00")
			data = data[n:]
		}
		members = append(members, Member{Name: name, Data: data})
		pos = start + int(size)
		if pos%2 != 0 {
			pos++
		}
	}
	return members, nil
}

func isSymbolTable(name string) bool {
	return name == "/" || name == "//" || strings.HasPrefix(name, "__.SYMDEF")
}

// parseArchive takes the arch of the first Mach-O member.
func parseArchive(b []byte) (*Object, error) {
	members, err := ArchiveMembers(b)
	if err != nil {
		return nil, err
	}
	o := &Object{Kind: KindArchive, Members: len(members)}
	for _, m := range members {
		if isSymbolTable(m.Name) || Sniff(m.Data) != KindMachO {
			continue
		}
		member, err := Parse(m.Data)
		if err != nil {
			return nil, err
		}
		o.Arch = member.Arch
		o.Type = member.Type
		o.thin = true
		break
	}
	return o, nil
}
