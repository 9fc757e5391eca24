package fat

import (
	"github.com/spf13/afero"
	"github.com/turbokube/fatmacho/pkg/cputype"
	"go.uber.org/zap"
)

// Reader indexes the slices of a fat container. It never copies the buffer
// and is safe for concurrent use as long as nobody modifies the buffer.
type Reader struct {
	buf    []byte
	fat64  bool
	slices []Slice
}

// NewReader fails with ErrNotFat for anything but a well formed fat container.
func NewReader(buf []byte) (*Reader, error) {
	fat64, slices, err := decodeHeader(buf)
	if err != nil {
		return nil, err
	}
	return &Reader{
		buf:    buf,
		fat64:  fat64,
		slices: slices,
	}, nil
}

// ReadFile reads path from Fs and parses it.
func ReadFile(path string) (*Reader, error) {
	buf, err := afero.ReadFile(Fs, path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(buf)
	if err != nil {
		zap.L().Debug("not fat", zap.String("path", path), zap.Int("size", len(buf)), zap.Error(err))
		return nil, err
	}
	return r, nil
}

// Is64 reports whether the header uses 64 bit offsets and sizes.
func (r *Reader) Is64() bool {
	return r.fat64
}

// Slices returns the architecture table in file order.
func (r *Reader) Slices() []Slice {
	s := make([]Slice, len(r.slices))
	copy(s, r.slices)
	return s
}

// Bytes returns the part of the buffer that s describes.
// Capacity is capped so that appending never writes into the next slice.
func (r *Reader) Bytes(s Slice) []byte {
	end := s.Offset + s.Size
	return r.buf[s.Offset:end:end]
}

// Extract returns the slice for an arch name. An unknown name or an arch
// that is not present is not an error.
func (r *Reader) Extract(name string) ([]byte, bool) {
	a, ok := cputype.Lookup(name)
	if !ok {
		return nil, false
	}
	return r.ExtractArch(a)
}

// ExtractArch matches with sub-type capability bits ignored.
func (r *Reader) ExtractArch(a cputype.Arch) ([]byte, bool) {
	for _, s := range r.slices {
		if s.Arch.Matches(a) {
			return r.Bytes(s), true
		}
	}
	return nil, false
}
