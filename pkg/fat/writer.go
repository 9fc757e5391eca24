package fat

import (
	"bufio"
	"bytes"
	"cmp"
	"io"
	"os"
	"slices"

	"github.com/spf13/afero"
	"github.com/turbokube/fatmacho/pkg/cputype"
	"github.com/turbokube/fatmacho/pkg/object"
	"go.uber.org/zap"
)

// Fs is the filesystem for ReadFile and WriteToFile, OS by default
var Fs = afero.NewOsFs()

// FileMode is what WriteToFile sets, regardless of umask
const FileMode os.FileMode = 0755

// fat64Threshold is the size at which offsets and sizes no longer fit the 32 bit header
var fat64Threshold uint64 = 1 << 32

type thinArch struct {
	data  []byte
	arch  cputype.Arch
	align uint64
}

// Writer accumulates thin images and writes them as one fat container.
// It is not safe for concurrent use.
type Writer struct {
	arches   []thinArch
	maxAlign uint64
}

func NewWriter() *Writer {
	return &Writer{}
}

// Add takes a thin Mach-O image, a thin archive, or a fat container whose
// slices are added one by one. Add copies b, so the caller may reuse it.
// Add either adds all of the input's slices or none of them.
func (w *Writer) Add(b []byte) error {
	var added []thinArch
	// a stack, so nested containers are walked depth first and
	// a duplicate leaf fails before its siblings are expanded
	pending := [][]byte{bytes.Clone(b)}
	for len(pending) > 0 {
		next := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if object.Sniff(next) == object.KindFat {
			r, err := NewReader(next)
			if err != nil {
				return err
			}
			for i := len(r.slices) - 1; i >= 0; i-- {
				pending = append(pending, r.Bytes(r.slices[i]))
			}
			zap.L().Debug("flattening fat input", zap.Int("slices", len(r.slices)))
			continue
		}
		obj, err := object.Parse(next)
		if err != nil {
			return err
		}
		if !obj.IsThin() {
			zap.L().Debug("rejected input", zap.Stringer("kind", obj.Kind), zap.Int("size", len(next)))
			return &InvalidImageError{Message: "input is not a recognized architecture image"}
		}
		if w.has(obj.Arch) || containsArch(added, obj.Arch) {
			return &DuplicatedArchError{Name: obj.Arch.NameOrUnknown()}
		}
		added = append(added, thinArch{
			data:  next,
			arch:  obj.Arch,
			align: cputype.Alignment(obj.Arch),
		})
	}
	for _, a := range added {
		w.arches = append(w.arches, a)
		if a.align > w.maxAlign {
			w.maxAlign = a.align
		}
		zap.L().Debug("added",
			zap.Stringer("arch", a.arch),
			zap.Int("size", len(a.data)),
			zap.Uint64("align", a.align),
		)
	}
	// small alignments first, arm64 last
	slices.SortStableFunc(w.arches, compareArches)
	return nil
}

func compareArches(a, b thinArch) int {
	if a.arch.CPU == b.arch.CPU {
		return cmp.Compare(a.arch.SubCPU, b.arch.SubCPU)
	}
	if a.arch.CPU == cputype.ARM64 {
		return 1
	}
	if b.arch.CPU == cputype.ARM64 {
		return -1
	}
	return cmp.Compare(a.align, b.align)
}

func containsArch(arches []thinArch, a cputype.Arch) bool {
	for _, t := range arches {
		if t.arch.Equal(a) {
			return true
		}
	}
	return false
}

func (w *Writer) has(a cputype.Arch) bool {
	return containsArch(w.arches, a)
}

func (w *Writer) find(name string) int {
	a, ok := cputype.Lookup(name)
	if !ok {
		return -1
	}
	for i, t := range w.arches {
		if t.arch.Matches(a) {
			return i
		}
	}
	return -1
}

// Remove takes out the first slice matching an arch name and returns its bytes.
// The alignment used for writing is not recomputed.
func (w *Writer) Remove(name string) ([]byte, bool) {
	i := w.find(name)
	if i < 0 {
		return nil, false
	}
	data := w.arches[i].data
	w.arches = slices.Delete(w.arches, i, i+1)
	return data, true
}

// Exists reports whether a slice matches an arch name.
func (w *Writer) Exists(name string) bool {
	return w.find(name) >= 0
}

// Len is the number of slices.
func (w *Writer) Len() int {
	return len(w.arches)
}

// Arches lists slice arches in the order they will be written.
func (w *Writer) Arches() []cputype.Arch {
	a := make([]cputype.Arch, len(w.arches))
	for i, t := range w.arches {
		a[i] = t.arch
	}
	return a
}

// Layout is the offset plan for the current slices.
type Layout struct {
	Fat64 bool
	// Align is the file alignment that every offset is a multiple of
	Align uint64
	// HeaderSize is the number of bytes in magic, count and architecture table
	HeaderSize uint64
	Slices     []Slice
	// Size is the total number of bytes WriteTo produces
	Size uint64
}

// Layout computes offsets without writing anything.
func (w *Writer) Layout() Layout {
	if len(w.arches) == 0 {
		return Layout{}
	}
	align := w.maxAlign
	if align < naturalAlign {
		align = naturalAlign
	}
	l := w.plan(false, align)
	end := roundUp(l.Size, align)
	fat64 := end >= fat64Threshold
	for _, t := range w.arches {
		if uint64(len(t.data)) >= fat64Threshold {
			fat64 = true
		}
	}
	if fat64 {
		l = w.plan(true, align)
	}
	return l
}

func (w *Writer) plan(fat64 bool, align uint64) Layout {
	l := Layout{
		Fat64:      fat64,
		Align:      align,
		HeaderSize: headerSize(fat64, len(w.arches)),
		Slices:     make([]Slice, len(w.arches)),
	}
	offset := align
	if l.HeaderSize > offset {
		offset = roundUp(l.HeaderSize, align)
	}
	for i, t := range w.arches {
		size := uint64(len(t.data))
		l.Slices[i] = Slice{
			Arch:   t.arch,
			Offset: offset,
			Size:   size,
			Align:  alignBits(t.align),
		}
		l.Size = offset + size
		offset = roundUp(offset+size, align)
	}
	return l
}

func roundUp(n, align uint64) uint64 {
	return (n + align - 1) / align * align
}

// WriteTo writes the fat container. Nothing is written if there are no slices.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	if len(w.arches) == 0 {
		return 0, nil
	}
	l := w.Layout()
	n, err := out.Write(encodeHeader(l.Fat64, l.Slices))
	written := int64(n)
	if err != nil {
		return written, err
	}
	for i, t := range w.arches {
		if pad := int64(l.Slices[i].Offset) - written; pad > 0 {
			p, err := writeZeros(out, pad)
			written += p
			if err != nil {
				return written, err
			}
		}
		n, err := out.Write(t.data)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

var zeros [0x4000]byte

func writeZeros(out io.Writer, n int64) (int64, error) {
	var written int64
	for written < n {
		chunk := n - written
		if chunk > int64(len(zeros)) {
			chunk = int64(len(zeros))
		}
		c, err := out.Write(zeros[:chunk])
		written += int64(c)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// WriteToFile creates or truncates path on Fs, makes it executable and writes the container.
// A failed write may leave a partial file.
func (w *Writer) WriteToFile(path string) error {
	f, err := Fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, FileMode)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := Fs.Chmod(path, FileMode); err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	n, err := w.WriteTo(bw)
	if err != nil {
		zap.L().Error("write failed", zap.String("path", path), zap.Int64("written", n), zap.Error(err))
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	zap.L().Info("wrote fat binary",
		zap.String("path", path),
		zap.Int("arches", len(w.arches)),
		zap.Int64("bytes", n),
	)
	return nil
}
