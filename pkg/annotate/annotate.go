package annotate

import (
	"path"
	"strconv"

	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/partial"
	specsv1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/turbokube/fatmacho/pkg/fat"
)

const (
	// AnnotationArch is the Mach-O arch name of the slice
	AnnotationArch = "dev.turbokube.fatmacho.arch"
	// AnnotationAlign is the slice's alignment exponent in the fat header
	AnnotationAlign = "dev.turbokube.fatmacho.align"
)

// Annotator adds annotations to an image or index manifest
// and returns a value of the same kind
type Annotator func(partial.WithRawManifest) partial.WithRawManifest

// NewSlice returns an annotator for the image that carries one slice
func NewSlice(s fat.Slice, binaryPath string) Annotator {
	return func(image partial.WithRawManifest) partial.WithRawManifest {
		return mutate.Annotations(image, map[string]string{
			specsv1.AnnotationTitle: path.Base(binaryPath),
			AnnotationArch:          s.Arch.NameOrUnknown(),
			AnnotationAlign:         strconv.FormatUint(uint64(s.Align), 10),
		})
	}
}

// NewIndex returns an annotator for the index of all slices,
// with refName omitted when empty
func NewIndex(refName string, source string) Annotator {
	return func(index partial.WithRawManifest) partial.WithRawManifest {
		a := map[string]string{}
		if refName != "" {
			a[specsv1.AnnotationRefName] = refName
		}
		if source != "" {
			a[specsv1.AnnotationTitle] = path.Base(source)
		}
		if len(a) == 0 {
			return index
		}
		return mutate.Annotations(index, a)
	}
}
