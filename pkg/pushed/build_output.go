package pushed

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/turbokube/fatmacho/pkg/fat"
)

// BuildOutput describes what a build wrote and pushed
type BuildOutput struct {
	// Fat is the written fat binary
	Fat *FatOutput `json:"fat,omitempty"`
	// Layout is set when slices were exported to an OCI image layout
	Layout *LayoutOutput `json:"layout,omitempty"`
	// Skaffold is a superset of skaffold's --file-output format, set when slices were pushed
	Skaffold *BuildOutputSkaffoldSuperset `json:"skaffold,omitempty"`
	// Trace is internal metadata such as start/end and env; optional
	Trace *BuildTrace `json:"trace,omitempty"`
}

type FatOutput struct {
	Path string `json:"path,omitempty"`
	// Fat64 is true for the 64 bit header variant
	Fat64  bool      `json:"fat64"`
	Size   uint64    `json:"size"`
	Arches []FatArch `json:"arches"`
}

type FatArch struct {
	Arch       string `json:"arch"`
	CPUType    uint32 `json:"cputype"`
	CPUSubtype uint32 `json:"cpusubtype"`
	Offset     uint64 `json:"offset"`
	Size       uint64 `json:"size"`
	// Align is the exponent, as in the header
	Align uint32 `json:"align"`
}

type LayoutOutput struct {
	Path   string `json:"path"`
	Digest string `json:"digest"`
}

type BuildOutputSkaffoldSuperset struct {
	Builds []Artifact `json:"builds"`
}

func newFatOutput(path string, fat64 bool, slices []fat.Slice, size uint64) *FatOutput {
	o := &FatOutput{
		Path:   path,
		Fat64:  fat64,
		Size:   size,
		Arches: make([]FatArch, len(slices)),
	}
	for i, s := range slices {
		o.Arches[i] = FatArch{
			Arch:       s.Arch.NameOrUnknown(),
			CPUType:    uint32(s.Arch.CPU),
			CPUSubtype: uint32(s.Arch.SubCPU),
			Offset:     s.Offset,
			Size:       s.Size,
			Align:      s.Align,
		}
	}
	return o
}

// NewFatOutput describes a container that a writer produced at path
func NewFatOutput(path string, l fat.Layout) *FatOutput {
	return newFatOutput(path, l.Fat64, l.Slices, l.Size)
}

// NewFatOutputFromReader describes an existing container of size bytes
func NewFatOutputFromReader(path string, r *fat.Reader, size int) *FatOutput {
	return newFatOutput(path, r.Is64(), r.Slices(), uint64(size))
}

// Print writes the output path and the tag@digest for each pushed artifact
func (b *BuildOutput) Print(w io.Writer) {
	if b == nil {
		return
	}
	if b.Fat != nil && b.Fat.Path != "" {
		fmt.Fprintln(w, b.Fat.Path)
	}
	if b.Layout != nil {
		fmt.Fprintf(w, "%s@%s\n", b.Layout.Path, b.Layout.Digest)
	}
	if b.Skaffold != nil {
		for _, a := range b.Skaffold.Builds {
			fmt.Fprintln(w, a.TagRef)
		}
	}
}

// WithArtifact adds the pushed index
func (b *BuildOutput) WithArtifact(a *Artifact) error {
	if a == nil {
		return fmt.Errorf("artifact is nil")
	}
	b.Skaffold = &BuildOutputSkaffoldSuperset{Builds: []Artifact{*a}}
	return nil
}

// Artifact returns the one artifact we pushed (the Skaffold format supports >=0)
func (b BuildOutput) Artifact() (Artifact, bool) {
	if b.Skaffold == nil || len(b.Skaffold.Builds) == 0 {
		return Artifact{}, false
	}
	return b.Skaffold.Builds[0], true
}

func (b *BuildOutput) WriteSkaffoldJSON(w io.Writer) error {
	s := b.Skaffold
	if s == nil {
		s = &BuildOutputSkaffoldSuperset{Builds: []Artifact{}}
	}
	j, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = w.Write(j)
	return err
}

func (b *BuildOutput) WriteJSON(w io.Writer) error {
	j, err := json.Marshal(b)
	if err != nil {
		return err
	}
	_, err = w.Write(j)
	return err
}
