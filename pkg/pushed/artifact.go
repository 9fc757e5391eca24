package pushed

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/distribution/reference"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/types"
	"github.com/turbokube/fatmacho/pkg/annotate"
	"go.uber.org/zap"
)

const (
	attestationPlatform      = "unknown/unknown"
	referenceTypeAnnotation  = "vnd.docker.reference.type"
	referenceTypeAttestation = "attestation-manifest"
)

// Artifact is one entry of skaffold's builds list, extended with what we know about the slices.
type Artifact struct {
	// ImageName is the repository as given, without default registry
	ImageName string `json:"imageName"`
	// TagRef is name[:tag]@digest
	TagRef    string          `json:"tag"`
	MediaType types.MediaType `json:"mediaType"`
	// Platforms are os/arch[/variant] of the slice manifests
	Platforms []string `json:"platforms"`
	// Arches are Mach-O arch names, when the index carries them
	Arches []string `json:"arches,omitempty"`

	ref    name.Reference
	digest v1.Hash
}

// HttpLocation is where registry API calls for the artifact go
type HttpLocation struct {
	// Host includes port, if any
	Host string
	// Repository excludes the /v2/ prefix
	Repository string
	// Tag is "latest" when the artifact was pushed by digest only
	Tag  string
	Hash v1.Hash
}

// NewPushedIndex describes the index we pushed to tagRef
func NewPushedIndex(tagRef string, digest v1.Hash, index v1.ImageIndex) (*Artifact, error) {
	a := &Artifact{digest: digest}
	if err := a.setRef(tagRef); err != nil {
		return nil, err
	}
	m, err := index.IndexManifest()
	if err != nil {
		zap.L().Error("index manifest", zap.String("tag", tagRef), zap.Error(err))
		return nil, err
	}
	a.MediaType = m.MediaType
	a.Platforms = []string{}
	for _, d := range m.Manifests {
		if !isSlice(d) {
			continue
		}
		a.Platforms = append(a.Platforms, d.Platform.String())
		if arch := d.Annotations[annotate.AnnotationArch]; arch != "" {
			a.Arches = append(a.Arches, arch)
		}
	}
	return a, nil
}

// isSlice excludes attestations and anything else that isn't a platform image
func isSlice(d v1.Descriptor) bool {
	if d.Platform == nil || !d.MediaType.IsImage() {
		return false
	}
	return d.Platform.String() != attestationPlatform ||
		d.Annotations[referenceTypeAnnotation] != referenceTypeAttestation
}

func (a *Artifact) setRef(tagRef string) error {
	parsed, err := reference.Parse(tagRef)
	if err != nil {
		zap.L().Error("parse", zap.String("ref", tagRef), zap.Error(err))
		return err
	}
	named, ok := parsed.(reference.Named)
	if !ok {
		return fmt.Errorf("no repository name in %s", tagRef)
	}
	withTag := named.Name()
	if tagged, ok := named.(reference.Tagged); ok {
		withTag += ":" + tagged.Tag()
	}
	// ggcr applies the default registry, distribution doesn't
	a.ref, err = name.ParseReference(withTag)
	if err != nil {
		return err
	}
	a.ImageName = named.Name()
	a.TagRef = withTag + "@" + a.digest.String()
	return nil
}

func (a *Artifact) Reference() name.Reference {
	return a.ref
}

// Digest is that of the index
func (a *Artifact) Digest() v1.Hash {
	return a.digest
}

func (a *Artifact) Http() HttpLocation {
	repo := a.ref.Context()
	return HttpLocation{
		Host:       repo.RegistryStr(),
		Repository: repo.RepositoryStr(),
		Tag:        a.ref.Identifier(),
		Hash:       a.digest,
	}
}

// UnmarshalJSON restores Reference and Digest from the tag field
func (a *Artifact) UnmarshalJSON(data []byte) error {
	type fields Artifact
	if err := json.Unmarshal(data, (*fields)(a)); err != nil {
		return err
	}
	base, digest, _ := strings.Cut(a.TagRef, "@")
	if digest != "" {
		h, err := v1.NewHash(digest)
		if err != nil {
			zap.L().Warn("tag digest", zap.String("tag", a.TagRef), zap.Error(err))
		}
		a.digest = h
	}
	ref, err := name.ParseReference(base)
	if err != nil {
		zap.L().Warn("tag reference", zap.String("tag", a.TagRef), zap.Error(err))
		return nil
	}
	a.ref = ref
	return nil
}
