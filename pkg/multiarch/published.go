package multiarch

import (
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/partial"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/types"
)

// Pushed is the index that PushIndex put at a tag
type Pushed struct {
	Tag       name.Reference
	Digest    v1.Hash
	MediaType types.MediaType
	// Manifests is the number of slice images
	Manifests int
}

// publishedIndex is an index as remote.Put sees it.
// Manifest bytes and descriptor are captured once, so the digest we report
// is that of the bytes we pushed. remote.Put would treat a v1.ImageIndex as an image.
type publishedIndex struct {
	raw  []byte
	desc v1.Descriptor
}

var _ remote.Taggable = (*publishedIndex)(nil)
var _ partial.Describable = (*publishedIndex)(nil)

func newPublishedIndex(index v1.ImageIndex) (*publishedIndex, error) {
	raw, err := index.RawManifest()
	if err != nil {
		return nil, err
	}
	desc, err := partial.Descriptor(index)
	if err != nil {
		return nil, err
	}
	return &publishedIndex{raw: raw, desc: *desc}, nil
}

func (p *publishedIndex) RawManifest() ([]byte, error) {
	return p.raw, nil
}

func (p *publishedIndex) Digest() (v1.Hash, error) {
	return p.desc.Digest, nil
}

func (p *publishedIndex) MediaType() (types.MediaType, error) {
	return p.desc.MediaType, nil
}

func (p *publishedIndex) Size() (int64, error) {
	return p.desc.Size, nil
}
