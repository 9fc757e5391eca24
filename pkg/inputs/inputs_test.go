package inputs_test

import (
	"bytes"
	"testing"

	ggcrv1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
	"github.com/turbokube/fatmacho/pkg/fat"
	"github.com/turbokube/fatmacho/pkg/inputs"
	"github.com/turbokube/fatmacho/pkg/multiarch"
	"github.com/turbokube/fatmacho/pkg/schema"
	v1 "github.com/turbokube/fatmacho/pkg/schema/v1"
	"github.com/turbokube/fatmacho/pkg/testcases"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func useMemFs(t *testing.T) afero.Fs {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t)))
	fs := afero.NewMemMapFs()
	prev := schema.Fs
	schema.Fs = fs
	t.Cleanup(func() { schema.Fs = prev })
	return fs
}

func load(cfg v1.Input) ([]inputs.Source, error) {
	l, err := inputs.NewLoader(cfg, nil, nil)
	if err != nil {
		return nil, err
	}
	return l()
}

func TestNewLoaderValidation(t *testing.T) {
	RegisterTestingT(t)
	useMemFs(t)

	_, err := inputs.NewLoader(v1.Input{}, nil, nil)
	Expect(err).To(MatchError("no input config found"))
	_, err = inputs.NewLoader(v1.Input{Path: "a", Dir: v1.LocalDir{Path: "b"}}, nil, nil)
	Expect(err).To(MatchError(ContainSubstring("exactly one type")))
	_, err = inputs.NewLoader(v1.Input{Dir: v1.LocalDir{Path: "b", MaxSize: "1M"}}, nil, nil)
	Expect(err).To(HaveOccurred())
	_, err = inputs.NewLoader(v1.Input{OCIImage: v1.OCIImage{Ref: "registry.local/app:1"}}, nil, nil)
	Expect(err).To(MatchError(ContainSubstring("registry config required")))
}

func TestFileAndDir(t *testing.T) {
	RegisterTestingT(t)
	fs := useMemFs(t)

	x86 := testcases.MockExecutable("x86_64", 300)
	arm := testcases.MockExecutable("arm64", 300)
	Expect(afero.WriteFile(fs, "/build/app-amd64", x86, 0755)).To(Succeed())
	Expect(afero.WriteFile(fs, "/build/slices/app-arm64", arm, 0755)).To(Succeed())
	Expect(afero.WriteFile(fs, "/build/slices/README.txt", []byte("docs"), 0644)).To(Succeed())

	sources, err := load(v1.Input{Path: "/build/app-amd64"})
	Expect(err).NotTo(HaveOccurred())
	Expect(sources).To(HaveLen(1))
	Expect(sources[0].Name).To(Equal("/build/app-amd64"))
	Expect(sources[0].Data).To(Equal(x86))

	sources, err = load(v1.Input{Dir: v1.LocalDir{Path: "/build/slices", Ignore: []string{"*.txt"}}})
	Expect(err).NotTo(HaveOccurred())
	Expect(sources).To(HaveLen(1))
	Expect(sources[0].Name).To(Equal("/build/slices/app-arm64"))

	_, err = load(v1.Input{Path: "/build/missing"})
	Expect(err).To(HaveOccurred())
}

func TestOCILayout(t *testing.T) {
	RegisterTestingT(t)
	useMemFs(t)

	w := fat.NewWriter()
	Expect(w.Add(testcases.MockExecutable("x86_64", 300))).To(Succeed())
	Expect(w.Add(testcases.MockExecutable("arm64", 400))).To(Succeed())
	var buf bytes.Buffer
	_, err := w.WriteTo(&buf)
	Expect(err).NotTo(HaveOccurred())
	r, err := fat.NewReader(buf.Bytes())
	Expect(err).NotTo(HaveOccurred())
	index, err := multiarch.Export{BinaryPath: schema.DefaultBinaryPath}.NewIndex(r)
	Expect(err).NotTo(HaveOccurred())
	dir := t.TempDir()
	Expect(multiarch.WriteLayout(dir, index)).To(Succeed())

	sources, err := load(v1.Input{OCILayout: v1.OCILayout{Path: dir}})
	Expect(err).NotTo(HaveOccurred())
	Expect(sources).To(HaveLen(2))
	Expect(sources[0].Name).To(Equal(dir + "[darwin/amd64]"))
	Expect(sources[1].Data).To(HaveLen(400))
}

func TestOCILayoutArchMismatch(t *testing.T) {
	RegisterTestingT(t)
	useMemFs(t)

	// an x86_64 binary in an image that claims darwin/arm64
	layer, err := multiarch.BinaryLayer("/app", testcases.MockExecutable("x86_64", 300))
	Expect(err).NotTo(HaveOccurred())
	img, err := mutate.AppendLayers(empty.Image, layer)
	Expect(err).NotTo(HaveOccurred())
	index := mutate.AppendManifests(empty.Index, mutate.IndexAddendum{
		Add: img,
		Descriptor: ggcrv1.Descriptor{
			Platform: &ggcrv1.Platform{OS: "darwin", Architecture: "arm64"},
		},
	})
	dir := t.TempDir()
	Expect(multiarch.WriteLayout(dir, index)).To(Succeed())

	_, err = load(v1.Input{OCILayout: v1.OCILayout{Path: dir}})
	Expect(err).To(MatchError(ContainSubstring("expected a thin arm64 image")))
}
