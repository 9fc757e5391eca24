package schema_test

import (
	"testing"

	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
	"github.com/turbokube/fatmacho/pkg/schema"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func useMemFs(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	prev := schema.Fs
	schema.Fs = fs
	t.Cleanup(func() { schema.Fs = prev })
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t)))
	return fs
}

func TestParse(t *testing.T) {
	RegisterTestingT(t)
	fs := useMemFs(t)

	Expect(afero.WriteFile(fs, "/work/fatmacho.yaml", []byte(`
output: build/app
inputs:
- path: build/app-amd64
- dir:
    path: build/slices
    ignore: ["*.dSYM"]
    maxFiles: 4
- ociLayout:
    path: build/oci
    binaryPath: /bin/app
remove: [i386]
platforms: [darwin/arm64]
oci:
  tag: registry.local/app:1
`), 0644)).To(Succeed())

	cfg, err := schema.ParseConfig("/work/fatmacho.yaml")
	Expect(err).NotTo(HaveOccurred())
	Expect(cfg.Output).To(Equal("build/app"))
	Expect(cfg.Inputs).To(HaveLen(3))
	Expect(cfg.Inputs[0].Path).To(Equal("build/app-amd64"))
	Expect(cfg.Inputs[1].Dir.MaxFiles).To(Equal(4))
	Expect(cfg.Inputs[1].Dir.Ignore).To(Equal([]string{"*.dSYM"}))
	Expect(cfg.Inputs[2].OCILayout.BinaryPath).To(Equal("/bin/app"))
	Expect(cfg.Remove).To(Equal([]string{"i386"}))
	Expect(cfg.Platforms).To(Equal([]string{"darwin/arm64"}))
	Expect(cfg.OCI.Enabled()).To(BeTrue())
	Expect(cfg.Status.Template).To(BeFalse())
	Expect(cfg.Status.Sha256).To(HaveLen(64))
	Expect(cfg.Status.Md5).To(HaveLen(32))
}

func TestParseUnknownField(t *testing.T) {
	RegisterTestingT(t)
	fs := useMemFs(t)

	Expect(afero.WriteFile(fs, "/work/fatmacho.yaml", []byte("output: a\nbase: busybox\n"), 0644)).To(Succeed())
	_, err := schema.ParseConfig("/work/fatmacho.yaml")
	Expect(err).To(MatchError(ContainSubstring("field base not found")))
}

func TestParseMissing(t *testing.T) {
	RegisterTestingT(t)
	useMemFs(t)

	_, err := schema.ParseConfig("/work/none.yaml")
	Expect(err).To(MatchError(ContainSubstring("read fatmacho config")))
	_, err = schema.ParseConfig("")
	Expect(err).To(HaveOccurred())
}

func TestTemplateCreate(t *testing.T) {
	RegisterTestingT(t)
	fs := useMemFs(t)
	t.Setenv("FATMACHO_OUTPUT", "/out/app")
	t.Setenv("PLATFORMS", "darwin/amd64, darwin/arm64")
	Expect(fs.MkdirAll("/in/slices", 0755)).To(Succeed())

	cfg := schema.TemplateCreate("", []string{"/in/app-x86", "/in/slices"})
	Expect(cfg.Status.Template).To(BeTrue())
	Expect(cfg.Output).To(Equal("/out/app"))
	Expect(cfg.Platforms).To(Equal([]string{"darwin/amd64", "darwin/arm64"}))
	Expect(cfg.Inputs).To(HaveLen(2))
	Expect(cfg.Inputs[0].Path).To(Equal("/in/app-x86"))
	Expect(cfg.Inputs[1].Dir.Path).To(Equal("/in/slices"))
	Expect(cfg.Inputs[1].Dir.Ignore).To(ContainElement("fatmacho.yaml"))

	Expect(schema.TemplateCreate("explicit", nil).Output).To(Equal("explicit"))
}
