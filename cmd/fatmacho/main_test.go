package main

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
	"github.com/turbokube/fatmacho/pkg/fat"
	"github.com/turbokube/fatmacho/pkg/pushed"
	"github.com/turbokube/fatmacho/pkg/schema"
	"github.com/turbokube/fatmacho/pkg/testcases"
)

// useMemFs routes all file access except OCI layouts to one in-memory filesystem
func useMemFs(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	prevSchema, prevFat := schema.Fs, fat.Fs
	schema.Fs, fat.Fs = fs, fs
	t.Cleanup(func() {
		schema.Fs, fat.Fs = prevSchema, prevFat
	})
	return fs
}

func execute(args ...string) (string, error) {
	c := newRootCmd()
	var stdout, stderr bytes.Buffer
	c.SetOut(&stdout)
	c.SetErr(&stderr)
	c.SetArgs(append([]string{"--logger", "plain"}, args...))
	err := c.Execute()
	return stdout.String(), err
}

func writeInputs(fs afero.Fs) {
	Expect(afero.WriteFile(fs, "/in/app-amd64", testcases.MockExecutable("x86_64", 1000), 0755)).To(Succeed())
	Expect(afero.WriteFile(fs, "/in/app-arm64", testcases.MockExecutable("arm64", 1200), 0755)).To(Succeed())
	Expect(afero.WriteFile(fs, "/in/app-386", testcases.MockExecutable("i386", 800), 0755)).To(Succeed())
}

func TestCreateFromArgs(t *testing.T) {
	RegisterTestingT(t)
	fs := useMemFs(t)
	writeInputs(fs)

	stdout, err := execute("create", "/in/app-arm64", "/in/app-amd64", "-o", "/out/app", "--file-output", "/out/build.json")
	Expect(err).NotTo(HaveOccurred())
	Expect(stdout).To(Equal("/out/app\n"))

	r, err := fat.ReadFile("/out/app")
	Expect(err).NotTo(HaveOccurred())
	Expect(r.Slices()).To(HaveLen(2))
	Expect(r.Slices()[0].Arch.NameOrUnknown()).To(Equal("x86_64"))

	j, err := afero.ReadFile(fs, "/out/build.json")
	Expect(err).NotTo(HaveOccurred())
	var o pushed.BuildOutput
	Expect(json.Unmarshal(j, &o)).To(Succeed())
	Expect(o.Fat.Path).To(Equal("/out/app"))
	Expect(o.Fat.Arches).To(HaveLen(2))
	Expect(o.Trace.End).NotTo(BeNil())
}

func TestCreateFromConfig(t *testing.T) {
	RegisterTestingT(t)
	fs := useMemFs(t)
	writeInputs(fs)
	Expect(afero.WriteFile(fs, "/work/fatmacho.yaml", []byte(
		"output: /out/app\n"+
			"inputs:\n"+
			"- path: /in/app-amd64\n"+
			"- path: /in/app-386\n"+
			"remove: [i386]\n",
	), 0644)).To(Succeed())

	_, err := execute("create", "-f", "/work/fatmacho.yaml")
	Expect(err).NotTo(HaveOccurred())
	r, err := fat.ReadFile("/out/app")
	Expect(err).NotTo(HaveOccurred())
	Expect(r.Slices()).To(HaveLen(1))

	_, err = execute("create", "-f", "/work/missing.yaml")
	Expect(err).To(MatchError(ContainSubstring("create requires input args or config")))
}

func TestCreateDryRun(t *testing.T) {
	RegisterTestingT(t)
	fs := useMemFs(t)
	writeInputs(fs)

	stdout, err := execute("create", "/in/app-amd64", "/in/app-arm64", "-o", "/out/app", "--dry-run")
	Expect(err).NotTo(HaveOccurred())
	Expect(stdout).To(HavePrefix("/out/app fat "))
	Expect(stdout).To(ContainSubstring("arm64"))
	Expect(stdout).To(ContainSubstring("2^14"))
	exists, err := afero.Exists(fs, "/out/app")
	Expect(err).NotTo(HaveOccurred())
	Expect(exists).To(BeFalse())
}

func TestCreatePlatformsEnvRequire(t *testing.T) {
	RegisterTestingT(t)
	fs := useMemFs(t)
	writeInputs(fs)
	t.Setenv(envPlatforms, "")

	_, err := execute("create", "/in/app-amd64", "-o", "/out/app", "--platforms-env-require")
	Expect(err).NotTo(HaveOccurred())

	os.Unsetenv(envPlatforms)
	_, err = execute("create", "/in/app-amd64", "-o", "/out/app", "--platforms-env-require")
	Expect(err).To(MatchError("PLATFORMS env required but not found"))
}

func TestThinExtractRemove(t *testing.T) {
	RegisterTestingT(t)
	fs := useMemFs(t)
	writeInputs(fs)
	_, err := execute("create", "/in/app-amd64", "/in/app-arm64", "/in/app-386", "-o", "/out/app")
	Expect(err).NotTo(HaveOccurred())

	_, err = execute("thin", "/out/app", "--arch", "arm64", "-o", "/out/app-arm64")
	Expect(err).NotTo(HaveOccurred())
	thin, err := afero.ReadFile(fs, "/out/app-arm64")
	Expect(err).NotTo(HaveOccurred())
	Expect(thin).To(Equal(testcases.MockExecutable("arm64", 1200)))
	info, err := fs.Stat("/out/app-arm64")
	Expect(err).NotTo(HaveOccurred())
	Expect(info.Mode().Perm()).To(Equal(fat.FileMode))

	_, err = execute("thin", "/out/app", "--arch", "armv7", "-o", "/out/app-armv7")
	Expect(err).To(MatchError(ContainSubstring("does not contain armv7")))
	_, err = execute("thin", "/out/app", "--arch", "z80", "-o", "/out/app-z80")
	Expect(err).To(MatchError(ContainSubstring("unknown arch z80")))
	_, err = execute("thin", "/in/app-amd64", "--arch", "x86_64", "-o", "/out/x")
	Expect(err).To(MatchError(fat.ErrNotFat))

	_, err = execute("extract", "/out/app", "--arch", "x86_64,arm64", "-o", "/out/app-64")
	Expect(err).NotTo(HaveOccurred())
	r, err := fat.ReadFile("/out/app-64")
	Expect(err).NotTo(HaveOccurred())
	Expect(r.Slices()).To(HaveLen(2))

	_, err = execute("remove", "/out/app", "--arch", "i386", "-o", "/out/app-no386")
	Expect(err).NotTo(HaveOccurred())
	r, err = fat.ReadFile("/out/app-no386")
	Expect(err).NotTo(HaveOccurred())
	Expect(r.Slices()).To(HaveLen(2))
	_, ok := r.Extract("i386")
	Expect(ok).To(BeFalse())

	_, err = execute("remove", "/out/app", "--arch", "ppc", "-o", "/out/app-noppc")
	Expect(err).To(MatchError("remove ppc: no such arch in inputs"))
}

func TestInfoAndVerifyArch(t *testing.T) {
	RegisterTestingT(t)
	fs := useMemFs(t)
	writeInputs(fs)
	_, err := execute("create", "/in/app-amd64", "/in/app-arm64", "-o", "/out/app")
	Expect(err).NotTo(HaveOccurred())

	stdout, err := execute("info", "/out/app")
	Expect(err).NotTo(HaveOccurred())
	Expect(stdout).To(ContainSubstring("x86_64"))
	Expect(stdout).To(ContainSubstring("ARCH"))

	stdout, err = execute("info", "/out/app", "--json")
	Expect(err).NotTo(HaveOccurred())
	var o pushed.BuildOutput
	Expect(json.Unmarshal([]byte(stdout), &o)).To(Succeed())
	Expect(o.Fat.Arches).To(HaveLen(2))
	Expect(o.Fat.Arches[1].Offset).To(Equal(uint64(0x8000)))

	stdout, err = execute("info", "/in/app-386")
	Expect(err).NotTo(HaveOccurred())
	Expect(stdout).To(Equal("Non-fat file: /in/app-386 is architecture: i386\n"))

	Expect(afero.WriteFile(fs, "/in/readme", []byte("hello"), 0644)).To(Succeed())
	_, err = execute("info", "/in/readme")
	Expect(err).To(MatchError(ContainSubstring("neither fat nor")))

	_, err = execute("verify-arch", "/out/app", "arm64", "x86_64")
	Expect(err).NotTo(HaveOccurred())
	_, err = execute("verify-arch", "/out/app", "arm64", "i386")
	Expect(err).To(MatchError("/out/app does not contain: i386"))
	_, err = execute("verify-arch", "/in/app-386", "i386")
	Expect(err).NotTo(HaveOccurred())
}

func TestExportImportLayout(t *testing.T) {
	RegisterTestingT(t)
	fs := useMemFs(t)
	writeInputs(fs)
	_, err := execute("create", "/in/app-amd64", "/in/app-arm64", "-o", "/out/app")
	Expect(err).NotTo(HaveOccurred())

	layoutDir := t.TempDir()
	stdout, err := execute("export", "/out/app", "--layout", layoutDir)
	Expect(err).NotTo(HaveOccurred())
	Expect(stdout).To(HavePrefix(layoutDir + "@sha256:"))

	_, err = execute("import", "--layout", layoutDir, "--platform", "darwin/arm64", "-o", "/out/imported")
	Expect(err).NotTo(HaveOccurred())
	r, err := fat.ReadFile("/out/imported")
	Expect(err).NotTo(HaveOccurred())
	Expect(r.Slices()).To(HaveLen(1))
	b, ok := r.Extract("arm64")
	Expect(ok).To(BeTrue())
	Expect(b).To(Equal(testcases.MockExecutable("arm64", 1200)))

	_, err = execute("export", "/out/app")
	Expect(err).To(MatchError("export requires --layout or --tag"))
	_, err = execute("import", "-o", "/out/x")
	Expect(err).To(MatchError("import requires --layout or --image"))
}

func TestSchema(t *testing.T) {
	RegisterTestingT(t)
	stdout, err := execute("schema")
	Expect(err).NotTo(HaveOccurred())
	Expect(stdout).To(ContainSubstring(`"FatConfig"`))
}
