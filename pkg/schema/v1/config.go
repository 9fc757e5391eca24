package v1

type FatConfig struct {
	Status FatConfigStatus `json:"-" yaml:"-"`
	// Output is the path of the fat binary, written with mode 0755
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
	// Inputs are thin or fat images, all slices are merged
	Inputs []Input `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	// Remove lists arch names to drop before writing
	Remove []string `json:"remove,omitempty" yaml:"remove,omitempty"`
	// Platforms limits OCI inputs and exports, for example darwin/arm64
	Platforms []string `json:"platforms,omitempty" yaml:"platforms,omitempty"`
	OCI       OCI      `json:"oci,omitempty" yaml:"oci,omitempty"`
}

type FatConfigStatus struct {
	Template bool   // true if config is from a template
	Md5      string // config source md5 (not for template)
	Sha256   string // config source sha256 (not for template)
}

type Input struct {
	// exactly one of the following
	Path      string    `json:"path,omitempty" yaml:"path,omitempty"`
	Dir       LocalDir  `json:"dir,omitempty" yaml:"dir,omitempty"`
	OCILayout OCILayout `json:"ociLayout,omitempty" yaml:"ociLayout,omitempty"`
	OCIImage  OCIImage  `json:"ociImage,omitempty" yaml:"ociImage,omitempty"`
}

// LocalDir is a directory of thin images, for example per-arch build outputs.
// Files that aren't Mach-O images fail the build unless ignored.
type LocalDir struct {
	Path     string   `json:"path" yaml:"path"`
	Ignore   []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`
	MaxFiles int      `json:"maxFiles,omitempty" yaml:"maxFiles,omitempty"`
	MaxSize  string   `json:"maxSize,omitempty" yaml:"maxSize,omitempty"`
}

// OCILayout reads one binary per platform from an image index on disk
type OCILayout struct {
	Path       string `json:"path" yaml:"path"`
	BinaryPath string `json:"binaryPath,omitempty" yaml:"binaryPath,omitempty"`
}

// OCIImage reads one binary per platform from an image index in a registry
type OCIImage struct {
	Ref        string `json:"ref" yaml:"ref"`
	BinaryPath string `json:"binaryPath,omitempty" yaml:"binaryPath,omitempty"`
}

// OCI exports slices as a multi-platform image, to a layout dir and/or a registry
type OCI struct {
	Layout string `json:"layout,omitempty" yaml:"layout,omitempty"`
	Tag    string `json:"tag,omitempty" yaml:"tag,omitempty"`
	// BinaryPath is the path in each image, default /app
	BinaryPath string `json:"binaryPath,omitempty" yaml:"binaryPath,omitempty"`
	// Env is KEY=VALUE entries for each image config, $PATH defaults to /usr/bin
	Env []string `json:"env,omitempty" yaml:"env,omitempty"`
}

func (o OCI) Enabled() bool {
	return o.Layout != "" || o.Tag != ""
}

func (i Input) IsZero() bool {
	return i.Path == "" && i.Dir.Path == "" && i.OCILayout.Path == "" && i.OCIImage.Ref == ""
}
