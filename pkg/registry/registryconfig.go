package registry

import (
	"strings"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"go.uber.org/zap"
)

const userAgent = "fatmacho"

// RegistryConfig is how a build reaches the registries it pulls from and pushes to
type RegistryConfig struct {
	CraneOptions crane.Options
}

// New returns options for the refs that a build reads or pushes,
// insecure if any of them is at a .local host
func New(refs ...string) (*RegistryConfig, error) {
	opts := crane.Options{Keychain: authn.DefaultKeychain}
	opts.Remote = []remote.Option{
		remote.WithAuthFromKeychain(opts.Keychain),
		remote.WithUserAgent(userAgent),
	}
	if host, ok := localHost(refs); ok {
		zap.L().Debug("insecure access enabled", zap.String("host", host))
		crane.Insecure(&opts)
	}
	return &RegistryConfig{CraneOptions: opts}, nil
}

// localHost finds the first ref at an mDNS host.
// Unparseable refs are skipped, they fail where they are used.
func localHost(refs []string) (string, bool) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		r, err := name.ParseReference(ref)
		if err != nil {
			continue
		}
		host := r.Context().RegistryStr()
		hostname, _, _ := strings.Cut(host, ":")
		if strings.HasSuffix(hostname, ".local") {
			return host, true
		}
	}
	return "", false
}
