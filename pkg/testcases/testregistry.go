package testcases

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/distribution/distribution/v3/configuration"
	dcontext "github.com/distribution/distribution/v3/context"
	"github.com/distribution/distribution/v3/registry"
	_ "github.com/distribution/distribution/v3/registry/storage/driver/inmemory"
	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/phayes/freeport"
	"github.com/sirupsen/logrus"
	registryconfig "github.com/turbokube/fatmacho/pkg/registry"
)

const pollInterval = 50 * time.Millisecond

// TestRegistry is an in-memory distribution registry on a free localhost port,
// for tests that push slice indexes or pull them back
type TestRegistry struct {
	// Host is host:port, the prefix of test image refs
	Host   string
	Config registryconfig.RegistryConfig
	server *registry.Registry
}

// StartRegistry returns once the registry answers /v2/.
// ctx bounds the wait, not the registry's lifetime.
func StartRegistry(ctx context.Context) (*TestRegistry, error) {
	dcontext.SetDefaultLogger(quietLogger())
	port, err := freeport.GetFreePort()
	if err != nil {
		return nil, fmt.Errorf("free port: %w", err)
	}
	config := &configuration.Configuration{}
	config.Log.AccessLog.Disabled = true
	config.Log.Level = "error"
	config.HTTP.Addr = fmt.Sprintf("127.0.0.1:%d", port)
	config.HTTP.DrainTimeout = 2 * time.Second
	config.Storage = configuration.Storage{"inmemory": configuration.Parameters{}}

	server, err := registry.NewRegistry(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("test registry: %w", err)
	}
	go server.ListenAndServe()

	r := &TestRegistry{
		Host:   fmt.Sprintf("localhost:%d", port),
		Config: registryconfig.RegistryConfig{CraneOptions: crane.Options{}},
		server: server,
	}
	return r, r.ping(ctx)
}

func (r *TestRegistry) ping(ctx context.Context) error {
	url := "http://" + r.Host + "/v2/"
	tick := time.NewTicker(pollInterval)
	defer tick.Stop()
	var last error
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			err = fmt.Errorf("status %d", resp.StatusCode)
		}
		last = err
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s not ready: %w", url, last)
		case <-tick.C:
		}
	}
}

// Stop shuts the server down, dropping everything that was pushed
func (r *TestRegistry) Stop(ctx context.Context) error {
	return r.server.Shutdown(ctx)
}

// quietLogger satisfies distribution's logger with a logrus that writes nowhere and never exits
func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.ExitFunc = func(int) {}
	return logrus.NewEntry(l)
}
