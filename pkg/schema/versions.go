package schema

import (
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	v1 "github.com/turbokube/fatmacho/pkg/schema/v1"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"
)

// Fs is where configs and local inputs are read from
var Fs = afero.NewOsFs()

// Stdin backs the config path "-"
var Stdin io.Reader = os.Stdin

var (
	stdinOnce sync.Once
	stdinData []byte
	stdinErr  error
)

// ParseConfig reads a fatmacho.yaml, rejecting unknown keys
func ParseConfig(filename string) (v1.FatConfig, error) {
	src, err := ReadConfiguration(filename)
	if err != nil {
		return v1.FatConfig{}, fmt.Errorf("read fatmacho config: %w", err)
	}
	var config v1.FatConfig
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	// an empty document is an empty config
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return v1.FatConfig{}, fmt.Errorf("parse fatmacho config: %w", err)
	}
	sha := sha256.Sum256(src)
	sum := md5.Sum(src)
	config.Status = v1.FatConfigStatus{
		Sha256: hex.EncodeToString(sha[:]),
		Md5:    hex.EncodeToString(sum[:]),
	}
	zap.L().Debug("config",
		zap.String("path", filename),
		zap.Int("inputs", len(config.Inputs)),
		zap.String("sha256", config.Status.Sha256),
	)
	return config, nil
}

// ReadConfiguration reads a config file, or stdin for "-"
func ReadConfiguration(filePath string) ([]byte, error) {
	switch filePath {
	case "":
		return nil, errors.New("filename not specified")
	case "-":
		stdinOnce.Do(func() {
			stdinData, stdinErr = io.ReadAll(Stdin)
		})
		return stdinData, stdinErr
	}
	return ReadFile(filePath)
}

// ReadFile resolves filename against the working directory, which -C may have changed
func ReadFile(filename string) ([]byte, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		zap.L().Error("absolute path", zap.String("path", filename), zap.Error(err))
		return nil, err
	}
	return afero.ReadFile(Fs, abs)
}
