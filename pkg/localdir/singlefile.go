package localdir

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// SingleFile reads one input file, with maxSize 0 meaning no limit
func SingleFile(fsys afero.Fs, path string, maxSize int) (File, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("expected a file, got a directory: %s", path)
	}
	if maxSize > 0 && info.Size() > int64(maxSize) {
		return File{}, fmt.Errorf("file size %d exceeds max size: %d", info.Size(), maxSize)
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return File{}, err
	}
	return File{
		Path: filepath.Base(path),
		Data: data,
		Mode: info.Mode(),
	}, nil
}
