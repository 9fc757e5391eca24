package localdir

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/moby/patternmatcher"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// File is a candidate slice read from disk
type File struct {
	// Path is relative to Dir.Path
	Path string
	Data []byte
	Mode fs.FileMode
}

type Dir struct {
	Fs       afero.Fs
	Path     string
	Ignore   *patternmatcher.PatternMatcher
	MaxFiles int
	MaxSize  int
}

// FromFilesystem reads every regular file under dir.Path in lexical order.
// Symlinks and other special files are skipped.
func FromFilesystem(dir Dir) ([]File, error) {

	if dir.Path == "" {
		return nil, fmt.Errorf("dir path must be specified (use . for CWD)")
	}

	if dir.Fs == nil {
		dir.Fs = afero.NewOsFs()
	}

	if dir.Ignore == nil {
		dir.Ignore, _ = patternmatcher.New([]string{})
	}

	bytesTotal := 0
	files := []File{}

	err := afero.Walk(dir.Fs, dir.Path, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir.Path, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		ignore, err := dir.Ignore.MatchesOrParentMatches(rel)
		if err != nil {
			return err
		}
		if ignore {
			zap.L().Debug("ignored", zap.String("path", rel))
			return nil
		}
		if !info.Mode().IsRegular() {
			zap.L().Debug("not a regular file", zap.String("path", rel), zap.Stringer("mode", info.Mode()))
			return nil
		}
		if dir.MaxFiles > 0 && len(files) >= dir.MaxFiles {
			return fmt.Errorf("number of files exceeds max from input config: %d", dir.MaxFiles)
		}
		data, err := afero.ReadFile(dir.Fs, path)
		if err != nil {
			return err
		}
		bytesTotal = bytesTotal + len(data)
		if dir.MaxSize > 0 && bytesTotal > dir.MaxSize {
			return fmt.Errorf("accumulated file size %d exceeds max size from input config: %d", bytesTotal, dir.MaxSize)
		}
		files = append(files, File{
			Path: rel,
			Data: data,
			Mode: info.Mode(),
		})
		zap.L().Debug("added",
			zap.String("path", rel),
			zap.Int("size", len(data)),
		)

		return nil
	})

	if err != nil {
		zap.L().Error("dir read failed", zap.String("dir", dir.Path), zap.Int("files", len(files)), zap.Int("bytes", bytesTotal), zap.Error(err))
		return nil, err
	}
	zap.L().Info("dir read", zap.String("dir", dir.Path), zap.Int("files", len(files)), zap.Int("bytes", bytesTotal))

	if len(files) == 0 {
		return nil, fmt.Errorf("dir resulted in no inputs: %s", dir.Path)
	}

	return files, nil

}
