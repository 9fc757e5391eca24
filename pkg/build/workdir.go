package build

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

type Chdir struct {
	pwd string
}

// NewChdir changes current working directory to dir, so that config paths resolve relative to it
func NewChdir(dir string) (*Chdir, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	pwd, err := os.Getwd()
	if err != nil {
		zap.L().Error("get cwd", zap.Error(err))
		return nil, err
	}
	if pwd == abs {
		zap.L().Debug("chdir change to current", zap.String("dir", abs))
	}
	if err := os.Chdir(abs); err != nil {
		zap.L().Error("change cwd",
			zap.String("dir", abs),
			zap.Error(err),
		)
		return nil, err
	}
	zap.L().Debug("cwd changed",
		zap.String("to", abs),
		zap.String("from", pwd),
	)
	return &Chdir{
		pwd: pwd,
	}, nil
}

// Cleanup restores working directory based on the result of NewChdir
func (c *Chdir) Cleanup() error {
	if err := os.Chdir(c.pwd); err != nil {
		zap.L().Error("restore cwd",
			zap.String("to", c.pwd),
			zap.Error(err),
		)
		return err
	}
	zap.L().Debug("cwd restored",
		zap.String("dir", c.pwd),
	)
	return nil
}
