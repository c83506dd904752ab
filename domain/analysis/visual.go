package analysis

import (
	"fmt"
	"os"
)

// SaveVisualReport writes the analysis visual artifacts into dir. A missing
// directory is created together with its parents. When clean is set an
// existing directory is removed wholesale and recreated empty first;
// otherwise existing files are kept and same-named artifacts overwritten.
func SaveVisualReport(a Analysis, dir string, clean bool) error {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	case err != nil:
		return err
	case !info.IsDir():
		return fmt.Errorf("visual report path %s is not a directory", dir)
	case clean:
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return a.WriteVisualReport(dir)
}
