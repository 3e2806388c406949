package extract

import (
	"os"
	"path/filepath"
)

// Target is one file queued for feature extraction.
type Target struct {
	Path    string
	RelPath string
	Size    int64
}

// Discover walks root recursively and returns every regular file at or
// above the minimum size, in walk order. Inaccessible entries are
// skipped, not fatal.
func Discover(root string, minSize int64) ([]*Target, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if info.Size() < minSize {
			return nil, nil
		}
		return []*Target{{Path: root, RelPath: filepath.Base(root), Size: info.Size()}}, nil
	}

	var targets []*Target
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible files
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		if info.Size() < minSize {
			return nil
		}
		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			relPath = path
		}
		targets = append(targets, &Target{
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
			Size:    info.Size(),
		})
		return nil
	})
	return targets, err
}
