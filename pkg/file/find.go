package file

import (
	"io/fs"
	"path/filepath"
	"sort"
	"time"
)

// FindRecentAfter walks dir and returns the regular files modified after
// startTime that satisfy match (nil matches everything), sorted by path.
func FindRecentAfter(dir string, startTime time.Time, match func(path string) bool) ([]string, error) {
	var recentFiles []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if match != nil && !match(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() && info.ModTime().After(startTime) {
			recentFiles = append(recentFiles, path)
		}
		return nil
	})

	sort.Strings(recentFiles)
	return recentFiles, err
}
