// Package discover turns command-line arguments into an ordered list of
// image paths.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/aliskhannn/image-filter/internal/codec"
)

// Expand resolves args in order. Files are kept as given, even when they do
// not exist or have an unsupported extension, so the batch can report them.
// Directories are walked recursively and contribute their supported images
// sorted lexicographically. Duplicates are preserved.
func Expand(args []string) ([]string, error) {
	var paths []string

	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil || !fi.IsDir() {
			paths = append(paths, arg)
			continue
		}

		found, err := walk(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
		paths = append(paths, found...)
	}

	return paths, nil
}

func walk(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if codec.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	return files, nil
}
