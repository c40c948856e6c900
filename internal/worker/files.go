package worker

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// enumerateFiles walks root and returns the files the job still has to
// process: supported extension, not hidden, not already in the ledger.
// WalkDir visits entries in lexical order, so the result is deterministic.
func enumerateFiles(root string, recursive bool, exts []string, exclude map[string]struct{}) ([]string, error) {
	extSet := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		extSet[strings.ToLower(ext)] = struct{}{}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		hidden := strings.HasPrefix(name, ".") && path != root

		if d.IsDir() {
			if hidden {
				return filepath.SkipDir
			}
			if !recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if hidden {
			return nil
		}
		if _, ok := extSet[strings.ToLower(filepath.Ext(name))]; !ok {
			return nil
		}
		if _, done := exclude[path]; done {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
