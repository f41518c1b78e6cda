package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/roach88/cuetest/internal/ir"
)

// SourceError is a problem locating or reading input sources.
type SourceError struct {
	Code    string
	Message string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FindCUEFiles returns the .cue files under dir, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// LoadSources reads every path. Files are named by their base name;
// files found in a directory are named by their path relative to it.
func LoadSources(paths []string) ([]ir.Source, error) {
	var sources []ir.Source
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, &SourceError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", p)}
		}

		if !info.IsDir() {
			src, err := ir.FromFile(p)
			if err != nil {
				return nil, &SourceError{Code: ErrCodeGeneric, Message: err.Error()}
			}
			sources = append(sources, src)
			continue
		}

		files, err := FindCUEFiles(p)
		if err != nil {
			return nil, &SourceError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(files) == 0 {
			return nil, &SourceError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", p)}
		}
		fsys := os.DirFS(p)
		for _, f := range files {
			rel, err := filepath.Rel(p, f)
			if err != nil {
				return nil, &SourceError{Code: ErrCodeScanError, Message: err.Error()}
			}
			src, err := ir.FromResource(fsys, filepath.ToSlash(rel))
			if err != nil {
				return nil, &SourceError{Code: ErrCodeGeneric, Message: err.Error()}
			}
			sources = append(sources, src)
		}
	}
	return sources, nil
}
