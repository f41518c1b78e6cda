package ir

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// DefaultExtension is appended to source names that have none when the
// source is handed to the compiler.
const DefaultExtension = ".cue"

// Source is a named unit of source text.
type Source struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Origin  Origin `json:"origin"`
}

// FromString creates an inline source.
func FromString(name, content string) Source {
	return Source{Name: name, Content: content, Origin: OriginInline}
}

// Generated creates a source produced by a processor during compilation.
func Generated(name, content string) Source {
	return Source{Name: name, Content: content, Origin: OriginGenerated}
}

// FromResource reads name from fsys. Typical file systems are embed.FS
// values and os.DirFS("testdata").
func FromResource(fsys fs.FS, name string) (Source, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Source{}, fmt.Errorf("read resource %s: %w", name, err)
	}
	return Source{Name: name, Content: string(data), Origin: OriginResource}, nil
}

// MustFromResource is like FromResource but panics on error.
// Use only in tests or when the resource is known to exist.
func MustFromResource(fsys fs.FS, name string) Source {
	src, err := FromResource(fsys, name)
	if err != nil {
		panic(err)
	}
	return src
}

// FromFile reads a source from the local file system. The source is named
// by the file's base name.
func FromFile(p string) (Source, error) {
	return FromResource(os.DirFS(filepath.Dir(p)), filepath.Base(p))
}

// Filename is the identity the compiler uses in positions and the value
// diagnostics carry in their Source field.
func (s Source) Filename() string {
	if path.Ext(s.Name) == "" {
		return s.Name + DefaultExtension
	}
	return s.Name
}

// Hash returns the domain-separated content hash of the source text.
func (s Source) Hash() string {
	return hashWithDomain(DomainSource, []byte(s.Content))
}
