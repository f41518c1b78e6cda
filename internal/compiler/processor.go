package compiler

import (
	"context"
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/token"

	"github.com/roach88/cuetest/internal/ir"
)

// Processor is a pluggable unit invoked once per compilation round. It may
// report diagnostics through the round's Messager and create new source
// files through its Filer; created files are compiled in the next round.
//
// An error returned from Process aborts the compilation and is returned
// from Compile wrapped in a *ProcessorError.
type Processor interface {
	Name() string
	Process(ctx context.Context, r *Round) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc struct {
	ID string
	Fn func(ctx context.Context, r *Round) error
}

func (p ProcessorFunc) Name() string { return p.ID }

func (p ProcessorFunc) Process(ctx context.Context, r *Round) error {
	return p.Fn(ctx, r)
}

// ProcessorError wraps an error returned by a processor. Unwrap exposes the
// original error so errors.Is and errors.As see through it.
type ProcessorError struct {
	Processor string
	Round     int
	Err       error
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor %s failed in round %d: %v", e.Processor, e.Round, e.Err)
}

func (e *ProcessorError) Unwrap() error { return e.Err }

// FileExistsError is returned by Filer.Create when the name is already
// taken by an input or a previously generated file.
type FileExistsError struct {
	Name string
}

func (e *FileExistsError) Error() string {
	return fmt.Sprintf("attempt to recreate a file %q", e.Name)
}

// Messager reports diagnostics on behalf of a processor.
type Messager interface {
	// Print reports a diagnostic that has no source position.
	Print(kind ir.Kind, msg string)
	// PrintAt reports a diagnostic at pos. Invalid positions are treated
	// as Print.
	PrintAt(kind ir.Kind, msg string, pos token.Pos)
}

// Filer creates generated source files.
type Filer interface {
	Create(name, content string) error
}

// Round is the view a processor gets of one compilation round.
type Round struct {
	number   int
	pkg      string
	files    []*ast.File
	all      []*ast.File
	value    cue.Value
	options  map[string]string
	messager Messager
	filer    Filer
}

// Number is the 1-based round number.
func (r *Round) Number() int { return r.number }

// Files returns the files that are new in this round: the inputs in round
// one, the files generated by the previous round after that.
func (r *Round) Files() []*ast.File { return r.files }

// AllFiles returns every file compiled so far.
func (r *Round) AllFiles() []*ast.File { return r.all }

// Package returns the package name shared by the inputs, or "".
func (r *Round) Package() string { return r.pkg }

// Value is the evaluated instance of AllFiles. It may be an error value
// when the files do not unify.
func (r *Round) Value() cue.Value { return r.value }

// Option returns the value of processor option -Akey[=value].
func (r *Round) Option(key string) (string, bool) {
	v, ok := r.options[key]
	return v, ok
}

// OptionKeys returns the processor option keys, sorted.
func (r *Round) OptionKeys() []string {
	keys := make([]string, 0, len(r.options))
	for k := range r.options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Messager returns the diagnostic reporter for this processor.
func (r *Round) Messager() Messager { return r.messager }

// Filer returns the file creator for this processor.
func (r *Round) Filer() Filer { return r.filer }

// NewRound builds a round outside a compilation. It is meant for unit
// tests of processors; messages and files are recorded in the returned
// RoundRecorder.
func NewRound(number int, files []*ast.File, value cue.Value, options map[string]string) (*Round, *RoundRecorder) {
	rec := &RoundRecorder{}
	pkg := ""
	for _, f := range files {
		if name := f.PackageName(); name != "" {
			pkg = name
			break
		}
	}
	return &Round{
		number:   number,
		pkg:      pkg,
		files:    files,
		all:      files,
		value:    value,
		options:  options,
		messager: rec,
		filer:    rec,
	}, rec
}

// RoundRecorder captures what a processor reported in a standalone round.
type RoundRecorder struct {
	Diagnostics []ir.Diagnostic
	Generated   []ir.Source
}

func (r *RoundRecorder) Print(kind ir.Kind, msg string) {
	r.Diagnostics = append(r.Diagnostics, ir.Diagnostic{Kind: kind, Message: msg})
}

func (r *RoundRecorder) PrintAt(kind ir.Kind, msg string, pos token.Pos) {
	r.Diagnostics = append(r.Diagnostics, diagnosticAt(kind, msg, pos))
}

// Create records a generated file. Names collide by file name, so "Blah"
// and "Blah.cue" are the same file, as in a compilation.
func (r *RoundRecorder) Create(name, content string) error {
	created := ir.Generated(name, content)
	for _, src := range r.Generated {
		if src.Filename() == created.Filename() {
			return &FileExistsError{Name: name}
		}
	}
	r.Generated = append(r.Generated, created)
	return nil
}
