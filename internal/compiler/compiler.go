package compiler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/build"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/parser"
	"cuelang.org/go/cue/token"

	"github.com/roach88/cuetest/internal/ir"
)

// DefaultMaxRounds bounds the number of processing rounds. A compilation
// whose processors are still generating files after this many rounds fails.
const DefaultMaxRounds = 16

// Compiler compiles CUE sources with a set of processors.
//
// A Compiler is immutable once built and safe for concurrent use; every
// Compile call works on its own state.
type Compiler struct {
	processors []Processor
	options    []string
	logger     *slog.Logger
	ids        IDGenerator
	maxRounds  int
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithProcessors sets the processors, invoked in the given order.
func WithProcessors(processors ...Processor) Option {
	return func(c *Compiler) {
		c.processors = slices.Clone(processors)
	}
}

// WithOptions sets the compiler option strings.
func WithOptions(opts ...string) Option {
	return func(c *Compiler) {
		c.options = slices.Clone(opts)
	}
}

// WithLogger sets the logger. The default discards all records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIDGenerator sets the compilation ID source.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Compiler) {
		if g != nil {
			c.ids = g
		}
	}
}

// WithMaxRounds sets the round limit. Values below 1 are ignored.
func WithMaxRounds(n int) Option {
	return func(c *Compiler) {
		if n > 0 {
			c.maxRounds = n
		}
	}
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:       UUIDv7Generator{},
		maxRounds: DefaultMaxRounds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Compiler) clone() *Compiler {
	cp := *c
	cp.processors = slices.Clone(c.processors)
	cp.options = slices.Clone(c.options)
	return &cp
}

// WithProcessors returns a copy of c using the given processors.
func (c *Compiler) WithProcessors(processors ...Processor) *Compiler {
	cp := c.clone()
	cp.processors = slices.Clone(processors)
	return cp
}

// WithOptions returns a copy of c using the given option strings.
func (c *Compiler) WithOptions(opts ...string) *Compiler {
	cp := c.clone()
	cp.options = slices.Clone(opts)
	return cp
}

// Processors returns the configured processor names in invocation order.
func (c *Compiler) Processors() []string {
	names := make([]string, len(c.processors))
	for i, p := range c.processors {
		names[i] = p.Name()
	}
	return names
}

// Options returns the configured option strings.
func (c *Compiler) Options() []string { return slices.Clone(c.options) }

// DuplicateInputError is returned when two inputs map to the same filename.
type DuplicateInputError struct {
	Name string
}

func (e *DuplicateInputError) Error() string {
	return fmt.Sprintf("duplicate input source %q", e.Name)
}

// Compile parses sources, runs the processors in rounds and evaluates the
// resulting instance.
//
// Problems in the sources are reported as diagnostics on the returned
// compilation. Compile returns an error only when the compilation could
// not be carried out: an invalid option (*OptionError), duplicate inputs,
// a processor error (*ProcessorError) or a cancelled context.
func (c *Compiler) Compile(ctx context.Context, sources ...ir.Source) (*ir.Compilation, error) {
	st, err := parseOptions(c.options)
	if err != nil {
		return nil, err
	}

	id := c.ids.Generate()
	s := &session{
		compiler: c,
		settings: st,
		logger:   c.logger.With("compilation", id),
		cuectx:   cuecontext.New(),
		names:    make(map[string]bool),
		runs:     make([]ir.ProcessorRun, len(c.processors)),
	}
	for i, p := range c.processors {
		s.runs[i] = ir.ProcessorRun{Processor: p.Name()}
	}

	for _, src := range sources {
		name := src.Filename()
		if s.names[name] {
			return nil, &DuplicateInputError{Name: name}
		}
		s.names[name] = true
	}
	s.inputs = slices.Clone(sources)

	s.logger.Debug("compile starting",
		"sources", len(sources),
		"processors", c.Processors(),
		"options", c.options)

	if s.parseInputs() {
		if !st.procNone && len(c.processors) > 0 {
			if err := s.process(ctx); err != nil {
				return nil, err
			}
		}
		s.evaluate()
	}

	if st.werror && s.count(ir.KindWarning) > 0 {
		s.report(ir.Diagnostic{Kind: ir.KindError, Message: "warnings found and -Werror specified"})
	}

	comp, err := ir.NewCompilation(id, s.inputs, s.diags, s.generated, s.runs)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	s.logger.Debug("compile finished",
		"status", comp.Status().String(),
		"diagnostics", len(s.diags),
		"generated", len(s.generated))

	return comp, nil
}

// session holds the mutable state of one Compile call.
type session struct {
	compiler *Compiler
	settings settings
	logger   *slog.Logger
	cuectx   *cue.Context

	inputs    []ir.Source
	generated []ir.Source
	// compiled lists the sources that take part in evaluation: every input
	// and every generated file that parsed.
	compiled []ir.Source
	// pending holds files created in the current round.
	pending []ir.Source
	names   map[string]bool

	diags []ir.Diagnostic
	runs  []ir.ProcessorRun
}

func (s *session) report(d ir.Diagnostic) {
	s.diags = append(s.diags, d)
}

func (s *session) count(kind ir.Kind) int {
	n := 0
	for _, d := range s.diags {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

func parseSource(src ir.Source) (*ast.File, error) {
	return parser.ParseFile(src.Filename(), src.Content, parser.ParseComments, parser.AllErrors)
}

// parseInputs reports parse errors of the inputs and returns whether all
// of them parsed.
func (s *session) parseInputs() bool {
	ok := true
	for _, src := range s.inputs {
		if _, err := parseSource(src); err != nil {
			s.diags = append(s.diags, diagnosticsFromError(ir.KindError, err)...)
			ok = false
			continue
		}
		s.compiled = append(s.compiled, src)
	}
	return ok
}

// parseCompiled parses every compiled source. The sources are known to
// parse; a fresh AST is produced per call because building an instance
// annotates the syntax tree.
func (s *session) parseCompiled() ([]*ast.File, error) {
	files := make([]*ast.File, 0, len(s.compiled))
	for _, src := range s.compiled {
		f, err := parseSource(src)
		if err != nil {
			return nil, fmt.Errorf("reparse %s: %w", src.Filename(), err)
		}
		files = append(files, f)
	}
	return files, nil
}

func (s *session) build(files []*ast.File) (cue.Value, error) {
	inst := build.NewContext().NewInstance("", nil)
	for _, f := range files {
		if err := inst.AddSyntax(f); err != nil {
			return cue.Value{}, err
		}
	}
	v := s.cuectx.BuildInstance(inst)
	return v, v.Err()
}

func packageName(files []*ast.File) string {
	for _, f := range files {
		if name := f.PackageName(); name != "" {
			return name
		}
	}
	return ""
}

// process runs the processor rounds until a round creates no files.
func (s *session) process(ctx context.Context) error {
	fresh := len(s.compiled)
	for round := 1; fresh > 0; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if round > s.compiler.maxRounds {
			s.report(ir.Diagnostic{
				Kind:    ir.KindError,
				Message: fmt.Sprintf("processing did not finish after %d rounds", s.compiler.maxRounds),
			})
			return nil
		}

		files, err := s.parseCompiled()
		if err != nil {
			return err
		}
		// Build errors surface through Value; they are reported once by
		// the final evaluation.
		value, _ := s.build(files)
		newFiles := files[len(files)-fresh:]

		s.logger.Debug("round starting", "round", round, "files", len(newFiles))

		for i, p := range s.compiler.processors {
			sink := &processorSink{session: s, run: &s.runs[i]}
			r := &Round{
				number:   round,
				pkg:      packageName(files),
				files:    newFiles,
				all:      files,
				value:    value,
				options:  s.settings.processor,
				messager: sink,
				filer:    sink,
			}
			if err := p.Process(ctx, r); err != nil {
				s.logger.Debug("processor failed", "processor", p.Name(), "round", round, "error", err)
				return &ProcessorError{Processor: p.Name(), Round: round, Err: err}
			}
			s.runs[i].Rounds++
		}

		fresh = s.flushPending()
		s.logger.Debug("round finished", "round", round, "generated", fresh)
	}
	return nil
}

// flushPending moves the files created in this round to the generated
// set. Files that fail to parse are kept as generated output but take no
// part in later rounds. It returns the number of files added to the
// compiled set.
func (s *session) flushPending() int {
	n := 0
	for _, src := range s.pending {
		s.generated = append(s.generated, src)
		if _, err := parseSource(src); err != nil {
			s.diags = append(s.diags, diagnosticsFromError(ir.KindError, err)...)
			continue
		}
		s.compiled = append(s.compiled, src)
		n++
	}
	s.pending = nil
	return n
}

// evaluate builds the final instance and reports evaluation errors.
func (s *session) evaluate() {
	files, err := s.parseCompiled()
	if err != nil {
		s.report(ir.Diagnostic{Kind: ir.KindError, Message: err.Error()})
		return
	}
	if len(files) == 0 {
		return
	}

	v, err := s.build(files)
	if err == nil {
		var opts []cue.Option
		if s.settings.concrete {
			opts = append(opts, cue.Concrete(true))
		}
		err = v.Validate(opts...)
	}
	s.diags = append(s.diags, diagnosticsFromError(ir.KindError, err)...)
}

// processorSink is the Messager and Filer handed to one processor. It
// records the processor's activity in its ProcessorRun.
type processorSink struct {
	session *session
	run     *ir.ProcessorRun
}

func (p *processorSink) Print(kind ir.Kind, msg string) {
	p.PrintAt(kind, msg, token.NoPos)
}

func (p *processorSink) PrintAt(kind ir.Kind, msg string, pos token.Pos) {
	p.session.report(diagnosticAt(kind, msg, pos))
	p.run.Diagnostics++
}

func (p *processorSink) Create(name, content string) error {
	if name == "" {
		return fmt.Errorf("generated file name must not be empty")
	}
	src := ir.Generated(name, content)
	filename := src.Filename()
	if p.session.names[filename] {
		err := &FileExistsError{Name: name}
		p.PrintAt(ir.KindError, err.Error(), token.NoPos)
		return err
	}
	p.session.names[filename] = true
	p.session.pending = append(p.session.pending, src)
	p.run.Generated = append(p.run.Generated, name)

	p.session.logger.Debug("file generated", "processor", p.run.Processor, "name", name)
	return nil
}
