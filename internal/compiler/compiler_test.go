package compiler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cuelang.org/go/cue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cuetest/internal/ir"
)

type fixedIDs string

func (f fixedIDs) Generate() string { return string(f) }

func generating(name, file, content string) ProcessorFunc {
	return ProcessorFunc{ID: name, Fn: func(ctx context.Context, r *Round) error {
		if r.Number() == 1 {
			return r.Filer().Create(file, content)
		}
		return nil
	}}
}

func TestCompileSucceedsWithoutProcessors(t *testing.T) {
	c := New(WithIDGenerator(fixedIDs("compile-1")))

	comp, err := c.Compile(context.Background(), ir.FromString("HelloWorld", "#HelloWorld: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, "compile-1", comp.ID())
	assert.Equal(t, ir.StatusSucceeded, comp.Status())
	assert.Empty(t, comp.Diagnostics())
	assert.Empty(t, comp.Generated())
}

func TestCompileSyntaxError(t *testing.T) {
	src := ir.FromString("Broken", "a: 1\nb: {\n")

	comp, err := New().Compile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, ir.StatusFailed, comp.Status())
	require.NotEmpty(t, comp.Errors())
	d := comp.Errors()[0]
	assert.Contains(t, d.Message, "expected")
	assert.Equal(t, "Broken.cue", d.Source)
	assert.Greater(t, d.Line, 0)
}

func TestCompileParseErrorSkipsProcessors(t *testing.T) {
	noop := ProcessorFunc{ID: "noop", Fn: func(context.Context, *Round) error { return nil }}

	comp, err := New(WithProcessors(noop)).Compile(context.Background(), ir.FromString("Broken", "a: {"))
	require.NoError(t, err)

	run, ok := comp.ProcessorRun("noop")
	require.True(t, ok)
	assert.False(t, run.Invoked())
	assert.False(t, comp.Succeeded())
}

func TestCompileEvaluationError(t *testing.T) {
	src := ir.FromString("Conflict", "a: 1\na: 2\n")

	comp, err := New().Compile(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, comp.Errors(), 1)
	d := comp.Errors()[0]
	assert.Contains(t, d.Message, "conflicting values")
	assert.Equal(t, "Conflict.cue", d.Source)
}

func TestCompileConcreteOption(t *testing.T) {
	src := ir.FromString("Schema", "a: int\n")

	comp, err := New().Compile(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, comp.Succeeded())

	comp, err = New(WithOptions(OptionConcrete)).Compile(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, comp.Succeeded())
	assert.Contains(t, comp.Errors()[0].Message, "incomplete")
}

func TestCompileGeneratedSource(t *testing.T) {
	gen := generating("gen", "Blah", "#Blah: {}\n")

	comp, err := New(WithProcessors(gen)).Compile(context.Background(), ir.FromString("Input", "x: 1\n"))
	require.NoError(t, err)

	assert.True(t, comp.Succeeded())
	src, ok := comp.GeneratedSource("Blah")
	require.True(t, ok)
	assert.Equal(t, ir.OriginGenerated, src.Origin)
	assert.Equal(t, "#Blah: {}\n", src.Content)

	run, ok := comp.ProcessorRun("gen")
	require.True(t, ok)
	assert.Equal(t, 2, run.Rounds, "the generated file triggers a second round")
	assert.Equal(t, []string{"Blah"}, run.Generated)
}

func TestCompileGeneratedFileTakesPartInEvaluation(t *testing.T) {
	gen := generating("gen", "Limits", "x: <10\n")

	comp, err := New(WithProcessors(gen)).Compile(context.Background(), ir.FromString("Input", "x: 20\n"))
	require.NoError(t, err)

	assert.False(t, comp.Succeeded())
	assert.Contains(t, comp.Errors()[0].Message, "invalid value 20")
}

func TestCompileGeneratedParseError(t *testing.T) {
	gen := generating("gen", "Bad", "x: {\n")

	comp, err := New(WithProcessors(gen)).Compile(context.Background(), ir.FromString("Input", "y: 1\n"))
	require.NoError(t, err)

	assert.False(t, comp.Succeeded())
	assert.Equal(t, "Bad.cue", comp.Errors()[0].Source)
	_, ok := comp.GeneratedSource("Bad")
	assert.True(t, ok)
}

func TestCompileRecreateFile(t *testing.T) {
	var createErr error
	p := ProcessorFunc{ID: "dup", Fn: func(ctx context.Context, r *Round) error {
		if r.Number() == 1 {
			createErr = r.Filer().Create("Input", "z: 1\n")
		}
		return nil
	}}

	comp, err := New(WithProcessors(p)).Compile(context.Background(), ir.FromString("Input", "y: 1\n"))
	require.NoError(t, err)

	var exists *FileExistsError
	require.True(t, errors.As(createErr, &exists))
	assert.Equal(t, "Input", exists.Name)
	assert.False(t, comp.Succeeded())
	assert.Contains(t, comp.Errors()[0].Message, "attempt to recreate a file")
}

func TestCompileProcessorErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	p := ProcessorFunc{ID: "crash", Fn: func(context.Context, *Round) error { return boom }}

	comp, err := New(WithProcessors(p)).Compile(context.Background(), ir.FromString("Input", "y: 1\n"))
	require.Error(t, err)
	assert.Nil(t, comp)

	assert.ErrorIs(t, err, boom)
	var procErr *ProcessorError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "crash", procErr.Processor)
	assert.Equal(t, 1, procErr.Round)
}

func TestCompileProcessorPanicIsNotRecovered(t *testing.T) {
	p := ProcessorFunc{ID: "panic", Fn: func(context.Context, *Round) error { panic("processor bug") }}

	assert.PanicsWithValue(t, "processor bug", func() {
		_, _ = New(WithProcessors(p)).Compile(context.Background(), ir.FromString("Input", "y: 1\n"))
	})
}

func TestCompileMessager(t *testing.T) {
	p := ProcessorFunc{ID: "report", Fn: func(ctx context.Context, r *Round) error {
		for _, f := range r.Files() {
			r.Messager().PrintAt(ir.KindWarning, "look here", f.Decls[0].Pos())
		}
		r.Messager().Print(ir.KindNote, "done")
		return nil
	}}

	comp, err := New(WithProcessors(p)).Compile(context.Background(), ir.FromString("Input", "y: 1\n"))
	require.NoError(t, err)

	require.Len(t, comp.Diagnostics(), 2)
	assert.Equal(t, ir.Diagnostic{Kind: ir.KindWarning, Message: "look here", Source: "Input.cue", Line: 1, Column: 1}, comp.Diagnostics()[0])
	assert.Equal(t, ir.Diagnostic{Kind: ir.KindNote, Message: "done"}, comp.Diagnostics()[1])
	assert.True(t, comp.Succeeded())

	run, _ := comp.ProcessorRun("report")
	assert.Equal(t, 2, run.Diagnostics)
}

func TestCompileWerror(t *testing.T) {
	p := ProcessorFunc{ID: "warn", Fn: func(ctx context.Context, r *Round) error {
		r.Messager().Print(ir.KindWarning, "careful")
		return nil
	}}
	c := New(WithProcessors(p))

	comp, err := c.Compile(context.Background(), ir.FromString("Input", "y: 1\n"))
	require.NoError(t, err)
	assert.True(t, comp.Succeeded())

	comp, err = c.WithOptions(OptionWerror).Compile(context.Background(), ir.FromString("Input", "y: 1\n"))
	require.NoError(t, err)
	assert.False(t, comp.Succeeded())
	assert.Equal(t, "warnings found and -Werror specified", comp.Errors()[0].Message)
}

func TestCompileProcNone(t *testing.T) {
	gen := generating("gen", "Blah", "#Blah: {}\n")

	comp, err := New(WithProcessors(gen), WithOptions(OptionProcNone)).Compile(context.Background(), ir.FromString("Input", "y: 1\n"))
	require.NoError(t, err)

	assert.Empty(t, comp.Generated())
	run, _ := comp.ProcessorRun("gen")
	assert.False(t, run.Invoked())
}

func TestCompileProcessorOptions(t *testing.T) {
	var got []string
	p := ProcessorFunc{ID: "opts", Fn: func(ctx context.Context, r *Round) error {
		mode, _ := r.Option("mode")
		_, flag := r.Option("flag")
		got = append(got, mode, fmt.Sprint(flag))
		got = append(got, r.OptionKeys()...)
		return nil
	}}

	_, err := New(WithProcessors(p), WithOptions("-Amode=strict", "-Aflag")).Compile(context.Background(), ir.FromString("Input", "y: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"strict", "true", "flag", "mode"}, got)
}

func TestCompileInvalidOptions(t *testing.T) {
	tests := []string{"-Xlint", "-A", "-A=value", "-Aa..b", "-Ab c"}
	for _, opt := range tests {
		t.Run(opt, func(t *testing.T) {
			_, err := New(WithOptions(opt)).Compile(context.Background(), ir.FromString("Input", "y: 1\n"))
			var optErr *OptionError
			require.True(t, errors.As(err, &optErr))
			assert.Equal(t, opt, optErr.Option)
		})
	}
}

func TestCompileMaxRounds(t *testing.T) {
	p := ProcessorFunc{ID: "forever", Fn: func(ctx context.Context, r *Round) error {
		return r.Filer().Create(fmt.Sprintf("Gen%d", r.Number()), fmt.Sprintf("g%d: 1\n", r.Number()))
	}}

	comp, err := New(WithProcessors(p), WithMaxRounds(3)).Compile(context.Background(), ir.FromString("Input", "y: 1\n"))
	require.NoError(t, err)

	assert.False(t, comp.Succeeded())
	assert.Equal(t, "processing did not finish after 3 rounds", comp.Errors()[0].Message)
	assert.Equal(t, []string{"Gen1", "Gen2", "Gen3"}, comp.GeneratedNames())
}

func TestCompileCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	noop := ProcessorFunc{ID: "noop", Fn: func(context.Context, *Round) error { return nil }}

	_, err := New(WithProcessors(noop)).Compile(ctx, ir.FromString("Input", "y: 1\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompileDuplicateInputs(t *testing.T) {
	_, err := New().Compile(context.Background(),
		ir.FromString("A", "x: 1\n"),
		ir.FromString("A.cue", "y: 1\n"))

	var dup *DuplicateInputError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "A.cue", dup.Name)
}

func TestCompileMultipleFilesSamePackage(t *testing.T) {
	comp, err := New().Compile(context.Background(),
		ir.FromString("a", "package demo\n\nx: y + 1\n"),
		ir.FromString("b", "package demo\n\ny: 2\n"))
	require.NoError(t, err)
	assert.True(t, comp.Succeeded(), "%v", comp.Diagnostics())
}

func TestCompilePackageConflict(t *testing.T) {
	comp, err := New().Compile(context.Background(),
		ir.FromString("a", "package one\n"),
		ir.FromString("b", "package two\n"))
	require.NoError(t, err)

	assert.False(t, comp.Succeeded())
	assert.Contains(t, comp.Errors()[0].Message, "conflicts with previous package name")
}

func TestWithMethodsCopy(t *testing.T) {
	noop := ProcessorFunc{ID: "noop", Fn: func(context.Context, *Round) error { return nil }}
	base := New(WithOptions("-Werror"))
	derived := base.WithProcessors(noop).WithOptions("-concrete")

	assert.Empty(t, base.Processors())
	assert.Equal(t, []string{"-Werror"}, base.Options())
	assert.Equal(t, []string{"noop"}, derived.Processors())
	assert.Equal(t, []string{"-concrete"}, derived.Options())
}

func TestRoundRecorder(t *testing.T) {
	r, rec := NewRound(1, nil, cue.Value{}, map[string]string{"k": "v"})

	require.NoError(t, r.Filer().Create("A", "a: 1"))
	var exists *FileExistsError
	assert.True(t, errors.As(r.Filer().Create("A", "a: 2"), &exists))
	assert.True(t, errors.As(r.Filer().Create("A.cue", "a: 3"), &exists), "A and A.cue name the same file")
	r.Messager().Print(ir.KindNote, "hi")

	assert.Len(t, rec.Generated, 1)
	assert.Equal(t, []ir.Diagnostic{{Kind: ir.KindNote, Message: "hi"}}, rec.Diagnostics)
	v, ok := r.Option("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
