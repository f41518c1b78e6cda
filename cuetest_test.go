package cuetest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cuetest"
)

func TestAssertThat_GeneratedSource(t *testing.T) {
	blah := cuetest.ProcessorFunc{ID: "blah", Fn: func(ctx context.Context, r *cuetest.Round) error {
		if r.Number() != 1 {
			return nil
		}
		return r.Filer().Create("Blah", "#Blah: {}")
	}}

	comp, err := cuetest.Compile(t.Context(),
		[]cuetest.Source{cuetest.FromString("HelloWorld", "hello: \"world\"\n")},
		cuetest.WithProcessors(blah),
	)
	require.NoError(t, err)

	cuetest.AssertThat(t, comp).
		SucceededWithoutWarnings().
		GeneratedSourceEquivalentTo(cuetest.FromString("Blah", "// a comment\n#Blah:   {}\n"))

	run, ok := comp.ProcessorRun("blah")
	require.True(t, ok)
	assert.True(t, run.Invoked())
}

func TestAssertThat_Builtin(t *testing.T) {
	deprecated, ok := cuetest.Builtin("deprecated")
	require.True(t, ok)

	comp, err := cuetest.Compile(t.Context(),
		[]cuetest.Source{cuetest.FromString("Config", "a: int\nport: int @deprecated(\"use listen\")\n")},
		cuetest.WithProcessors(deprecated),
	)
	require.NoError(t, err)

	cuetest.AssertThat(t, comp).
		Succeeded().
		HadWarningCount(1).
		HadWarningContaining("use listen").In("Config").OnLine(2)
}

func TestThat_Collector(t *testing.T) {
	comp, err := cuetest.Compile(t.Context(), []cuetest.Source{cuetest.FromString("Broken", "a: {\n")})
	require.NoError(t, err)

	col := cuetest.NewCollector()
	cuetest.That(comp, col).Succeeded()

	require.True(t, col.Failed())
	var assertErr *cuetest.AssertionError
	assert.True(t, errors.As(col.Err(), &assertErr))
}

func TestCompile_ProcessorErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	failing := cuetest.ProcessorFunc{ID: "failing", Fn: func(context.Context, *cuetest.Round) error {
		return boom
	}}

	_, err := cuetest.Compile(t.Context(),
		[]cuetest.Source{cuetest.FromString("A", "a: 1")},
		cuetest.WithProcessors(failing),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var procErr *cuetest.ProcessorError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "failing", procErr.Processor)
}
