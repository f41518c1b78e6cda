package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilationStatusDerivedFromErrors(t *testing.T) {
	tests := []struct {
		name  string
		kinds []Kind
		want  Status
	}{
		{"no diagnostics", nil, StatusSucceeded},
		{"warnings only", []Kind{KindWarning, KindNote}, StatusSucceeded},
		{"other only", []Kind{KindOther}, StatusSucceeded},
		{"one error", []Kind{KindNote, KindError}, StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diags []Diagnostic
			for _, k := range tt.kinds {
				diags = append(diags, Diagnostic{Kind: k, Message: k.String()})
			}
			c, err := NewCompilation("id", nil, diags, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Status())
			assert.Equal(t, tt.want == StatusSucceeded, c.Succeeded())
		})
	}
}

func TestCompilationKeepsEmissionOrder(t *testing.T) {
	diags := []Diagnostic{
		{Kind: KindWarning, Message: "first"},
		{Kind: KindError, Message: "second"},
		{Kind: KindWarning, Message: "third"},
	}
	c, err := NewCompilation("id", nil, diags, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, diags, c.Diagnostics())
	assert.Equal(t, []Diagnostic{diags[0], diags[2]}, c.Warnings())
	assert.Equal(t, []Diagnostic{diags[1]}, c.Errors())
	assert.Empty(t, c.Notes())
}

func TestCompilationIsImmutable(t *testing.T) {
	diags := []Diagnostic{{Kind: KindNote, Message: "n"}}
	runs := []ProcessorRun{{Processor: "gen", Rounds: 1, Generated: []string{"A"}}}
	c, err := NewCompilation("id", nil, diags, nil, runs)
	require.NoError(t, err)

	diags[0].Message = "changed"
	runs[0].Generated[0] = "changed"
	got := c.Diagnostics()
	got[0].Kind = KindError

	assert.Equal(t, "n", c.Diagnostics()[0].Message)
	assert.Equal(t, KindNote, c.Diagnostics()[0].Kind)
	assert.Equal(t, []string{"A"}, c.ProcessorRuns()[0].Generated)
	assert.True(t, c.Succeeded())
}

func TestCompilationRejectsDuplicateGenerated(t *testing.T) {
	_, err := NewCompilation("id", nil, nil, []Source{
		Generated("Blah", "a: 1"),
		Generated("Blah", "a: 2"),
	}, nil)
	require.Error(t, err)

	var dupErr *DuplicateSourceError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "Blah", dupErr.Name)
}

func TestCompilationRejectsInvalidLocation(t *testing.T) {
	_, err := NewCompilation("id", nil, []Diagnostic{{Kind: KindError, Column: 4}}, nil, nil)
	var locErr *InvalidLocationError
	assert.True(t, errors.As(err, &locErr))
}

func TestCompilationSourceLookup(t *testing.T) {
	input := FromString("HelloWorld", "a: 1")
	gen := Generated("Blah", "b: 2")
	c, err := NewCompilation("id", []Source{input}, nil, []Source{gen}, nil)
	require.NoError(t, err)

	src, ok := c.Source("HelloWorld.cue")
	require.True(t, ok)
	assert.Equal(t, input, src)

	src, ok = c.Source("Blah")
	require.True(t, ok)
	assert.Equal(t, gen, src)

	_, ok = c.Source("Nope")
	assert.False(t, ok)

	got, ok := c.GeneratedSource("Blah")
	require.True(t, ok)
	assert.Equal(t, OriginGenerated, got.Origin)
	assert.Equal(t, []string{"Blah"}, c.GeneratedNames())
}

func TestCompilationProcessorRuns(t *testing.T) {
	runs := []ProcessorRun{
		{Processor: "noop", Rounds: 2},
		{Processor: "idle"},
	}
	c, err := NewCompilation("id", nil, nil, nil, runs)
	require.NoError(t, err)

	run, ok := c.ProcessorRun("noop")
	require.True(t, ok)
	assert.True(t, run.Invoked())

	run, ok = c.ProcessorRun("idle")
	require.True(t, ok)
	assert.False(t, run.Invoked())

	_, ok = c.ProcessorRun("missing")
	assert.False(t, ok)
}

func TestCompilationSnapshot(t *testing.T) {
	c, err := NewCompilation("random-id", nil,
		[]Diagnostic{{Kind: KindError, Message: "boom", Source: "a.cue", Line: 2, Column: 3}},
		[]Source{Generated("Gen", "x: 1")}, nil)
	require.NoError(t, err)

	data, err := MarshalCanonical(c.Snapshot())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "random-id")
	assert.Contains(t, string(data), `"status":"FAILED"`)
	assert.Contains(t, string(data), `{"column":3,"kind":"ERROR","line":2,"message":"boom","source":"a.cue"}`)

	h1, err := SnapshotHash(c)
	require.NoError(t, err)
	h2, err := SnapshotHash(c)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}
