package processors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cuetest/internal/compiler"
	"github.com/roach88/cuetest/internal/ir"
)

func compile(t *testing.T, names []string, opts []string, sources ...ir.Source) *ir.Compilation {
	t.Helper()
	procs, err := Resolve(names)
	require.NoError(t, err)
	comp, err := compiler.New(compiler.WithProcessors(procs...), compiler.WithOptions(opts...)).
		Compile(context.Background(), sources...)
	require.NoError(t, err)
	return comp
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"deprecated", "generate", "noop", "require-doc"}, Names())

	for _, name := range Names() {
		p, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, name, p.Name())
		assert.NotEmpty(t, Describe(name))
	}

	_, ok := Lookup("missing")
	assert.False(t, ok)

	_, err := Resolve([]string{"noop", "missing"})
	var unknown *UnknownProcessorError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "missing", unknown.Name)
	assert.Contains(t, err.Error(), "available: deprecated, generate, noop, require-doc")
}

func TestNoopIsInvoked(t *testing.T) {
	comp := compile(t, []string{NoopName}, nil, ir.FromString("HelloWorld", "#HelloWorld: {}\n"))

	assert.True(t, comp.Succeeded())
	run, ok := comp.ProcessorRun(NoopName)
	require.True(t, ok)
	assert.True(t, run.Invoked())
	assert.Equal(t, 1, run.Rounds)
}

func TestDeprecated(t *testing.T) {
	src := ir.FromString("Config", `port: int @deprecated("use listen")
listen: string
server: {
	host: string @deprecated()
}
`)
	comp := compile(t, []string{DeprecatedName}, nil, src)

	assert.True(t, comp.Succeeded())
	require.Len(t, comp.Warnings(), 2)
	assert.Equal(t, ir.Diagnostic{
		Kind:    ir.KindWarning,
		Message: "field port is deprecated: use listen",
		Source:  "Config.cue",
		Line:    1,
		Column:  1,
	}, comp.Warnings()[0])
	assert.Equal(t, "field host is deprecated", comp.Warnings()[1].Message)
	assert.Equal(t, 4, comp.Warnings()[1].Line)
	assert.Equal(t, 2, comp.Warnings()[1].Column)
}

func TestGenerate(t *testing.T) {
	src := ir.FromString("Model", `package model

person: {
	name: string
	age:  int
} @generate(Person)
`)
	comp := compile(t, []string{GenerateName}, nil, src)

	require.True(t, comp.Succeeded(), "%v", comp.Diagnostics())
	gen, ok := comp.GeneratedSource("Person")
	require.True(t, ok)
	assert.Contains(t, gen.Content, "package model\n")
	assert.Contains(t, gen.Content, "// #Person is generated from person.\n")
	assert.Contains(t, gen.Content, "#Person: {")
	assert.Contains(t, gen.Content, "name: string")

	run, _ := comp.ProcessorRun(GenerateName)
	assert.Equal(t, []string{"Person"}, run.Generated)
	assert.Equal(t, 2, run.Rounds)
}

func TestGenerateInvalidName(t *testing.T) {
	comp := compile(t, []string{GenerateName}, nil, ir.FromString("Model", "x: 1 @generate(1abc)\n"))

	assert.False(t, comp.Succeeded())
	assert.Equal(t, `invalid @generate name "1abc" on field x`, comp.Errors()[0].Message)
	assert.Empty(t, comp.Generated())
}

func TestGenerateDuplicateName(t *testing.T) {
	comp := compile(t, []string{GenerateName}, nil, ir.FromString("Model", "a: 1 @generate(Blah)\nb: 2 @generate(Blah)\n"))

	assert.False(t, comp.Succeeded())
	assert.Contains(t, comp.Errors()[0].Message, `attempt to recreate a file "Blah"`)
	assert.Equal(t, []string{"Blah"}, comp.GeneratedNames())
}

func TestRequireDoc(t *testing.T) {
	src := ir.FromString("Schema", `// #Documented has a comment.
#Documented: {}

#Bare: {}

plain: 1
`)

	comp := compile(t, []string{RequireDocName}, nil, src)
	assert.True(t, comp.Succeeded())
	require.Len(t, comp.Notes(), 1)
	assert.Equal(t, "definition #Bare has no doc comment", comp.Notes()[0].Message)
	assert.Equal(t, 4, comp.Notes()[0].Line)

	comp = compile(t, []string{RequireDocName}, []string{"-Arequire-doc=strict"}, src)
	assert.False(t, comp.Succeeded())
	require.Len(t, comp.Errors(), 1)
	assert.Equal(t, "definition #Bare has no doc comment", comp.Errors()[0].Message)
}

func TestGeneratedDefinitionsAreDocumented(t *testing.T) {
	comp := compile(t, []string{GenerateName, RequireDocName}, []string{"-Arequire-doc=strict"},
		ir.FromString("Model", "// #Point is a point.\n#Point: {x: int}\np: {y: int} @generate(P)\n"))

	assert.True(t, comp.Succeeded(), "%v", comp.Diagnostics())
}
