package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and returns stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "cuetest", cmd.Use)
	assert.Contains(t, cmd.Long, "generated files")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"compile", "equiv", "test", "processors"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("no-color"))
}

func TestCompileCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	compileCmd, _, err := cmd.Find([]string{"compile"})
	require.NoError(t, err)

	processorFlag := compileCmd.Flags().Lookup("processor")
	require.NotNil(t, processorFlag)
	assert.Equal(t, "p", processorFlag.Shorthand)

	optionFlag := compileCmd.Flags().Lookup("option")
	require.NotNil(t, optionFlag)
	assert.Equal(t, "o", optionFlag.Shorthand)
}

func TestEquivCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	equivCmd, _, err := cmd.Find([]string{"equiv"})
	require.NoError(t, err)

	grammarFlag := equivCmd.Flags().Lookup("grammar")
	require.NotNil(t, grammarFlag)
	assert.Equal(t, "", grammarFlag.DefValue)

	require.NotNil(t, equivCmd.Flags().Lookup("ignore-field-order"))
	require.NotNil(t, equivCmd.Flags().Lookup("ignore-attribute-arg-order"))
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	require.NotNil(t, testCmd.Flags().Lookup("filter"))

	jobsFlag := testCmd.Flags().Lookup("jobs")
	require.NotNil(t, jobsFlag)
	assert.Equal(t, "j", jobsFlag.Shorthand)
	assert.Equal(t, "0", jobsFlag.DefValue)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, err := executeCommand(t, "--format", "invalid", "compile", "testdata/src")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigFile(t *testing.T) {
	t.Run("format from config", func(t *testing.T) {
		path := writeConfig(t, "format: json\n")
		out, err := executeCommand(t, "--config", path, "processors")
		require.NoError(t, err)
		assert.Contains(t, out, `"status": "ok"`)
	})

	t.Run("flag beats config", func(t *testing.T) {
		path := writeConfig(t, "format: json\n")
		out, err := executeCommand(t, "--config", path, "--format", "text", "processors")
		require.NoError(t, err)
		assert.NotContains(t, out, `"status"`)
	})

	t.Run("missing explicit config", func(t *testing.T) {
		_, err := executeCommand(t, "--config", "testdata/nope.yaml", "processors")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("invalid config", func(t *testing.T) {
		path := writeConfig(t, "format: xml\n")
		_, err := executeCommand(t, "--config", path, "processors")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}
