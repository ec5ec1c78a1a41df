package core

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/treesh/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testShell struct {
	*Shell
	stdout bytes.Buffer
	stderr bytes.Buffer
	home   string
}

func newTestShell(t *testing.T) *testShell {
	t.Helper()

	ts := &testShell{home: t.TempDir()}
	shell, err := newShell(ShellOptions{
		Config: config.Default(),
		Stdout: &ts.stdout,
		Stderr: &ts.stderr,
		Environ: []string{
			"PATH=" + os.Getenv("PATH"),
			"HOME=" + ts.home,
			"USER=alice",
			"HOSTNAME=box",
		},
		Dir: ts.home,
	})
	require.NoError(t, err)
	ts.Shell = shell

	return ts
}

func rootSign() string {
	if os.Getuid() == 0 {
		return "#"
	}
	return "$"
}

func TestShell_RunLine(t *testing.T) {
	ts := newTestShell(t)

	assert.Equal(t, 0, ts.RunLine(`GREETING=hi; echo $GREETING | cat`))
	assert.Equal(t, "hi\n", ts.stdout.String())
	assert.Equal(t, 0, ts.LastStatus())

	assert.Equal(t, 1, ts.RunLine("false"))
	assert.Equal(t, 1, ts.LastStatus())

	// Blank lines keep the previous status.
	assert.Equal(t, 1, ts.RunLine("   "))
}

func TestShell_RunLine_syntaxError(t *testing.T) {
	ts := newTestShell(t)

	assert.Equal(t, 2, ts.RunLine("echo hi &"))
	assert.Contains(t, ts.stderr.String(), "treesh: syntax error:")
	assert.Empty(t, ts.stdout.String())
}

func TestShell_exit(t *testing.T) {
	ts := newTestShell(t)

	assert.Equal(t, 0, ts.RunLine("true | exit"))
	assert.False(t, ts.Quit)

	assert.Equal(t, 0, ts.RunLine("exit"))
	assert.True(t, ts.Quit)
}

func TestShell_Prompt(t *testing.T) {
	ts := newTestShell(t)

	assert.Equal(t, "alice@box:~"+rootSign()+" ", ts.Prompt())

	require.NoError(t, os.Mkdir(filepath.Join(ts.home, "src"), 0755))
	ts.RunLine("cd src")
	assert.Equal(t, "alice@box:~/src"+rootSign()+" ", ts.Prompt())

	ts.RunLine("false")
	assert.Equal(t, "[1] alice@box:~/src"+rootSign()+" ", ts.Prompt())
}

func TestShell_Prompt_color(t *testing.T) {
	ts := newTestShell(t)
	ts.color = true

	prompt := ts.Prompt()
	assert.Contains(t, prompt, "\x1b[")
	assert.Contains(t, prompt, "alice")
}

func TestHistory(t *testing.T) {
	ts := newTestShell(t)
	ts.history = []string{"echo one", "history"}

	assert.Equal(t, 0, ts.RunLine("history"))
	assert.Equal(t, "    1  echo one\n    2  history\n", ts.stdout.String())

	assert.Equal(t, 0, ts.RunLine("history -c"))
	assert.Empty(t, ts.history)

	assert.Equal(t, 1, ts.RunLine("history --bogus"))
	assert.Contains(t, ts.stderr.String(), "usage: history")
}

func TestHelp(t *testing.T) {
	ts := newTestShell(t)

	assert.Equal(t, 0, ts.RunLine("help"))
	for _, name := range []string{"cd", "exit", "quit", "history", "help"} {
		assert.Contains(t, ts.stdout.String(), "  "+name+"\n")
	}
}

func TestFrontEndCommands_onlyStandalone(t *testing.T) {
	ts := newTestShell(t)

	// Inside a tree, help is looked up on the PATH like any other program.
	assert.Equal(t, 0, ts.RunLine("treesh-no-such-program || true"))
	assert.Equal(t, 1, ts.RunLine("help && true; false"))
	assert.NotContains(t, ts.stdout.String(), "Builtins:")
}
