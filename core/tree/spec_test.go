package tree

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshal(t *testing.T) {
	cases := map[string]struct {
		doc      string
		expected string
	}{
		"leaf": {
			doc:      `command: echo hi`,
			expected: "echo hi",
		},
		"quoting": {
			doc:      `command: 'printf ''%s'' "a b"'`,
			expected: `printf %s a b`,
		},
		"variables": {
			doc:      `command: echo $HOME ${USER}`,
			expected: "echo ${HOME} ${USER}",
		},
		"redirections": {
			doc: `
command: cat
in: input.txt
out: out.log
err: out.log
append_out: true
`,
			expected: "cat <input.txt &>>out.log",
		},
		"tree": {
			doc: `
op: sequential
left:
  command: X=1
right:
  op: and
  left: {command: "true"}
  right: {command: echo hi}
`,
			expected: "(X=1 ; (true && echo hi))",
		},
		"json": {
			doc:      `{"op": "pipe", "left": {"command": "ls"}, "right": {"command": "wc -l"}}`,
			expected: "(ls | wc -l)",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			cmd, err := Unmarshal([]byte(tc.doc))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cmd.String())
		})
	}
}

func TestUnmarshal_errors(t *testing.T) {
	cases := map[string]string{
		"unknown op":        `{op: xor, left: {command: a}, right: {command: b}}`,
		"missing child":     `{op: pipe, left: {command: a}}`,
		"empty leaf":        `{in: foo}`,
		"blank command":     `{command: "   "}`,
		"unknown field":     `{command: a, stdout: b}`,
		"operator command":  `{op: and, command: a, left: {command: a}, right: {command: b}}`,
		"leaf with child":   `{command: a, left: {command: b}}`,
		"unbalanced quotes": `{command: "echo 'hi"}`,
	}

	for tn, doc := range cases {
		t.Run(tn, func(t *testing.T) {
			_, err := Unmarshal([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tree.yaml", []byte("command: true"), 0644))

	cmd, err := LoadFile(fs, "/tree.yaml")
	require.NoError(t, err)
	assert.True(t, cmd.IsLeaf())

	_, err = LoadFile(fs, "/missing.yaml")
	assert.Error(t, err)
}

func TestSpec_Tree(t *testing.T) {
	spec := &Spec{
		Op:    "or",
		Left:  &Spec{Command: "false"},
		Right: &Spec{Command: "echo fallback", Out: "log", AppendOut: true},
	}

	cmd, err := spec.Tree()
	require.NoError(t, err)
	assert.Equal(t, OpConditionalNonZero, cmd.Op)
	assert.Equal(t, "(false || echo fallback >>log)", cmd.String())

	_, err = (&Spec{Op: "and", Left: &Spec{Command: "a"}}).Tree()
	assert.ErrorIs(t, err, ErrMissingChild)
}
