package tree

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ExampleParseWord() {
	w := ParseWord("$HOME/bin:${PATH}x")

	for _, p := range w.Parts {
		fmt.Printf("%q %v\n", p.Value, p.Expand)
	}

	// Output: "HOME" true
	// "/bin:" false
	// "PATH" true
	// "x" false
}

func TestWordResolve(t *testing.T) {
	env := map[string]string{"A": "1", "B": "two"}
	getenv := func(k string) string { return env[k] }

	cases := []struct {
		word     string
		expected string
	}{
		{"plain", "plain"},
		{"$A", "1"},
		{"${A}${B}", "1two"},
		{"pre-$B-post", "pre-two-post"},
		{"$MISSING", ""},
		{"cost$", "cost$"},
		{"", ""},
	}

	for _, tc := range cases {
		t.Run(tc.word, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseWord(tc.word).Resolve(getenv))
		})
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		cmd     *Command
		wantErr error
	}{
		"leaf": {
			cmd: Simple("true"),
		},
		"operator": {
			cmd: Operator(OpPipe, Simple("echo", "hi"), Simple("cat")),
		},
		"nested": {
			cmd: Operator(OpSequential, Simple("a"), Operator(OpConditionalZero, Simple("b"), Simple("c"))),
		},
		"missing right": {
			cmd:     Operator(OpParallel, Simple("a"), nil),
			wantErr: ErrMissingChild,
		},
		"missing nested child": {
			cmd:     Operator(OpSequential, Simple("a"), Operator(OpPipe, nil, Simple("b"))),
			wantErr: ErrMissingChild,
		},
		"leaf with children": {
			cmd:     &Command{Op: OpNone, Scmd: &SimpleCommand{Verb: Lit("a")}, Left: Simple("b")},
			wantErr: ErrLeafWithChildren,
		},
		"leaf without verb": {
			cmd:     &Command{Op: OpNone, Scmd: &SimpleCommand{}},
			wantErr: ErrMissingVerb,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			err := tc.cmd.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.wantErr), "got %v want %v", err, tc.wantErr)
		})
	}

	t.Run("unknown operator", func(t *testing.T) {
		assert.Error(t, Operator(Op(42), Simple("a"), Simple("b")).Validate())
	})
}

func TestCommandString(t *testing.T) {
	redirected := &SimpleCommand{
		Verb:    Lit("make"),
		Params:  []*Word{ParseWord("$TARGET")},
		In:      Lit("in.txt"),
		Out:     Lit("build.log"),
		Err:     Lit("build.log"),
		IOFlags: IOOutAppend,
	}
	split := &SimpleCommand{
		Verb:    Lit("ls"),
		Out:     Lit("out"),
		Err:     Lit("err"),
		IOFlags: IOErrAppend,
	}

	cases := map[string]struct {
		cmd      *Command
		expected string
	}{
		"leaf":       {Simple("echo", "hi"), "echo hi"},
		"redirected": {Leaf(redirected), "make ${TARGET} <in.txt &>>build.log"},
		"split":      {Leaf(split), "ls >out 2>>err"},
		"tree": {
			Operator(OpSequential, Simple("X=1"), Operator(OpConditionalZero, Simple("true"), Simple("echo", "hi"))),
			"(X=1 ; (true && echo hi))",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.cmd.String())
		})
	}
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "pipe", OpPipe.String())
	assert.Equal(t, "Op(42)", Op(42).String())
}
