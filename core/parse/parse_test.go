package parse

import (
	"errors"
	"strings"
	"testing"

	"github.com/josephlewis42/treesh/core/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLine(t *testing.T) {
	cases := map[string]struct {
		line string
		want string
	}{
		"simple":             {line: "echo hi", want: "echo hi"},
		"sequential":         {line: "a; b; c", want: "((a ; b) ; c)"},
		"newlines":           {line: "a\nb", want: "(a ; b)"},
		"parallel":           {line: "a & b", want: "(a & b)"},
		"parallel-then-seq":  {line: "a & b; c", want: "((a & b) ; c)"},
		"and-or":             {line: "a && b || c", want: "((a && b) || c)"},
		"pipe":               {line: "ls -l | wc -l", want: "(ls -l | wc -l)"},
		"subshell":           {line: "(a; b) | c", want: "((a ; b) | c)"},
		"block":              {line: "{ a; b; } && c", want: "((a ; b) && c)"},
		"input":              {line: "cat < in", want: "cat <in"},
		"output":             {line: "cat > out", want: "cat >out"},
		"explicit-fds":       {line: "cat 0<in 1>out", want: "cat <in >out"},
		"append":             {line: "cat >> out 2>> err", want: "cat >>out 2>>err"},
		"all-redirects":      {line: "cat < in > out 2> err", want: "cat <in >out 2>err"},
		"same-file":          {line: "cmd &> both", want: "cmd &>both"},
		"same-file-append":   {line: "cmd &>> both", want: "cmd &>>both"},
		"dup-stderr":         {line: "cmd > f 2>&1", want: "cmd &>f"},
		"dup-stderr-append":  {line: "cmd >> f 2>&1", want: "cmd &>>f"},
		"variables":          {line: "echo $HOME ${USER}x $A/b", want: "echo ${HOME} ${USER}x ${A}/b"},
		"quoted-variable":    {line: `echo "a $B c"`, want: "echo a ${B} c"},
		"single-quotes":      {line: `echo '$NOT'`, want: "echo $NOT"},
		"escapes":            {line: `echo a\ b "c\"d" "e\f"`, want: `echo a b c"d e\f`},
		"assignment":         {line: "X=1", want: "X=1"},
		"assignment-var":     {line: "X=1 Y=$X", want: "(X=1 ; Y=${X})"},
		"empty-assignment":   {line: "X=", want: "X="},
		"assignment-chained": {line: "X=1; echo $X", want: "(X=1 ; echo ${X})"},
		"cd-pwd":             {line: "cd pwd", want: "cd pwd"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Line(tc.line)
			require.NoError(t, err)
			require.NoError(t, got.Validate())
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestLine_pipeChain(t *testing.T) {
	got, err := Line("a | b | c")
	require.NoError(t, err)
	require.NoError(t, got.Validate())

	pipes := 0
	var walk func(c *tree.Command)
	walk = func(c *tree.Command) {
		if c.IsLeaf() {
			return
		}
		assert.Equal(t, tree.OpPipe, c.Op)
		pipes++
		walk(c.Left)
		walk(c.Right)
	}
	walk(got)

	assert.Equal(t, 2, pipes)
}

func TestLine_words(t *testing.T) {
	got, err := Line(`printf "%s-$NAME" ''`)
	require.NoError(t, err)
	require.True(t, got.IsLeaf())

	s := got.Scmd
	assert.Equal(t, tree.Lit("printf"), s.Verb)
	require.Len(t, s.Params, 2)
	assert.Equal(t, &tree.Word{Parts: []tree.WordPart{
		{Value: "%s-"},
		{Value: "NAME", Expand: true},
	}}, s.Params[0])
	assert.Equal(t, "", s.Params[1].Resolve(nil))
}

func TestLine_empty(t *testing.T) {
	for _, line := range []string{"", "   ", "# just a comment"} {
		got, err := Line(line)
		assert.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestLine_errors(t *testing.T) {
	cases := map[string]struct {
		line    string
		wantErr error
	}{
		"trailing-background": {line: "sleep 1 &", wantErr: ErrTrailingBackground},
		"command-assignment":  {line: "X=1 env", wantErr: ErrUnsupported},
		"heredoc":             {line: "cat <<EOF\nx\nEOF", wantErr: ErrUnsupported},
		"command-substitute":  {line: "echo $(date)", wantErr: ErrUnsupported},
		"special-param":       {line: "echo $?", wantErr: ErrUnsupported},
		"param-default":       {line: "echo ${X:-y}", wantErr: ErrUnsupported},
		"negation":            {line: "! true", wantErr: ErrUnsupported},
		"pipe-all":            {line: "a |& b", wantErr: ErrUnsupported},
		"if":                  {line: "if true; then a; fi", wantErr: ErrUnsupported},
		"compound-redirect":   {line: "(a; b) > out", wantErr: ErrUnsupported},
		"dup-without-out":     {line: "cmd 2>&1", wantErr: ErrUnsupported},
		"other-fd":            {line: "cmd 3> out", wantErr: ErrUnsupported},
		"append-assignment":   {line: "X+=1", wantErr: ErrUnsupported},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Line(tc.line)
			assert.True(t, errors.Is(err, tc.wantErr), "got error: %v", err)
		})
	}
}

func TestLine_syntaxError(t *testing.T) {
	_, err := Line("echo (")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnsupported))
}

func TestFile(t *testing.T) {
	script := strings.Join([]string{
		"# greet",
		"NAME=world",
		"echo hello $NAME > out &",
		"cat out",
	}, "\n")

	got, err := File(strings.NewReader(script), "greet.sh")
	require.NoError(t, err)
	assert.Equal(t, "((NAME=world ; echo hello ${NAME} >out) & cat out)", got.String())
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "a b", unescape(`a\ b`, false))
	assert.Equal(t, `a\b`, unescape(`a\\b`, false))
	assert.Equal(t, `\n$`, unescape(`\n\$`, true))
	assert.Equal(t, "ab", unescape("a\\\nb", true))
	assert.Equal(t, `trailing\`, unescape(`trailing\`, false))
}
