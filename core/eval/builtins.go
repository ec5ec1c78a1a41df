package eval

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/josephlewis42/treesh/core/tree"
	"github.com/josephlewis42/treesh/core/vos"
)

// allBuiltins holds the commands that run inside the evaluating process.
var allBuiltins = make(map[string]builtin)

type builtin interface {
	Main(call *builtinCall) int
}

type builtinFunc func(call *builtinCall) int

func (f builtinFunc) Main(call *builtinCall) int {
	return f(call)
}

var _ builtin = (builtinFunc)(nil)

// builtinCall is a single invocation of a builtin.
type builtinCall struct {
	e     *Evaluator
	p     *proc
	s     *tree.SimpleCommand
	words WordResolver
	args  []string

	// stdio starts as the process's streams, redirect rebinds it.
	stdio   vos.VIO
	toClose io.Closer
}

// redirect binds the builtin's stdio to the command's redirection targets.
func (call *builtinCall) redirect() error {
	stdio, toClose, err := call.e.redirect(call.p, call.words, call.s)
	if err != nil {
		return err
	}
	call.stdio = stdio
	call.toClose = toClose
	return nil
}

// release closes the redirected files and points the builtin's stdio at
// nothing so a finished builtin can't write into them.
func (call *builtinCall) release() {
	if call.toClose != nil {
		call.toClose.Close()
		call.toClose = nil
	}
	call.stdio = vos.NewNullIO()
}

// BuiltinNames lists the commands run by the evaluator itself.
func BuiltinNames() []string {
	var names []string
	for name := range allBuiltins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// cd changes the working directory of the evaluating process. The argument
// "pwd" prints the working directory instead.
func cd(call *builtinCall) int {
	if err := call.redirect(); err != nil {
		fmt.Fprintf(call.p.io.Stderr(), "cd: %v\n", err)
		call.e.setupFailure("redirect", call.args, err)
		return 1
	}
	defer call.release()

	stdout, stderr := call.stdio.Stdout(), call.stdio.Stderr()

	if len(call.s.Params) == 0 {
		fmt.Fprintln(stderr, "cd: missing argument")
		return 1
	}

	target := call.words.Resolve(call.s.Params[0])
	if target == "pwd" {
		fmt.Fprintln(stdout, call.p.dir)
		return 0
	}

	dir := filepath.Clean(vos.Abs(call.p.dir, target))
	info, err := call.e.fs.Stat(dir)
	switch {
	case err != nil:
		fmt.Fprintf(stderr, "cd: %v\n", err)
		return 1
	case !info.IsDir():
		fmt.Fprintf(stderr, "cd: %s: not a directory\n", target)
		return 1
	}

	call.p.dir = dir
	return 0
}

// exit ends the evaluating process with status 0, arguments are ignored.
func exit(call *builtinCall) int {
	call.p.exited = true
	return 0
}

func init() {
	allBuiltins["cd"] = builtinFunc(cd)
	allBuiltins["exit"] = builtinFunc(exit)
	allBuiltins["quit"] = builtinFunc(exit)
}
