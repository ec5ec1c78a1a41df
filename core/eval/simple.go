package eval

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/josephlewis42/treesh/core/logger"
	"github.com/josephlewis42/treesh/core/tree"
	"github.com/josephlewis42/treesh/core/vos"
	"golang.org/x/sys/unix"
)

// simple runs a leaf: an assignment, a builtin or an external program.
func (e *Evaluator) simple(p *proc, s *tree.SimpleCommand, level int, father *tree.Command) int {
	if s == nil || s.Verb == nil {
		fmt.Fprintln(p.io.Stderr(), "treesh: invalid command")
		return ShellExit
	}

	words := e.resolver(p.env)
	verb := words.Resolve(s.Verb)

	if strings.Contains(verb, "=") {
		return e.assign(p, verb)
	}

	if b, ok := allBuiltins[verb]; ok {
		call := &builtinCall{
			e:     e,
			p:     p,
			s:     s,
			words: words,
			args:  words.Argv(s),
			stdio: p.io,
		}
		status := b.Main(call)
		e.record(&logger.Builtin{
			Command: call.args,
			Status:  status,
			Level:   level,
		})
		return status
	}

	return e.external(p, words, s, level)
}

// assign sets NAME=value in the process environment.
func (e *Evaluator) assign(p *proc, verb string) int {
	name, value := vos.SplitEnv(verb)

	status := 0
	if err := p.env.Setenv(name, value); err != nil {
		fmt.Fprintf(p.io.Stderr(), "treesh: %v\n", err)
		status = 1
	}

	e.record(&logger.Assignment{Name: name, Status: status})
	return status
}

// external runs a program found on the PATH and waits for it.
func (e *Evaluator) external(p *proc, words WordResolver, s *tree.SimpleCommand, level int) int {
	argv := words.Argv(s)

	stdio, toClose, err := e.redirect(p, words, s)
	if err != nil {
		fmt.Fprintf(p.io.Stderr(), "%s: %v\n", argv[0], err)
		e.setupFailure("redirect", argv, err)
		return 1
	}
	defer toClose.Close()

	path, err := vos.LookPath(e.fs, p.env, p.dir, argv[0])
	if err != nil {
		fmt.Fprintf(stdio.Stderr(), "Execution failed for '%s'\n", argv[0])
		return 1
	}

	cmd := &exec.Cmd{
		Path:   path,
		Args:   argv,
		Env:    p.env.Environ(),
		Dir:    p.dir,
		Stdin:  stdio.Stdin(),
		Stdout: stdio.Stdout(),
		Stderr: stdio.Stderr(),
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.ENOMEM) {
			fmt.Fprintf(p.io.Stderr(), "treesh: %s: %v\n", argv[0], err)
			e.setupFailure("start", argv, err)
			return ShellExit
		}

		fmt.Fprintf(stdio.Stderr(), "Execution failed for '%s'\n", argv[0])
		return 1
	}

	e.record(&logger.RunCommand{
		Command:             argv,
		ResolvedCommandPath: path,
		Dir:                 p.dir,
		Level:               level,
		Pid:                 cmd.Process.Pid,
	})

	waitErr := cmd.Wait()
	return e.exitStatus(p.io.Stderr(), argv, cmd.ProcessState, waitErr)
}

// exitStatus classifies how a child terminated.
func (e *Evaluator) exitStatus(stderr io.Writer, argv []string, state *os.ProcessState, waitErr error) int {
	if state == nil {
		fmt.Fprintf(stderr, "treesh: %s: %v\n", argv[0], waitErr)
		e.setupFailure("wait", argv, waitErr)
		return ShellExit
	}

	event := &logger.CommandExit{
		Command: argv,
		Pid:     state.Pid(),
	}
	defer e.record(event)

	ws, ok := state.Sys().(syscall.WaitStatus)
	switch {
	case ok && ws.Signaled():
		fmt.Fprintf(stderr, "%s: terminated by signal %d (%s)\n", argv[0], int(ws.Signal()), unix.SignalName(ws.Signal()))
		event.Status = ShellExit
		event.Signal = int(ws.Signal())
		return ShellExit

	// Wait doesn't ask for stopped children, a stopped child blocks above.
	case ok && ws.Stopped():
		fmt.Fprintf(stderr, "%s: stopped by signal %d (%s)\n", argv[0], int(ws.StopSignal()), unix.SignalName(ws.StopSignal()))
		event.Status = ShellExit
		event.Signal = int(ws.StopSignal())
		event.Stopped = true
		return ShellExit

	default:
		// Errors copying non-file streams don't change the program's status.
		if waitErr != nil {
			var exitErr *exec.ExitError
			if !errors.As(waitErr, &exitErr) {
				e.log.Printf("%s: %v", argv[0], waitErr)
			}
		}
		event.Status = state.ExitCode()
		return event.Status
	}
}
