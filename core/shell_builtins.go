package core

import (
	"fmt"
	"sort"

	"github.com/josephlewis42/treesh/core/eval"
	"github.com/pborman/getopt/v2"
)

// AllBuiltins holds the commands handled by the interactive front end rather
// than the evaluator.
var AllBuiltins = make(map[string]ShellBuiltin)

type ShellBuiltin interface {
	Main(s *Shell, args []string) int
}

type ShellBuiltinFunc func(s *Shell, args []string) int

func (f ShellBuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// History displays or clears the lines entered in this session.
func History(s *Shell, args []string) int {
	opts := getopt.New()
	clear := opts.Bool('c', "clear the history by deleting all entries")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		w := s.stderr
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "usage: history [-c]")
		fmt.Fprintln(w, "Display the history list with line numbers.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		return 1
	}

	if *clear {
		if s.Readline != nil {
			s.Readline.Operation.ResetHistory()
		}
		s.history = nil
		return 0
	}

	for i, line := range s.history {
		fmt.Fprintf(s.stdout, "% 5d  %s\n", i+1, line)
	}
	return 0
}

// Help lists the commands the shell runs itself.
func Help(s *Shell, args []string) int {
	w := s.stdout
	fmt.Fprintln(w, "treesh, a command-tree evaluating shell.")
	fmt.Fprintln(w, "Commands are combined with ; & && || and |, grouped with ( ),")
	fmt.Fprintln(w, "and redirected with <, >, >>, 2>, 2>>, &> and &>>.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Builtins:")

	builtins := eval.BuiltinNames()
	for k := range AllBuiltins {
		builtins = append(builtins, k)
	}
	sort.Strings(builtins)

	for _, name := range builtins {
		fmt.Fprintf(w, "  %s\n", name)
	}

	return 0
}

func init() {
	AllBuiltins["history"] = ShellBuiltinFunc(History)
	AllBuiltins["help"] = ShellBuiltinFunc(Help)
}
