package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"github.com/josephlewis42/treesh/core/config"
	"github.com/josephlewis42/treesh/core/eval"
	"github.com/josephlewis42/treesh/core/parse"
	"github.com/josephlewis42/treesh/core/tree"
	"github.com/josephlewis42/treesh/core/vos"
	"golang.org/x/term"
)

const (
	EnvHome     = "HOME"
	EnvUser     = "USER"
	EnvHostname = "HOSTNAME"

	DefaultPrompt = `\u@\h:\w\$ `
)

// ShellOptions configure a Shell.
type ShellOptions struct {
	Config *config.Configuration
	Stdin  io.ReadCloser
	Stdout io.Writer
	Stderr io.Writer
	// Events receives execution events from the evaluator.
	Events eval.EventRecorder
	// Environ is the environment treesh was launched with.
	Environ []string
	// Dir is the starting directory, the current one if empty.
	Dir string
}

// Shell is an interactive front end that parses lines and hands them to an
// evaluator.
type Shell struct {
	Evaluator *eval.Evaluator
	Readline  *readline.Instance

	config *config.Configuration
	stdout io.Writer
	stderr io.Writer
	color  bool

	lastRet int
	history []string

	// Set to true to quit the shell
	Quit bool
}

// NewShell creates an interactive shell reading from opts.Stdin.
func NewShell(opts ShellOptions) (*Shell, error) {
	shell, err := newShell(opts)
	if err != nil {
		return nil, err
	}

	cfg := &readline.Config{
		Stdin:        readline.NewCancelableStdin(opts.Stdin),
		Stdout:       opts.Stdout,
		Stderr:       opts.Stderr,
		HistoryFile:  opts.Config.HistoryPath(),
		HistoryLimit: opts.Config.History.Limit,
		FuncIsTerminal: func() bool {
			return isTerminal(opts.Stdin) && isTerminal(opts.Stdout)
		},
	}

	if err := cfg.Init(); err != nil {
		return nil, err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, err
	}
	shell.Readline = rl
	shell.color = opts.Config.ColorPrompt && cfg.FuncIsTerminal()

	return shell, nil
}

func newShell(opts ShellOptions) (*Shell, error) {
	shell := &Shell{
		config: opts.Config,
		stdout: opts.Stdout,
		stderr: opts.Stderr,
	}

	evaluator, err := eval.New(eval.Config{
		Env: opts.Config.NewEnv(opts.Environ),
		Dir: opts.Dir,
		IO:  vos.NewVIOAdapter(opts.Stdin, opts.Stdout, opts.Stderr),
		Exit: func(int) {
			shell.Quit = true
		},
		Events: opts.Events,
		Log:    log.New(opts.Stderr, "treesh: ", 0),
	})
	if err != nil {
		return nil, err
	}
	shell.Evaluator = evaluator

	return shell, nil
}

// Close releases the line editor.
func (s *Shell) Close() error {
	if s.Readline == nil {
		return nil
	}
	return s.Readline.Close()
}

// LastStatus is the status of the last line that ran.
func (s *Shell) LastStatus() int {
	return s.lastRet
}

// Prompt expands the configured prompt.
func (s *Shell) Prompt() string {
	env := s.Evaluator.Env()

	prompt := s.config.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}

	user := env.Getenv(EnvUser)
	host := env.Getenv(EnvHostname)
	if host == "" {
		host, _ = os.Hostname()
	}
	pwd := s.Evaluator.Dir()
	if home := env.Getenv(EnvHome); home != "" && strings.HasPrefix(pwd, home) {
		pwd = "~" + strings.TrimPrefix(pwd, home)
	}

	prompt = strings.ReplaceAll(prompt, `\u`, s.colorize(user, color.FgGreen, color.Bold))
	prompt = strings.ReplaceAll(prompt, `\h`, s.colorize(host, color.FgGreen, color.Bold))
	prompt = strings.ReplaceAll(prompt, `\w`, s.colorize(pwd, color.FgBlue, color.Bold))

	if os.Getuid() == 0 {
		prompt = strings.ReplaceAll(prompt, `\$`, "#")
	} else {
		prompt = strings.ReplaceAll(prompt, `\$`, "$")
	}

	if s.lastRet != 0 {
		prompt = s.colorize(fmt.Sprintf("[%d] ", s.lastRet), color.FgRed) + prompt
	}

	return prompt
}

func (s *Shell) colorize(text string, attrs ...color.Attribute) string {
	if !s.color || text == "" {
		return text
	}

	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

// Run reads and runs lines until the input ends or the shell exits.
func (s *Shell) Run() int {
	for !s.Quit {
		s.Readline.SetPrompt(s.Prompt())
		line, err := s.Readline.Readline()

		switch {
		case err == io.EOF:
			return s.lastRet // Input closed, quit.

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue

		case err != nil:
			log.Printf("Error readline: %v", err)
			continue

		case len(strings.TrimSpace(line)) == 0:
			continue // empty line

		default:
			s.history = append(s.history, line)
			s.RunLine(line)
		}
	}
	return s.lastRet
}

// RunLine parses and evaluates a single line and returns its status.
func (s *Shell) RunLine(line string) int {
	root, err := parse.Line(line)
	switch {
	case err != nil:
		fmt.Fprintf(s.stderr, "treesh: syntax error: %v\n", err)
		s.lastRet = 2
		return s.lastRet

	case root == nil:
		return s.lastRet
	}

	if builtin, args, ok := s.lookupBuiltin(root); ok {
		s.lastRet = builtin.Main(s, args)
		return s.lastRet
	}

	s.lastRet = s.Evaluator.Evaluate(root)
	return s.lastRet
}

// lookupBuiltin finds shell front-end commands. They only run on their own,
// never as part of a larger tree.
func (s *Shell) lookupBuiltin(root *tree.Command) (ShellBuiltin, []string, bool) {
	if !root.IsLeaf() || root.Scmd == nil {
		return nil, nil, false
	}

	args := eval.NewEnvResolver(s.Evaluator.Env()).Argv(root.Scmd)
	builtin, ok := AllBuiltins[args[0]]
	return builtin, args, ok
}

func isTerminal(stream interface{}) bool {
	f, ok := stream.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
