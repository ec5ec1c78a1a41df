// Package eval evaluates command trees. Every node is realized as one or more
// processes and the results are folded into a single exit status.
package eval

import (
	"fmt"
	"io"
	"log"
	"os"
	"reflect"

	"github.com/josephlewis42/treesh/core/logger"
	"github.com/josephlewis42/treesh/core/tree"
	"github.com/josephlewis42/treesh/core/vos"
	"github.com/spf13/afero"
)

// ShellExit is the status of a command that didn't complete normally, either
// because it was killed or stopped by a signal or because the evaluator
// couldn't set it up.
const ShellExit = -100

// EventRecorder stores execution events.
type EventRecorder interface {
	Record(event logger.LogType) error
}

// Config holds the collaborators of an Evaluator. Zero values are replaced by
// the calling process's own state.
type Config struct {
	// Env is the process-wide environment, os.Environ() if nil.
	Env vos.VEnv
	// Dir is the starting working directory, os.Getwd() if empty.
	Dir string
	// IO is the root stdio triple, os.Stdin/os.Stdout/os.Stderr if nil.
	IO vos.VIO
	// Fs is used for redirections, executable lookup and cd.
	Fs afero.Fs
	// Resolver binds a word resolver to an environment, NewEnvResolver if nil.
	Resolver func(env vos.VEnv) WordResolver
	// Exit is called when exit or quit runs at the root, os.Exit if nil.
	Exit func(code int)
	// Events receives execution events, they're dropped if nil.
	Events EventRecorder
	// Log receives diagnostics about the evaluator itself.
	Log *log.Logger
}

// Evaluator runs command trees. The root process state (environment, working
// directory) persists across calls so assignments and cd carry over from one
// tree to the next.
type Evaluator struct {
	fs       afero.Fs
	resolver func(env vos.VEnv) WordResolver
	exit     func(code int)
	events   EventRecorder
	log      *log.Logger

	root *proc
}

// New creates an evaluator from the configuration.
func New(cfg Config) (*Evaluator, error) {
	env := cfg.Env
	if env == nil {
		env = vos.NewMapEnvFromEnvList(os.Environ())
	}

	dir := cfg.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("couldn't determine working directory: %w", err)
		}
		dir = wd
	}

	stdio := cfg.IO
	if stdio == nil {
		stdio = vos.NewOSIO()
	}

	e := &Evaluator{
		fs:       cfg.Fs,
		resolver: cfg.Resolver,
		exit:     cfg.Exit,
		events:   cfg.Events,
		log:      cfg.Log,
		root: &proc{
			env: env,
			dir: dir,
			io:  synchronizedIO(stdio),
		},
	}

	if e.fs == nil {
		e.fs = afero.NewOsFs()
	}
	if e.resolver == nil {
		e.resolver = NewEnvResolver
	}
	if e.exit == nil {
		e.exit = os.Exit
	}
	if e.events == nil {
		e.events = nopRecorder{}
	}
	if e.log == nil {
		e.log = log.Default()
	}

	return e, nil
}

// Env returns the environment of the root process.
func (e *Evaluator) Env() vos.VEnv {
	return e.root.env
}

// Dir returns the working directory of the root process.
func (e *Evaluator) Dir() string {
	return e.root.dir
}

// Evaluate runs the tree in the root process and returns its status.
func (e *Evaluator) Evaluate(root *tree.Command) int {
	return e.EvaluateAt(root, 0, nil)
}

// EvaluateAt runs node in the root process at the given nesting level. father
// is the node's parent, it's passed down for context and never modified.
func (e *Evaluator) EvaluateAt(node *tree.Command, level int, father *tree.Command) int {
	status := e.evaluate(e.root, node, level, father)
	if e.root.exited {
		e.root.exited = false
		e.exit(0)
		return 0
	}
	return status
}

func (e *Evaluator) evaluate(p *proc, c *tree.Command, level int, father *tree.Command) int {
	if c == nil {
		fmt.Fprintln(p.io.Stderr(), "treesh: invalid command")
		return ShellExit
	}

	switch c.Op {
	case tree.OpNone:
		return e.simple(p, c.Scmd, level, father)
	case tree.OpSequential:
		return e.sequential(p, c.Left, c.Right, level+1, c)
	case tree.OpParallel:
		return e.parallel(p, c.Left, c.Right, level+1, c)
	case tree.OpConditionalNonZero:
		return e.conditional(p, c.Left, c.Right, level+1, c, func(status int) bool {
			return status != 0
		})
	case tree.OpConditionalZero:
		return e.conditional(p, c.Left, c.Right, level+1, c, func(status int) bool {
			return status == 0
		})
	case tree.OpPipe:
		return e.pipe(p, c.Left, c.Right, level+1, c)
	default:
		fmt.Fprintf(p.io.Stderr(), "treesh: unknown operator %v\n", c.Op)
		return ShellExit
	}
}

func (e *Evaluator) record(event logger.LogType) {
	if err := e.events.Record(event); err != nil {
		e.log.Printf("couldn't record event: %v", err)
	}
}

func (e *Evaluator) setupFailure(stage string, argv []string, err error) {
	e.record(&logger.SetupFailure{
		Stage:   stage,
		Command: argv,
		Error:   err.Error(),
	})
}

type nopRecorder struct{}

func (nopRecorder) Record(logger.LogType) error { return nil }

// proc is the state of the process evaluating a subtree.
type proc struct {
	env vos.VEnv
	dir string
	io  vos.VIO

	// exited is set by exit/quit, nothing else runs in the process after.
	exited bool
}

// fork copies the process state for a branch. Non-nil streams replace the
// parent's.
func (p *proc) fork(stdin io.ReadCloser, stdout io.WriteCloser) *proc {
	child := &vos.VIOAdapter{
		IStdin:  p.io.Stdin(),
		IStdout: p.io.Stdout(),
		IStderr: p.io.Stderr(),
	}
	if stdin != nil {
		child.IStdin = stdin
	}
	if stdout != nil {
		child.IStdout = stdout
	}

	return &proc{
		env: vos.NewMapEnvFrom(p.env),
		dir: p.dir,
		io:  child,
	}
}

// synchronizedIO guards the root streams so concurrent branches can share
// them. A writer used for both streams gets a single lock.
func synchronizedIO(stdio vos.VIO) vos.VIO {
	stdin := vos.SynchronizedReader(stdio.Stdin())
	stdout := vos.Synchronized(stdio.Stdout())
	stderr := stdout
	if !sameWriter(stdio.Stdout(), stdio.Stderr()) {
		stderr = vos.Synchronized(stdio.Stderr())
	}

	return vos.NewVIOAdapter(stdin, stdout, stderr)
}

func sameWriter(a, b io.Writer) bool {
	ta := reflect.TypeOf(a)
	return ta != nil && ta == reflect.TypeOf(b) && ta.Comparable() && a == b
}
