package eval

import (
	"fmt"
	"os"
	"sync"

	"github.com/josephlewis42/treesh/core/tree"
	"golang.org/x/sync/errgroup"
)

func (e *Evaluator) sequential(p *proc, left, right *tree.Command, level int, father *tree.Command) int {
	e.evaluate(p, left, level, father)
	if p.exited {
		return 0
	}
	return e.evaluate(p, right, level, father)
}

func (e *Evaluator) conditional(p *proc, left, right *tree.Command, level int, father *tree.Command, runRight func(status int) bool) int {
	status := e.evaluate(p, left, level, father)
	if p.exited || !runRight(status) {
		return status
	}
	return e.evaluate(p, right, level, father)
}

// parallel runs both subtrees in forked branches. Only the right branch's
// status is reported.
func (e *Evaluator) parallel(p *proc, left, right *tree.Command, level int, father *tree.Command) int {
	var statuses [2]int
	var branches errgroup.Group

	for i, c := range []*tree.Command{left, right} {
		i, c := i, c
		child := p.fork(nil, nil)
		branches.Go(func() error {
			statuses[i] = e.branch(child, c, level, father)
			return nil
		})
	}
	_ = branches.Wait()

	return statuses[1]
}

// pipe connects the left branch's stdout to the right branch's stdin. Only
// the right branch's status is reported.
func (e *Evaluator) pipe(p *proc, left, right *tree.Command, level int, father *tree.Command) int {
	pr, pw, err := os.Pipe()
	if err != nil {
		fmt.Fprintf(p.io.Stderr(), "treesh: pipe: %v\n", err)
		e.setupFailure("pipe", nil, err)
		return ShellExit
	}

	producer := p.fork(nil, pw)
	consumer := p.fork(pr, nil)

	var rightStatus int
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.branch(producer, left, level, father)
		pw.Close()
	}()
	go func() {
		defer wg.Done()
		rightStatus = e.branch(consumer, right, level, father)
		pr.Close()
	}()
	wg.Wait()

	return rightStatus
}

// branch evaluates c as the whole of a forked process and returns the
// process's exit code.
func (e *Evaluator) branch(p *proc, c *tree.Command, level int, father *tree.Command) int {
	status := e.evaluate(p, c, level, father)
	if p.exited {
		return 0
	}
	return ExitCode(status)
}

// ExitCode truncates status to what a process can report to its parent.
func ExitCode(status int) int {
	return status & 0xff
}
