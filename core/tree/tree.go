// Package tree holds the command tree handed to the evaluator by a parser.
package tree

import (
	"errors"
	"fmt"
	"strings"
)

// Op is the composition kind of a command node.
type Op int

const (
	// OpNone marks a leaf holding a simple command.
	OpNone Op = iota
	// OpSequential runs left then right: a ; b
	OpSequential
	// OpParallel runs left and right at the same time: a & b
	OpParallel
	// OpConditionalNonZero runs right only if left failed: a || b
	OpConditionalNonZero
	// OpConditionalZero runs right only if left succeeded: a && b
	OpConditionalZero
	// OpPipe connects left's stdout to right's stdin: a | b
	OpPipe
)

var opSymbols = map[Op]string{
	OpSequential:         ";",
	OpParallel:           "&",
	OpConditionalNonZero: "||",
	OpConditionalZero:    "&&",
	OpPipe:               "|",
}

var opNames = map[Op]string{
	OpNone:               "none",
	OpSequential:         "sequential",
	OpParallel:           "parallel",
	OpConditionalNonZero: "or",
	OpConditionalZero:    "and",
	OpPipe:               "pipe",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// IOFlags select append mode for the output and error redirections.
type IOFlags int

const (
	// IOOutAppend opens the output target with O_APPEND instead of O_TRUNC.
	IOOutAppend IOFlags = 1 << iota
	// IOErrAppend opens the error target with O_APPEND instead of O_TRUNC.
	IOErrAppend
)

var (
	// ErrMissingChild is returned when an operator lacks one of its children.
	ErrMissingChild = errors.New("operator node must have two children")
	// ErrLeafWithChildren is returned for a leaf that also carries children.
	ErrLeafWithChildren = errors.New("leaf node must not have children")
	// ErrMissingVerb is returned for a leaf without a simple command or verb.
	ErrMissingVerb = errors.New("simple command has no verb")
)

// SimpleCommand is a single command invocation with its redirections.
type SimpleCommand struct {
	Verb   *Word
	Params []*Word

	// In, Out and Err are the optional redirection targets.
	In  *Word
	Out *Word
	Err *Word

	IOFlags IOFlags
}

// Command is a node in the command tree. A node with Op == OpNone is a leaf
// and only Scmd is set; every other node has both Left and Right.
type Command struct {
	Op    Op
	Scmd  *SimpleCommand
	Left  *Command
	Right *Command
}

// Leaf wraps a simple command in a tree node.
func Leaf(s *SimpleCommand) *Command {
	return &Command{Op: OpNone, Scmd: s}
}

// Operator combines two subtrees.
func Operator(op Op, left, right *Command) *Command {
	return &Command{Op: op, Left: left, Right: right}
}

// Simple builds a leaf running verb with literal params.
func Simple(verb string, params ...string) *Command {
	s := &SimpleCommand{Verb: Lit(verb)}
	for _, p := range params {
		s.Params = append(s.Params, Lit(p))
	}
	return Leaf(s)
}

// IsLeaf reports whether the node holds a simple command.
func (c *Command) IsLeaf() bool {
	return c.Op == OpNone
}

// Validate checks the shape of the tree: leaves have a verb and no children,
// operators have exactly two children.
func (c *Command) Validate() error {
	if c == nil {
		return ErrMissingChild
	}

	if c.IsLeaf() {
		switch {
		case c.Left != nil || c.Right != nil:
			return ErrLeafWithChildren
		case c.Scmd == nil || c.Scmd.Verb == nil:
			return ErrMissingVerb
		}
		return nil
	}

	if _, ok := opSymbols[c.Op]; !ok {
		return fmt.Errorf("unknown operator %v", c.Op)
	}
	if c.Left == nil || c.Right == nil {
		return fmt.Errorf("%v: %w", c.Op, ErrMissingChild)
	}
	if err := c.Left.Validate(); err != nil {
		return err
	}
	return c.Right.Validate()
}

// String renders the tree in shell-like syntax. Operator nodes are wrapped in
// parentheses so the grouping is unambiguous.
func (c *Command) String() string {
	if c == nil {
		return ""
	}
	if c.IsLeaf() {
		return c.Scmd.String()
	}

	sym, ok := opSymbols[c.Op]
	if !ok {
		sym = c.Op.String()
	}
	return fmt.Sprintf("(%s %s %s)", c.Left, sym, c.Right)
}

func (s *SimpleCommand) String() string {
	if s == nil {
		return ""
	}

	parts := []string{s.Verb.String()}
	for _, p := range s.Params {
		parts = append(parts, p.String())
	}

	if s.In != nil {
		parts = append(parts, "<"+s.In.String())
	}

	switch {
	case s.Out != nil && s.Err != nil && s.Out.String() == s.Err.String():
		op := "&>"
		if s.IOFlags&IOOutAppend != 0 {
			op = "&>>"
		}
		parts = append(parts, op+s.Out.String())
	default:
		if s.Out != nil {
			op := ">"
			if s.IOFlags&IOOutAppend != 0 {
				op = ">>"
			}
			parts = append(parts, op+s.Out.String())
		}
		if s.Err != nil {
			op := "2>"
			if s.IOFlags&IOErrAppend != 0 {
				op = "2>>"
			}
			parts = append(parts, op+s.Err.String())
		}
	}

	return strings.Join(parts, " ")
}
