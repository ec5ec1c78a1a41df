// Package parse turns shell text into command trees.
//
// Only the subset the evaluator can run is accepted: simple commands with
// literal, quoted and $NAME words, the ; & && || and | operators, subshell
// grouping and the <, >, >>, 2>, 2>>, &>, &>> and 2>&1 redirections.
// Everything else is rejected with ErrUnsupported.
package parse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/josephlewis42/treesh/core/tree"
	"mvdan.cc/sh/v3/syntax"
)

var (
	// ErrUnsupported is returned for valid shell syntax the evaluator can't
	// represent.
	ErrUnsupported = errors.New("unsupported syntax")
	// ErrTrailingBackground is returned when & isn't followed by a command.
	ErrTrailingBackground = errors.New("& must be followed by a command")

	nameRegex = regexp.MustCompile(`^\w+$`)
)

// Line parses a single line. A line without commands produces a nil tree.
func Line(line string) (*tree.Command, error) {
	return File(strings.NewReader(line), "")
}

// File parses a whole script. Statements are chained in order.
func File(r io.Reader, name string) (*tree.Command, error) {
	prog, err := syntax.NewParser().Parse(r, name)
	if err != nil {
		return nil, err
	}

	return convertStmts(prog.Stmts)
}

func unsupported(node syntax.Node, what string) error {
	return fmt.Errorf("%s: %w: %s", node.Pos(), ErrUnsupported, what)
}

// convertStmts folds statements from the left, statements ending in & run in
// parallel with whatever follows them.
func convertStmts(stmts []*syntax.Stmt) (*tree.Command, error) {
	var acc *tree.Command
	op := tree.OpSequential

	for _, stmt := range stmts {
		node, err := convertStmt(stmt)
		if err != nil {
			return nil, err
		}

		if acc == nil {
			acc = node
		} else {
			acc = tree.Operator(op, acc, node)
		}

		op = tree.OpSequential
		if stmt.Background {
			op = tree.OpParallel
		}
	}

	if op == tree.OpParallel {
		return nil, ErrTrailingBackground
	}

	return acc, nil
}

func convertStmt(stmt *syntax.Stmt) (*tree.Command, error) {
	switch {
	case stmt.Negated:
		return nil, unsupported(stmt, "negation")
	case stmt.Coprocess:
		return nil, unsupported(stmt, "coprocess")
	}

	switch cmd := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		return convertCall(cmd, stmt.Redirs)

	case *syntax.BinaryCmd:
		if len(stmt.Redirs) > 0 {
			return nil, unsupported(stmt.Redirs[0], "redirection of a compound command")
		}

		var op tree.Op
		switch cmd.Op {
		case syntax.AndStmt:
			op = tree.OpConditionalZero
		case syntax.OrStmt:
			op = tree.OpConditionalNonZero
		case syntax.Pipe:
			op = tree.OpPipe
		default:
			return nil, unsupported(cmd, cmd.Op.String())
		}

		left, err := convertStmt(cmd.X)
		if err != nil {
			return nil, err
		}
		right, err := convertStmt(cmd.Y)
		if err != nil {
			return nil, err
		}
		return tree.Operator(op, left, right), nil

	case *syntax.Subshell:
		return convertGroup(stmt, cmd.Stmts)

	case *syntax.Block:
		return convertGroup(stmt, cmd.Stmts)

	case nil:
		return nil, unsupported(stmt, "statement without command")

	default:
		return nil, unsupported(cmd, describe(cmd))
	}
}

func convertGroup(stmt *syntax.Stmt, stmts []*syntax.Stmt) (*tree.Command, error) {
	if len(stmt.Redirs) > 0 {
		return nil, unsupported(stmt.Redirs[0], "redirection of a compound command")
	}
	if len(stmts) == 0 {
		return nil, unsupported(stmt, "empty group")
	}
	return convertStmts(stmts)
}

func convertCall(call *syntax.CallExpr, redirs []*syntax.Redirect) (*tree.Command, error) {
	if len(call.Args) == 0 {
		if len(redirs) > 0 {
			return nil, unsupported(redirs[0], "redirection of an assignment")
		}
		return convertAssigns(call.Assigns)
	}

	if len(call.Assigns) > 0 {
		return nil, unsupported(call.Assigns[0], "assignment scoped to a command")
	}

	s := &tree.SimpleCommand{}
	for i, arg := range call.Args {
		word, err := convertWord(arg)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			s.Verb = word
		} else {
			s.Params = append(s.Params, word)
		}
	}

	for _, redir := range redirs {
		if err := convertRedirect(s, redir); err != nil {
			return nil, err
		}
	}

	return tree.Leaf(s), nil
}

// convertAssigns turns NAME=value statements into assignment leaves run one
// after another.
func convertAssigns(assigns []*syntax.Assign) (*tree.Command, error) {
	var acc *tree.Command
	for _, assign := range assigns {
		switch {
		case assign.Name == nil:
			continue
		case assign.Append, assign.Naked, assign.Index != nil, assign.Array != nil:
			return nil, unsupported(assign, "assignment form")
		}

		verb := tree.Lit(assign.Name.Value + "=")
		if assign.Value != nil {
			value, err := convertWord(assign.Value)
			if err != nil {
				return nil, err
			}
			verb.Parts = append(verb.Parts, value.Parts...)
		}

		node := tree.Leaf(&tree.SimpleCommand{Verb: verb})
		if acc == nil {
			acc = node
		} else {
			acc = tree.Operator(tree.OpSequential, acc, node)
		}
	}

	if acc == nil {
		return nil, ErrUnsupported
	}
	return acc, nil
}

func convertRedirect(s *tree.SimpleCommand, redir *syntax.Redirect) error {
	fd := ""
	if redir.N != nil {
		fd = redir.N.Value
	}

	// 2>&1 reuses the output target, so it must come after it.
	if redir.Op == syntax.DplOut {
		if fd == "2" && wordString(redir.Word) == "1" && s.Out != nil {
			s.Err = s.Out
			s.IOFlags &^= tree.IOErrAppend
			if s.IOFlags&tree.IOOutAppend != 0 {
				s.IOFlags |= tree.IOErrAppend
			}
			return nil
		}
		return unsupported(redir, "descriptor duplication other than 2>&1 after >")
	}

	target, err := convertWord(redir.Word)
	if err != nil {
		return err
	}

	switch {
	case redir.Op == syntax.RdrIn && (fd == "" || fd == "0"):
		s.In = target

	case (redir.Op == syntax.RdrOut || redir.Op == syntax.ClbOut) && (fd == "" || fd == "1"):
		s.Out = target
		s.IOFlags &^= tree.IOOutAppend
	case redir.Op == syntax.AppOut && (fd == "" || fd == "1"):
		s.Out = target
		s.IOFlags |= tree.IOOutAppend

	case (redir.Op == syntax.RdrOut || redir.Op == syntax.ClbOut) && fd == "2":
		s.Err = target
		s.IOFlags &^= tree.IOErrAppend
	case redir.Op == syntax.AppOut && fd == "2":
		s.Err = target
		s.IOFlags |= tree.IOErrAppend

	case redir.Op == syntax.RdrAll && fd == "":
		s.Out, s.Err = target, target
		s.IOFlags &^= tree.IOOutAppend | tree.IOErrAppend
	case redir.Op == syntax.AppAll && fd == "":
		s.Out, s.Err = target, target
		s.IOFlags |= tree.IOOutAppend | tree.IOErrAppend

	default:
		return unsupported(redir, fd+redir.Op.String())
	}

	return nil
}

func convertWord(word *syntax.Word) (*tree.Word, error) {
	out := &tree.Word{}
	if err := appendParts(out, word.Parts, false); err != nil {
		return nil, err
	}
	if len(out.Parts) == 0 {
		out.Parts = append(out.Parts, tree.WordPart{})
	}
	return out, nil
}

func appendParts(out *tree.Word, parts []syntax.WordPart, quoted bool) error {
	for _, part := range parts {
		switch part := part.(type) {
		case *syntax.Lit:
			out.Parts = append(out.Parts, tree.WordPart{Value: unescape(part.Value, quoted)})

		case *syntax.SglQuoted:
			if part.Dollar {
				return unsupported(part, "$'...' quoting")
			}
			out.Parts = append(out.Parts, tree.WordPart{Value: part.Value})

		case *syntax.DblQuoted:
			if part.Dollar {
				return unsupported(part, `$"..." quoting`)
			}
			if err := appendParts(out, part.Parts, true); err != nil {
				return err
			}

		case *syntax.ParamExp:
			if !isPlainParam(part) {
				return unsupported(part, "parameter expansion")
			}
			out.Parts = append(out.Parts, tree.WordPart{Value: part.Param.Value, Expand: true})

		default:
			return unsupported(part, describe(part))
		}
	}
	return nil
}

func isPlainParam(pe *syntax.ParamExp) bool {
	return pe.Param != nil &&
		nameRegex.MatchString(pe.Param.Value) &&
		!pe.Excl && !pe.Length && !pe.Width &&
		pe.Index == nil && pe.Slice == nil && pe.Repl == nil &&
		pe.Names == 0 && pe.Exp == nil
}

// unescape removes the backslashes the shell would have consumed.
func unescape(s string, quoted bool) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}

		next := s[i+1]
		switch {
		case next == '\n':
			i++
		case !quoted || strings.IndexByte("$`\"\\", next) >= 0:
			sb.WriteByte(next)
			i++
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func wordString(word *syntax.Word) string {
	if word == nil {
		return ""
	}
	return word.Lit()
}

func describe(node syntax.Node) string {
	buf := &bytes.Buffer{}
	if err := syntax.NewPrinter().Print(buf, node); err != nil {
		return fmt.Sprintf("%T", node)
	}
	return buf.String()
}
