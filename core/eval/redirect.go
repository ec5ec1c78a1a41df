package eval

import (
	"io"
	"os"

	"github.com/josephlewis42/treesh/core/tree"
	"github.com/josephlewis42/treesh/core/vos"
	"github.com/spf13/afero"
)

type listCloser []io.Closer

func (lc listCloser) Close() error {
	var lastErr error
	for _, v := range lc {
		if err := v.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// redirect opens the redirection targets of s and returns p's stdio with
// them bound in. The caller closes the returned files once the command is
// done. p's own stdio is left alone.
func (e *Evaluator) redirect(p *proc, words WordResolver, s *tree.SimpleCommand) (vos.VIO, io.Closer, error) {
	var toClose listCloser
	stdio := &vos.VIOAdapter{
		IStdin:  p.io.Stdin(),
		IStdout: p.io.Stdout(),
		IStderr: p.io.Stderr(),
	}

	fail := func(err error) (vos.VIO, io.Closer, error) {
		toClose.Close()
		return nil, nil, err
	}

	if s.In != nil {
		f, err := e.fs.OpenFile(vos.Abs(p.dir, words.Resolve(s.In)), os.O_RDONLY, 0)
		if err != nil {
			return fail(err)
		}
		toClose = append(toClose, f)
		stdio.IStdin = f
	}

	var outPath string
	if s.Out != nil {
		outPath = vos.Abs(p.dir, words.Resolve(s.Out))
		f, err := openOutput(e.fs, outPath, s.IOFlags&tree.IOOutAppend != 0)
		if err != nil {
			return fail(err)
		}
		toClose = append(toClose, f)
		stdio.IStdout = f
	}

	if s.Err != nil {
		errPath := vos.Abs(p.dir, words.Resolve(s.Err))
		if s.Out != nil && errPath == outPath {
			// Both streams share one open file so neither truncates the other.
			stdio.IStderr = stdio.IStdout
		} else {
			f, err := openOutput(e.fs, errPath, s.IOFlags&tree.IOErrAppend != 0)
			if err != nil {
				return fail(err)
			}
			toClose = append(toClose, f)
			stdio.IStderr = f
		}
	}

	return stdio, toClose, nil
}

func openOutput(fsys afero.Fs, path string, append bool) (afero.File, error) {
	flags := os.O_WRONLY | os.O_CREATE
	if append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	return fsys.OpenFile(path, flags, 0666)
}
