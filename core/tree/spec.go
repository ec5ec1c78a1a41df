package tree

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var specOps = map[string]Op{
	"sequential": OpSequential,
	"parallel":   OpParallel,
	"pipe":       OpPipe,
	"and":        OpConditionalZero,
	"or":         OpConditionalNonZero,
}

// Spec is the on-disk (YAML or JSON) form of a command tree.
//
// Operator nodes set Op, Left and Right. Leaves set Command, which is split
// using shell quoting rules, plus optional redirections.
type Spec struct {
	Op    string `json:"op,omitempty" validate:"omitempty,oneof=sequential parallel pipe and or"`
	Left  *Spec  `json:"left,omitempty"`
	Right *Spec  `json:"right,omitempty"`

	Command   string `json:"command,omitempty" validate:"required_without=Op"`
	In        string `json:"in,omitempty"`
	Out       string `json:"out,omitempty"`
	Err       string `json:"err,omitempty"`
	AppendOut bool   `json:"append_out,omitempty"`
	AppendErr bool   `json:"append_err,omitempty"`
}

// Validate the spec for basic semantic errors.
func (s *Spec) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(s)
}

// Tree converts the spec into a validated command tree.
func (s *Spec) Tree() (*Command, error) {
	if s == nil {
		return nil, ErrMissingChild
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var out *Command
	if s.Op == "" {
		scmd, err := s.simpleCommand()
		if err != nil {
			return nil, err
		}
		out = Leaf(scmd)
	} else {
		if s.Command != "" {
			return nil, fmt.Errorf("%s: operator must not have a command", s.Op)
		}
		if s.Left == nil || s.Right == nil {
			return nil, fmt.Errorf("%s: %w", s.Op, ErrMissingChild)
		}
		left, err := s.Left.Tree()
		if err != nil {
			return nil, err
		}
		right, err := s.Right.Tree()
		if err != nil {
			return nil, err
		}
		out = Operator(specOps[s.Op], left, right)
	}

	return out, out.Validate()
}

func (s *Spec) simpleCommand() (*SimpleCommand, error) {
	if s.Left != nil || s.Right != nil {
		return nil, ErrLeafWithChildren
	}

	tokens, err := shlex.Split(s.Command, true)
	if err != nil {
		return nil, fmt.Errorf("command %q: %w", s.Command, err)
	}
	if len(tokens) == 0 {
		return nil, ErrMissingVerb
	}

	out := &SimpleCommand{Verb: ParseWord(tokens[0])}
	for _, tok := range tokens[1:] {
		out.Params = append(out.Params, ParseWord(tok))
	}

	if s.In != "" {
		out.In = ParseWord(s.In)
	}
	if s.Out != "" {
		out.Out = ParseWord(s.Out)
	}
	if s.Err != "" {
		out.Err = ParseWord(s.Err)
	}
	if s.AppendOut {
		out.IOFlags |= IOOutAppend
	}
	if s.AppendErr {
		out.IOFlags |= IOErrAppend
	}

	return out, nil
}

// Unmarshal parses a YAML or JSON tree file.
func Unmarshal(data []byte) (*Command, error) {
	var spec Spec
	if err := yaml.UnmarshalStrict(data, &spec); err != nil {
		return nil, err
	}
	return spec.Tree()
}

// LoadFile reads and parses the tree file at path.
func LoadFile(fs afero.Fs, path string) (*Command, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	cmd, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cmd, nil
}
