package eval

import (
	"github.com/josephlewis42/treesh/core/tree"
	"github.com/josephlewis42/treesh/core/vos"
)

// WordResolver turns words into the strings a command sees.
type WordResolver interface {
	// Resolve returns the final value of the word.
	Resolve(w *tree.Word) string
	// Argv returns the verb followed by the params.
	Argv(s *tree.SimpleCommand) []string
}

// EnvResolver substitutes variable parts from an environment. Undefined
// variables become the empty string.
type EnvResolver struct {
	Env vos.VEnv
}

var _ WordResolver = (*EnvResolver)(nil)

// NewEnvResolver creates a resolver reading from env.
func NewEnvResolver(env vos.VEnv) WordResolver {
	return &EnvResolver{Env: env}
}

// Resolve implements WordResolver.Resolve.
func (r *EnvResolver) Resolve(w *tree.Word) string {
	return w.Resolve(r.Env.Getenv)
}

// Argv implements WordResolver.Argv.
func (r *EnvResolver) Argv(s *tree.SimpleCommand) []string {
	argv := make([]string, 0, len(s.Params)+1)
	argv = append(argv, r.Resolve(s.Verb))
	for _, param := range s.Params {
		argv = append(argv, r.Resolve(param))
	}
	return argv
}
