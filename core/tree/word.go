package tree

import (
	"regexp"
	"strings"
)

var (
	envRegex = regexp.MustCompile(`\$\{\w+\}|\$\w+`)
)

// WordPart is one piece of a word: either literal text or the name of an
// environment variable to substitute.
type WordPart struct {
	Value  string
	Expand bool
}

// Word is a token whose final value is only known once its variable parts
// are resolved against an environment.
type Word struct {
	Parts []WordPart
}

// Lit creates a word with a single literal part.
func Lit(s string) *Word {
	return &Word{Parts: []WordPart{{Value: s}}}
}

// Var creates a word referencing a single environment variable.
func Var(name string) *Word {
	return &Word{Parts: []WordPart{{Value: name, Expand: true}}}
}

// ParseWord splits s into literal and $NAME / ${NAME} parts.
func ParseWord(s string) *Word {
	w := &Word{}

	last := 0
	for _, loc := range envRegex.FindAllStringIndex(s, -1) {
		if loc[0] > last {
			w.Parts = append(w.Parts, WordPart{Value: s[last:loc[0]]})
		}
		name := strings.Trim(s[loc[0]:loc[1]], "${}")
		w.Parts = append(w.Parts, WordPart{Value: name, Expand: true})
		last = loc[1]
	}

	if last < len(s) || len(w.Parts) == 0 {
		w.Parts = append(w.Parts, WordPart{Value: s[last:]})
	}

	return w
}

// Resolve joins the parts of the word, looking up variable parts with
// getenv.
func (w *Word) Resolve(getenv func(string) string) string {
	if w == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range w.Parts {
		if part.Expand {
			sb.WriteString(getenv(part.Value))
		} else {
			sb.WriteString(part.Value)
		}
	}
	return sb.String()
}

// String renders the unresolved word, variables written as ${NAME}.
func (w *Word) String() string {
	if w == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range w.Parts {
		if part.Expand {
			sb.WriteString("${" + part.Value + "}")
		} else {
			sb.WriteString(part.Value)
		}
	}
	return sb.String()
}
