package internal

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPattern is the tag searched for when no pattern is configured.
const DefaultPattern = "# TODO"

// Pattern - fast interface for line match.
type Pattern interface {
	Match(string) bool
	Desc() string // for logs
}

type RegexPattern struct{ re *regexp.Regexp }

func (p *RegexPattern) Match(s string) bool { return p.re.MatchString(s) }
func (p *RegexPattern) Desc() string        { return "re:" + p.re.String() }

type PlainPattern struct {
	s           string
	insensitive bool
}

func (p *PlainPattern) Match(s string) bool {
	if p.insensitive {
		return strings.Contains(strings.ToLower(s), p.s)
	}
	return strings.Contains(s, p.s)
}

func (p *PlainPattern) Desc() string {
	if p.insensitive {
		return "plain:i:" + p.s
	}
	return p.s
}

// ParsePattern compiles a single tag pattern.
// Forms:
//
//	# TODO          literal substring
//	plain:i:todo    case-insensitive substring
//	re:#\s*TODO\b   regular expression search
//
// An empty expression selects DefaultPattern.
func ParsePattern(expr string) (Pattern, error) {
	switch {
	case expr == "":
		return &PlainPattern{s: DefaultPattern}, nil
	case strings.HasPrefix(expr, "re:"):
		if expr[3:] == "" {
			return nil, &ConfigError{Kind: ErrInvalidPattern, Detail: "empty regular expression"}
		}
		re, err := regexp.Compile(expr[3:])
		if err != nil {
			return nil, &ConfigError{Kind: ErrInvalidPattern, Detail: fmt.Sprintf("%q: %v", expr, err)}
		}
		return &RegexPattern{re: re}, nil
	case strings.HasPrefix(expr, "plain:i:"):
		if expr[8:] == "" {
			return nil, &ConfigError{Kind: ErrInvalidPattern, Detail: "empty case-insensitive literal"}
		}
		return &PlainPattern{s: strings.ToLower(expr[8:]), insensitive: true}, nil
	default:
		return &PlainPattern{s: expr}, nil
	}
}
