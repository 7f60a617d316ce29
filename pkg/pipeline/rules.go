package pipeline

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// ReservedKey is always excluded: the runner already exports it on its own.
const ReservedKey = "github_token"

// FilterRule is either a ReservedRule or a PatternRule.
type FilterRule interface {
	Match(key string) bool
	String() string
}

// ReservedRule matches exactly one key name, ignoring case.
type ReservedRule struct {
	Name string
}

func (r ReservedRule) Match(key string) bool { return strings.EqualFold(key, r.Name) }

func (r ReservedRule) String() string { return "reserved:" + r.Name }

// PatternRule matches keys containing a match of a user-supplied regex.
type PatternRule struct {
	Source string
	re     *regexp2.Regexp
}

// CompilePattern compiles source with ECMAScript semantics so patterns written
// for JavaScript-based tooling keep their meaning.
func CompilePattern(source string) (*PatternRule, error) {
	re, err := regexp2.Compile(source, regexp2.ECMAScript)
	if err != nil {
		return nil, NewConfigurationError(ErrInvalidPattern, source, err)
	}
	return &PatternRule{Source: source, re: re}, nil
}

// Match reports whether the pattern matches anywhere in key. The pattern is
// compiled without a match timeout, so regexp2 never returns an error here.
func (r *PatternRule) Match(key string) bool {
	ok, err := r.re.MatchString(key)
	return err == nil && ok
}

func (r *PatternRule) String() string { return r.Source }

func compileRules(patterns []string) ([]FilterRule, error) {
	rules := make([]FilterRule, 0, len(patterns))
	for _, p := range patterns {
		rule, err := CompilePattern(p)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func firstMatch(rules []FilterRule, key string) FilterRule {
	for _, r := range rules {
		if r.Match(key) {
			return r
		}
	}
	return nil
}

func ruleNames(rules []FilterRule) string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.String()
	}
	return strings.Join(names, ", ")
}
