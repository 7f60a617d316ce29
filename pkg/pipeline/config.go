package pipeline

import (
	"fmt"
	"strings"
)

// CaseConversion selects how the final key is cased.
type CaseConversion string

const (
	CaseNone  CaseConversion = "none"
	CaseLower CaseConversion = "lower"
	CaseUpper CaseConversion = "upper"
)

// ParseCaseConversion maps the convert input to a CaseConversion. Empty means upper.
func ParseCaseConversion(s string) (CaseConversion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(CaseUpper):
		return CaseUpper, nil
	case string(CaseLower):
		return CaseLower, nil
	case string(CaseNone):
		return CaseNone, nil
	default:
		return "", fmt.Errorf("unknown case conversion %q (expected lower, upper or none)", s)
	}
}

func (c CaseConversion) apply(key string) string {
	switch c {
	case CaseNone:
		return key
	case CaseLower:
		return strings.ToLower(key)
	default:
		// zero value behaves like upper
		return strings.ToUpper(key)
	}
}

// Configuration describes one pipeline run.
type Configuration struct {
	// IncludePatterns, when non-empty, keeps only keys matching at least one pattern.
	IncludePatterns []string
	// ExcludePatterns are appended after the reserved-key rule.
	ExcludePatterns []string

	AddPrefix    string
	AddSuffix    string
	RemovePrefix string
	RemoveSuffix string

	CaseConversion   CaseConversion
	OverrideExisting bool
	TraceLogging     bool
}

// DefaultConfiguration returns a Configuration with every option at its default.
func DefaultConfiguration() Configuration {
	return Configuration{CaseConversion: CaseUpper}
}
