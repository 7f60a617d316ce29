// Package pipeline filters and renames secret keys and publishes them as
// environment variables.
//
// A Pipeline is compiled once from a Configuration and then processes every key
// of a SecretMap sequentially:
//
//	include filter -> exclude filter -> rename -> conflict check -> export or skip
//
// The environment, the export sink and the trace sink are all supplied by the
// caller, so the pipeline itself never touches the process environment.
package pipeline

import (
	"fmt"
	"strings"
)

// Level is the severity of a trace message.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Environment is looked up for conflict checks.
type Environment interface {
	LookupEnv(name string) (string, bool)
}

// Exporter publishes one variable. Implementations are expected to make the
// exported value visible to their Environment for the rest of the run.
type Exporter interface {
	ExportVariable(name, value string) error
}

// Logger receives trace messages.
type Logger interface {
	Log(level Level, message string)
}

// Action is the routing decision taken for one key.
type Action string

const (
	ActionPublished       Action = "published"
	ActionSkippedFiltered Action = "skipped-filtered"
	ActionSkippedExisting Action = "skipped-existing"
)

// Result is produced for every input key.
type Result struct {
	Key      string
	FinalKey string
	Value    string
	Action   Action
	// Rule names the include/exclude rule responsible for a skipped-filtered
	// result, or RuleInvalidName when the renamed key cannot be a variable name.
	Rule string
	// Overrode is set when a published value replaced an existing one.
	Overrode bool
}

// RuleInvalidName is the Rule of keys whose final name is empty or holds '=' or NUL.
const RuleInvalidName = "invalid-name"

type Option func(*Pipeline)

func WithLogger(l Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

type Pipeline struct {
	cfg     Configuration
	include []FilterRule
	exclude []FilterRule
	logger  Logger
}

// New compiles cfg. Any pattern that fails to compile aborts with an ErrInvalidPattern ConfigurationError.
func New(cfg Configuration, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{cfg: cfg, logger: nopLogger{}}
	for _, o := range opts {
		o(p)
	}

	include, err := compileRules(cfg.IncludePatterns)
	if err != nil {
		return nil, err
	}
	p.include = include

	userExclude, err := compileRules(cfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	p.exclude = append([]FilterRule{ReservedRule{Name: ReservedKey}}, userExclude...)

	return p, nil
}

// Run compiles cfg and processes secrets in one call.
func Run(secrets *SecretMap, cfg Configuration, env Environment, exporter Exporter, opts ...Option) ([]Result, error) {
	p, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return p.Run(secrets, env, exporter)
}

// Run processes every key of secrets in order. It only fails when the exporter
// does; the results of the keys completed before the failing one are returned
// alongside the error.
func (p *Pipeline) Run(secrets *SecretMap, env Environment, exporter Exporter) ([]Result, error) {
	p.traceConfiguration()

	results := make([]Result, 0, secrets.Len())
	for _, key := range secrets.Keys() {
		value, _ := secrets.Get(key)
		res, err := p.process(key, value, env, exporter)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Filter reports whether key survives the include and exclude filters. When it
// does not, the rule responsible is returned.
func (p *Pipeline) Filter(key string) (bool, string) {
	if len(p.include) > 0 {
		if firstMatch(p.include, key) == nil {
			p.trace(LevelInfo, fmt.Sprintf("excluding %s as not in include list", key))
			return false, "include"
		}
	}
	if r := firstMatch(p.exclude, key); r != nil {
		p.trace(LevelDebug, fmt.Sprintf("excluding %s as in exclude list (%s)", key, r.String()))
		return false, r.String()
	}
	return true, ""
}

// Rename applies remove-prefix, remove-suffix, add-prefix, add-suffix and case
// conversion, in that order. Each step is independent of the others.
func (p *Pipeline) Rename(key string) string {
	name := key
	if pre := p.cfg.RemovePrefix; pre != "" && strings.HasPrefix(name, pre) {
		name = strings.TrimPrefix(name, pre)
		p.trace(LevelDebug, fmt.Sprintf("prefix removal %s -> %s", key, name))
	}
	if suf := p.cfg.RemoveSuffix; suf != "" && strings.HasSuffix(name, suf) {
		before := name
		name = strings.TrimSuffix(name, suf)
		p.trace(LevelDebug, fmt.Sprintf("suffix removal %s -> %s", before, name))
	}
	if pre := p.cfg.AddPrefix; pre != "" {
		before := name
		name = pre + name
		p.trace(LevelDebug, fmt.Sprintf("prefix add %s -> %s", before, name))
	}
	if suf := p.cfg.AddSuffix; suf != "" {
		before := name
		name = name + suf
		p.trace(LevelDebug, fmt.Sprintf("suffix add %s -> %s", before, name))
	}
	return p.cfg.CaseConversion.apply(name)
}

func (p *Pipeline) process(key, value string, env Environment, exporter Exporter) (Result, error) {
	res := Result{Key: key, Value: value}

	if ok, rule := p.Filter(key); !ok {
		res.Action = ActionSkippedFiltered
		res.Rule = rule
		return res, nil
	}

	res.FinalKey = p.Rename(key)
	if !ValidName(res.FinalKey) {
		p.logger.Log(LevelWarning, fmt.Sprintf("Skipping %s: %q is not a valid variable name", key, res.FinalKey))
		res.Action = ActionSkippedFiltered
		res.Rule = RuleInvalidName
		return res, nil
	}

	if existing, ok := env.LookupEnv(res.FinalKey); ok && existing != "" {
		if !p.cfg.OverrideExisting {
			p.logger.Log(LevelInfo, fmt.Sprintf("Skip overwriting secret %s", res.FinalKey))
			res.Action = ActionSkippedExisting
			return res, nil
		}
		p.logger.Log(LevelWarning, fmt.Sprintf("Will re-write %q environment variable.", res.FinalKey))
		res.Overrode = true
	}

	if err := exporter.ExportVariable(res.FinalKey, value); err != nil {
		return Result{}, fmt.Errorf("failed to export %s: %w", res.FinalKey, err)
	}
	res.Action = ActionPublished
	p.logger.Log(LevelInfo, fmt.Sprintf("Exported envvar -> %s", res.FinalKey))
	return res, nil
}

// ValidName reports whether name can be set as an environment variable.
func ValidName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "=\x00")
}

func (p *Pipeline) traceConfiguration() {
	if !p.cfg.TraceLogging {
		return
	}
	p.trace(LevelDebug, fmt.Sprintf("Using include list: %s", ruleNames(p.include)))
	p.trace(LevelDebug, fmt.Sprintf("Using exclude list: %s", ruleNames(p.exclude)))
	p.trace(LevelDebug, fmt.Sprintf("Adding prefix: %s", p.cfg.AddPrefix))
	p.trace(LevelDebug, fmt.Sprintf("Adding suffix: %s", p.cfg.AddSuffix))
	p.trace(LevelDebug, fmt.Sprintf("Removing prefix: %s", p.cfg.RemovePrefix))
	p.trace(LevelDebug, fmt.Sprintf("Removing suffix: %s", p.cfg.RemoveSuffix))
	p.trace(LevelDebug, fmt.Sprintf("Override: %t", p.cfg.OverrideExisting))
	p.trace(LevelDebug, fmt.Sprintf("Convert: %s", p.cfg.CaseConversion))
}

// trace only emits when trace logging is on.
func (p *Pipeline) trace(level Level, msg string) {
	if p.cfg.TraceLogging {
		p.logger.Log(level, msg)
	}
}

type nopLogger struct{}

func (nopLogger) Log(Level, string) {}
