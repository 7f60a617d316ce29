package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// liveEnv is an Environment and Exporter backed by a map, like a process environment.
type liveEnv struct {
	vars    map[string]string
	exports []string
}

func newLiveEnv(vars map[string]string) *liveEnv {
	if vars == nil {
		vars = map[string]string{}
	}
	return &liveEnv{vars: vars}
}

func (e *liveEnv) LookupEnv(name string) (string, bool) {
	v, ok := e.vars[name]
	return v, ok
}

func (e *liveEnv) ExportVariable(name, value string) error {
	e.vars[name] = value
	e.exports = append(e.exports, name)
	return nil
}

type failingExporter struct{ err error }

func (f failingExporter) ExportVariable(string, string) error { return f.err }

// failOnExporter exports into env until it meets name.
type failOnExporter struct {
	name string
	env  *liveEnv
}

func (f *failOnExporter) ExportVariable(name, value string) error {
	if name == f.name {
		return errors.New("setenv: invalid argument")
	}
	return f.env.ExportVariable(name, value)
}

type logLine struct {
	level Level
	msg   string
}

type recordingLogger struct{ lines []logLine }

func (r *recordingLogger) Log(level Level, msg string) {
	r.lines = append(r.lines, logLine{level, msg})
}

func (r *recordingLogger) has(level Level, msg string) bool {
	for _, l := range r.lines {
		if l.level == level && l.msg == msg {
			return true
		}
	}
	return false
}

func inputSecrets() *SecretMap {
	s := NewSecretMap()
	s.Set("alice_bob", "low_value")
	s.Set("FOO", "BAR")
	s.Set("PREFIX_SECRET_1", "VALUE_1")
	s.Set("PREFIX_SECRET_2", "VALUE_2")
	s.Set("SECRET_1_SUFFIX", "VALUE_1")
	s.Set("SECRET_2_SUFFIX", "VALUE_2")
	return s
}

func run(t *testing.T, secrets *SecretMap, cfg Configuration, env *liveEnv) []Result {
	t.Helper()
	results, err := Run(secrets, cfg, env, env)
	require.NoError(t, err)
	require.Len(t, results, secrets.Len())
	return results
}

func resultFor(results []Result, key string) Result {
	for _, r := range results {
		if r.Key == key {
			return r
		}
	}
	return Result{}
}

// ---------------------------------------------------------------------------
// Filtering
// ---------------------------------------------------------------------------

func TestRun_NoOptionsExportsEverythingUppercased(t *testing.T) {
	env := newLiveEnv(nil)
	run(t, inputSecrets(), DefaultConfiguration(), env)

	assert.Equal(t, map[string]string{
		"ALICE_BOB":       "low_value",
		"FOO":             "BAR",
		"PREFIX_SECRET_1": "VALUE_1",
		"PREFIX_SECRET_2": "VALUE_2",
		"SECRET_1_SUFFIX": "VALUE_1",
		"SECRET_2_SUFFIX": "VALUE_2",
	}, env.vars)
	assert.Equal(t, []string{"ALICE_BOB", "FOO", "PREFIX_SECRET_1", "PREFIX_SECRET_2", "SECRET_1_SUFFIX", "SECRET_2_SUFFIX"}, env.exports)
}

func TestRun_Exclude(t *testing.T) {
	tests := []struct {
		name     string
		exclude  []string
		excluded []string
	}{
		{"single variable", []string{"alice_bob"}, []string{"alice_bob"}},
		{"many variables", []string{"alice_bob", "FOO"}, []string{"alice_bob", "FOO"}},
		{"regex", []string{"SECRET"}, []string{"PREFIX_SECRET_1", "PREFIX_SECRET_2", "SECRET_1_SUFFIX", "SECRET_2_SUFFIX"}},
		{"suffix regex", []string{".+_SUFFIX$"}, []string{"SECRET_1_SUFFIX", "SECRET_2_SUFFIX"}},
		{"prefix regex", []string{"^PREFIX_.+"}, []string{"PREFIX_SECRET_1", "PREFIX_SECRET_2"}},
		{"no match", []string{"^PREFIX_$"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfiguration()
			cfg.CaseConversion = CaseNone
			cfg.ExcludePatterns = tt.exclude
			env := newLiveEnv(nil)
			results := run(t, inputSecrets(), cfg, env)

			for _, r := range results {
				if contains(tt.excluded, r.Key) {
					assert.Equal(t, ActionSkippedFiltered, r.Action, r.Key)
					assert.NotContains(t, env.vars, r.Key)
				} else {
					assert.Equal(t, ActionPublished, r.Action, r.Key)
					assert.Equal(t, r.Value, env.vars[r.Key])
				}
			}
		})
	}
}

func TestRun_Include(t *testing.T) {
	tests := []struct {
		name     string
		include  []string
		included []string
	}{
		{"single variable", []string{"alice_bob"}, []string{"alice_bob"}},
		{"many variables", []string{"alice_bob", "FOO"}, []string{"alice_bob", "FOO"}},
		{"regex", []string{"_SUFFIX"}, []string{"SECRET_1_SUFFIX", "SECRET_2_SUFFIX"}},
		{"prefix regex", []string{"^PREFIX_.+"}, []string{"PREFIX_SECRET_1", "PREFIX_SECRET_2"}},
		{"suffix regex", []string{".+_SUFFIX$"}, []string{"SECRET_1_SUFFIX", "SECRET_2_SUFFIX"}},
		{"no match", []string{"_SPECIAL_SUFFIX$"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfiguration()
			cfg.CaseConversion = CaseNone
			cfg.IncludePatterns = tt.include
			env := newLiveEnv(nil)
			results := run(t, inputSecrets(), cfg, env)

			for _, r := range results {
				if contains(tt.included, r.Key) {
					assert.Equal(t, ActionPublished, r.Action, r.Key)
				} else {
					assert.Equal(t, ActionSkippedFiltered, r.Action, r.Key)
					assert.Equal(t, "include", r.Rule)
				}
			}
			assert.Len(t, env.vars, len(tt.included))
		})
	}
}

func TestRun_IncludeThenExclude(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.IncludePatterns = []string{"SECRET"}
	cfg.ExcludePatterns = []string{"_2"}
	env := newLiveEnv(nil)
	run(t, inputSecrets(), cfg, env)

	assert.Equal(t, map[string]string{
		"PREFIX_SECRET_1": "VALUE_1",
		"SECRET_1_SUFFIX": "VALUE_1",
	}, env.vars)
}

func TestRun_ReservedKeyAlwaysExcluded(t *testing.T) {
	for _, key := range []string{"github_token", "GITHUB_TOKEN", "GitHub_Token"} {
		t.Run(key, func(t *testing.T) {
			s := NewSecretMap()
			s.Set(key, "ghs_xxx")
			s.Set("GITHUB_TOKEN_EXTRA", "kept")

			env := newLiveEnv(nil)
			results := run(t, s, DefaultConfiguration(), env)

			assert.Equal(t, ActionSkippedFiltered, results[0].Action)
			assert.Equal(t, "reserved:github_token", results[0].Rule)
			assert.Equal(t, ActionPublished, results[1].Action)
			assert.Equal(t, map[string]string{"GITHUB_TOKEN_EXTRA": "kept"}, env.vars)
		})
	}
}

func TestRun_ECMAScriptPatterns(t *testing.T) {
	cfg := DefaultConfiguration()
	// negative lookahead is not supported by RE2 but is by JavaScript
	cfg.IncludePatterns = []string{`^(?!PREFIX_).*SECRET`}
	env := newLiveEnv(nil)
	run(t, inputSecrets(), cfg, env)

	assert.Equal(t, map[string]string{
		"SECRET_1_SUFFIX": "VALUE_1",
		"SECRET_2_SUFFIX": "VALUE_2",
	}, env.vars)
}

func TestNew_InvalidPattern(t *testing.T) {
	for _, cfg := range []Configuration{
		{IncludePatterns: []string{"FOO", "(unclosed"}},
		{ExcludePatterns: []string{"[a-"}},
	} {
		_, err := New(cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidPattern)

		var cerr *ConfigurationError
		require.True(t, errors.As(err, &cerr))
		assert.NotEmpty(t, cerr.Input)
	}
}

// ---------------------------------------------------------------------------
// Renaming
// ---------------------------------------------------------------------------

func TestRun_Renaming(t *testing.T) {
	tests := []struct {
		name string
		cfg  Configuration
		want map[string]string
	}{
		{
			name: "remove prefix",
			cfg:  Configuration{RemovePrefix: "PREFIX_", IncludePatterns: []string{"^PREFIX_", "FOO"}},
			want: map[string]string{"SECRET_1": "VALUE_1", "SECRET_2": "VALUE_2", "FOO": "BAR"},
		},
		{
			name: "remove suffix",
			cfg:  Configuration{RemoveSuffix: "_SUFFIX", IncludePatterns: []string{"_SUFFIX$"}},
			want: map[string]string{"SECRET_1": "VALUE_1", "SECRET_2": "VALUE_2"},
		},
		{
			name: "add prefix",
			cfg:  Configuration{AddPrefix: "ABC_", IncludePatterns: []string{"FOO", "alice"}},
			want: map[string]string{"ABC_FOO": "BAR", "ABC_ALICE_BOB": "low_value"},
		},
		{
			name: "add suffix",
			cfg:  Configuration{AddSuffix: "_ABC", IncludePatterns: []string{"FOO"}},
			want: map[string]string{"FOO_ABC": "BAR"},
		},
		{
			name: "remove and add prefix apply independently",
			cfg:  Configuration{RemovePrefix: "PREFIX_", AddPrefix: "APP_", IncludePatterns: []string{"PREFIX_SECRET_1", "FOO"}},
			want: map[string]string{"APP_SECRET_1": "VALUE_1", "APP_FOO": "BAR"},
		},
		{
			name: "all four steps",
			cfg: Configuration{
				RemovePrefix: "PREFIX_", RemoveSuffix: "_1",
				AddPrefix: "X_", AddSuffix: "_Y",
				IncludePatterns: []string{"^PREFIX_SECRET_1$"},
			},
			want: map[string]string{"X_SECRET_Y": "VALUE_1"},
		},
		{
			name: "lower case",
			cfg:  Configuration{CaseConversion: CaseLower, IncludePatterns: []string{"FOO", "alice"}},
			want: map[string]string{"foo": "BAR", "alice_bob": "low_value"},
		},
		{
			name: "no conversion",
			cfg:  Configuration{CaseConversion: CaseNone, AddPrefix: "Ab_", IncludePatterns: []string{"alice"}},
			want: map[string]string{"Ab_alice_bob": "low_value"},
		},
		{
			name: "case applies after prefix",
			cfg:  Configuration{CaseConversion: CaseLower, AddPrefix: "APP_", IncludePatterns: []string{"FOO"}},
			want: map[string]string{"app_foo": "BAR"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newLiveEnv(nil)
			run(t, inputSecrets(), tt.cfg, env)
			assert.Equal(t, tt.want, env.vars)
		})
	}
}

func TestRun_ValueIsNeverTransformed(t *testing.T) {
	s := NewSecretMap()
	s.Set("mixed", "MiXeD value with spaces\nand newline")
	cfg := DefaultConfiguration()
	cfg.CaseConversion = CaseLower
	env := newLiveEnv(nil)
	results := run(t, s, cfg, env)

	assert.Equal(t, "MiXeD value with spaces\nand newline", env.vars["mixed"])
	assert.Equal(t, "mixed", results[0].FinalKey)
}

// ---------------------------------------------------------------------------
// Conflicts
// ---------------------------------------------------------------------------

func TestRun_ExistingWithoutOverride(t *testing.T) {
	s := NewSecretMap()
	s.Set("FOO", "BAR")
	env := newLiveEnv(map[string]string{"FOO": "OVERRIDE"})
	logger := &recordingLogger{}

	cfg := DefaultConfiguration()
	for i := 0; i < 2; i++ {
		results, err := Run(s, cfg, env, env, WithLogger(logger))
		require.NoError(t, err)
		assert.Equal(t, ActionSkippedExisting, results[0].Action)
		assert.Equal(t, "FOO", results[0].FinalKey)
	}
	assert.Equal(t, "OVERRIDE", env.vars["FOO"])
	assert.Empty(t, env.exports)
	assert.True(t, logger.has(LevelInfo, "Skip overwriting secret FOO"))
}

func TestRun_ExistingWithOverride(t *testing.T) {
	s := NewSecretMap()
	s.Set("FOO", "BAR")
	env := newLiveEnv(map[string]string{"FOO": "OVERRIDE"})
	logger := &recordingLogger{}

	cfg := DefaultConfiguration()
	cfg.OverrideExisting = true
	results, err := Run(s, cfg, env, env, WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, ActionPublished, results[0].Action)
	assert.True(t, results[0].Overrode)
	assert.Equal(t, "BAR", env.vars["FOO"])
	assert.True(t, logger.has(LevelWarning, `Will re-write "FOO" environment variable.`))
	assert.True(t, logger.has(LevelInfo, "Exported envvar -> FOO"))
}

func TestRun_EmptyExistingValueIsNotAConflict(t *testing.T) {
	s := NewSecretMap()
	s.Set("FOO", "BAR")
	env := newLiveEnv(map[string]string{"FOO": ""})

	results := run(t, s, DefaultConfiguration(), env)
	assert.Equal(t, ActionPublished, results[0].Action)
	assert.False(t, results[0].Overrode)
	assert.Equal(t, "BAR", env.vars["FOO"])
}

func TestRun_CollisionsObserveEarlierExports(t *testing.T) {
	s := NewSecretMap()
	s.Set("foo", "first")
	s.Set("FOO", "second")

	t.Run("without override the first export stays", func(t *testing.T) {
		env := newLiveEnv(nil)
		results := run(t, s, DefaultConfiguration(), env)
		assert.Equal(t, ActionPublished, results[0].Action)
		assert.Equal(t, ActionSkippedExisting, results[1].Action)
		assert.Equal(t, "first", env.vars["FOO"])
	})

	t.Run("with override the last write wins", func(t *testing.T) {
		cfg := DefaultConfiguration()
		cfg.OverrideExisting = true
		env := newLiveEnv(nil)
		results := run(t, s, cfg, env)
		assert.Equal(t, ActionPublished, results[1].Action)
		assert.True(t, results[1].Overrode)
		assert.Equal(t, "second", env.vars["FOO"])
	})
}

func TestRun_ExporterFailureAborts(t *testing.T) {
	boom := errors.New("disk full")
	results, err := Run(inputSecrets(), DefaultConfiguration(), newLiveEnv(nil), failingExporter{err: boom})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, results)
}

func TestRun_ExporterFailureKeepsCompletedResults(t *testing.T) {
	s := NewSecretMap()
	s.Set("github_token", "ghs")
	s.Set("FIRST", "1")
	s.Set("SECOND", "2")

	exporter := &failOnExporter{name: "SECOND", env: newLiveEnv(nil)}
	results, err := Run(s, DefaultConfiguration(), exporter.env, exporter)
	require.Error(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEmpty(t, r.Action, r.Key)
	}
	assert.Equal(t, ActionPublished, results[1].Action)
}

// ---------------------------------------------------------------------------
// Invalid names
// ---------------------------------------------------------------------------

func TestRun_InvalidFinalNameIsSkipped(t *testing.T) {
	s := NewSecretMap()
	s.Set("PREFIX_", "x")
	s.Set("PREFIX_A=B", "y")
	s.Set("PREFIX_NUL\x00", "z")
	s.Set("FOO_KEPT", "BAR")

	cfg := DefaultConfiguration()
	cfg.RemovePrefix = "PREFIX_"
	logger := &recordingLogger{}
	env := newLiveEnv(nil)
	results, err := Run(s, cfg, env, env, WithLogger(logger))
	require.NoError(t, err)
	require.Len(t, results, 4)

	for _, r := range results[:3] {
		assert.Equal(t, ActionSkippedFiltered, r.Action, r.Key)
		assert.Equal(t, RuleInvalidName, r.Rule, r.Key)
	}
	assert.Equal(t, ActionPublished, results[3].Action)
	assert.Equal(t, map[string]string{"FOO_KEPT": "BAR"}, env.vars)
	assert.True(t, logger.has(LevelWarning, `Skipping PREFIX_: "" is not a valid variable name`))
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("FOO"))
	assert.True(t, ValidName("my-key"))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName("A=B"))
	assert.False(t, ValidName("A\x00"))
}

// ---------------------------------------------------------------------------
// Trace logging
// ---------------------------------------------------------------------------

func TestRun_TraceLogging(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.IncludePatterns = []string{"FOO", "PREFIX"}
	cfg.ExcludePatterns = []string{"_2$"}
	cfg.RemovePrefix = "PREFIX_"

	t.Run("off", func(t *testing.T) {
		logger := &recordingLogger{}
		_, err := Run(inputSecrets(), cfg, newLiveEnv(nil), newLiveEnv(nil), WithLogger(logger))
		require.NoError(t, err)
		for _, l := range logger.lines {
			assert.NotEqual(t, LevelDebug, l.level, l.msg)
		}
	})

	t.Run("on", func(t *testing.T) {
		cfg := cfg
		cfg.TraceLogging = true
		logger := &recordingLogger{}
		env := newLiveEnv(nil)
		_, err := Run(inputSecrets(), cfg, env, env, WithLogger(logger))
		require.NoError(t, err)

		assert.True(t, logger.has(LevelDebug, "Using include list: FOO, PREFIX"))
		assert.True(t, logger.has(LevelDebug, "Using exclude list: reserved:github_token, _2$"))
		assert.True(t, logger.has(LevelInfo, "excluding alice_bob as not in include list"))
		assert.True(t, logger.has(LevelDebug, "excluding PREFIX_SECRET_2 as in exclude list (_2$)"))
		assert.True(t, logger.has(LevelDebug, "prefix removal PREFIX_SECRET_1 -> SECRET_1"))
		for _, l := range logger.lines {
			assert.NotContains(t, l.msg, "VALUE_1")
		}
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
