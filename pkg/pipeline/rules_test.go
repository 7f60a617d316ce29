package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservedRule(t *testing.T) {
	r := ReservedRule{Name: ReservedKey}
	assert.True(t, r.Match("github_token"))
	assert.True(t, r.Match("GITHUB_TOKEN"))
	assert.False(t, r.Match("MY_GITHUB_TOKEN"))
	assert.False(t, r.Match("github_token_2"))
}

func TestPatternRule_SearchSemantics(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"SECRET", "PREFIX_SECRET_1", true},
		{"^SECRET", "PREFIX_SECRET_1", false},
		{"_1$", "PREFIX_SECRET_1", true},
		{"^FOO$", "FOO", true},
		{"^FOO$", "FOOD", false},
		{"alice", "ALICE_BOB", false},
		{`\d+`, "KEY_42", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.key, func(t *testing.T) {
			r, err := CompilePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Match(tt.key))
			assert.Equal(t, tt.pattern, r.String())
		})
	}
}

func TestParseCaseConversion(t *testing.T) {
	tests := []struct {
		in      string
		want    CaseConversion
		wantErr bool
	}{
		{"", CaseUpper, false},
		{"upper", CaseUpper, false},
		{"UPPER", CaseUpper, false},
		{"lower", CaseLower, false},
		{" lower ", CaseLower, false},
		{"none", CaseNone, false},
		{"Lower", CaseLower, false},
		{"title", "", true},
		{"camel", "", true},
		{"uppercase", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCaseConversion(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSecretMap_KeepsFirstPosition(t *testing.T) {
	s := NewSecretMap()
	s.Set("B", "1")
	s.Set("A", "2")
	s.Set("B", "3")

	assert.Equal(t, []string{"B", "A"}, s.Keys())
	v, ok := s.Get("B")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
	assert.Equal(t, 2, s.Len())

	sorted := SecretMapFromMap(map[string]string{"z": "1", "a": "2"})
	assert.Equal(t, []string{"a", "z"}, sorted.Keys())

	s.Merge(sorted)
	assert.Equal(t, []string{"B", "A", "a", "z"}, s.Keys())
}
