package cmds

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-go-golems/secrets-to-env/pkg/pipeline"
)

func TestCensorString(t *testing.T) {
	tests := []struct {
		in       string
		pre, suf int
		want     string
	}{
		{"", 2, 2, ""},
		{"abc", 2, 2, "***"},
		{"secretvalue", 2, 2, "se...ue"},
		{"secretvalue", -1, 3, "...lue"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, censorString(tt.in, tt.pre, tt.suf), tt.in)
	}
}

func TestReported(t *testing.T) {
	cause := pipeline.NewConfigurationError(pipeline.ErrInvalidInput, "convert", nil)
	err := reported(cause)
	assert.True(t, errors.Is(err, ErrReported))
	assert.True(t, errors.Is(err, pipeline.ErrInvalidInput))
}

func TestValidFormat(t *testing.T) {
	assert.NoError(t, validFormat("dotenv"))
	assert.Error(t, validFormat("toml"))
}
