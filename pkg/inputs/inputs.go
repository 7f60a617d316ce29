// Package inputs reads the string-valued configuration surface and turns it
// into a pipeline.Configuration and the SecretMap to process.
package inputs

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/secrets-to-env/pkg/pipeline"
)

const (
	InputSecrets      = "secrets"
	InputInclude      = "include"
	InputExclude      = "exclude"
	InputAddPrefix    = "add-prefix"
	InputAddSuffix    = "add-suffix"
	InputRemovePrefix = "remove-prefix"
	InputRemoveSuffix = "remove-suffix"
	InputConvert      = "convert"
	InputOverride     = "override"
	InputTraceLog     = "tracelog"

	// legacy names still accepted
	InputPrefixAlias       = "prefix"
	InputRemovePrefixAlias = "removeprefix"
)

// Reader is the input half of the host contract.
type Reader interface {
	// GetInput returns the trimmed value of name, "" when it is absent and not
	// required, and an ErrMissingRequiredInput ConfigurationError when it is
	// absent and required.
	GetInput(name string, required bool) (string, error)
}

// MapReader serves inputs from a map.
type MapReader map[string]string

func (m MapReader) GetInput(name string, required bool) (string, error) {
	v := strings.TrimSpace(m[name])
	if v == "" && required {
		return "", pipeline.NewConfigurationError(pipeline.ErrMissingRequiredInput, name, nil)
	}
	return v, nil
}

// Loaded is everything a run needs from its inputs.
type Loaded struct {
	Configuration pipeline.Configuration
	Secrets       *pipeline.SecretMap
}

// Load reads all inputs from r.
func Load(r Reader) (*Loaded, error) {
	payload, err := r.GetInput(InputSecrets, true)
	if err != nil {
		return nil, err
	}
	secrets, err := ParseSecrets([]byte(payload))
	if err != nil {
		return nil, err
	}
	cfg, err := LoadConfiguration(r)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("secrets", secrets.Len()).Msg("inputs loaded")
	return &Loaded{Configuration: cfg, Secrets: secrets}, nil
}

// LoadConfiguration reads every input except the secrets payload.
func LoadConfiguration(r Reader) (pipeline.Configuration, error) {
	cfg := pipeline.DefaultConfiguration()
	var err error

	get := func(names ...string) string {
		if err != nil {
			return ""
		}
		for _, n := range names {
			var v string
			v, err = r.GetInput(n, false)
			if err != nil || v != "" {
				return v
			}
		}
		return ""
	}

	cfg.IncludePatterns = SplitList(get(InputInclude))
	cfg.ExcludePatterns = SplitList(get(InputExclude))
	cfg.AddPrefix = get(InputAddPrefix, InputPrefixAlias)
	cfg.AddSuffix = get(InputAddSuffix)
	cfg.RemovePrefix = get(InputRemovePrefix, InputRemovePrefixAlias)
	cfg.RemoveSuffix = get(InputRemoveSuffix)
	convert := get(InputConvert)
	cfg.OverrideExisting = get(InputOverride) == "true"
	cfg.TraceLogging = get(InputTraceLog) == "true"
	if err != nil {
		return cfg, err
	}

	cc, cerr := pipeline.ParseCaseConversion(convert)
	if cerr != nil {
		return cfg, pipeline.NewConfigurationError(pipeline.ErrInvalidInput, InputConvert, cerr)
	}
	cfg.CaseConversion = cc
	return cfg, nil
}

// SplitList splits a comma-separated input. Entries are trimmed and blank
// entries dropped; an empty input yields nil.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
