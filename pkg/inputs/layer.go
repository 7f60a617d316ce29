package inputs

import (
	"fmt"
	"io"
	"os"
	"strings"

	glzcms "github.com/go-go-golems/glazed/pkg/cmds"
	glzlayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
)

const PipelineLayerSlug = "pipeline"

type PipelineSettings struct {
	Secrets      string   `glazed.parameter:"secrets"`
	SecretsFile  string   `glazed.parameter:"secrets-file"`
	Include      []string `glazed.parameter:"include"`
	Exclude      []string `glazed.parameter:"exclude"`
	AddPrefix    string   `glazed.parameter:"add-prefix"`
	AddSuffix    string   `glazed.parameter:"add-suffix"`
	RemovePrefix string   `glazed.parameter:"remove-prefix"`
	RemoveSuffix string   `glazed.parameter:"remove-suffix"`
	Convert      string   `glazed.parameter:"convert"`
	Override     bool     `glazed.parameter:"override"`
	TraceLog     bool     `glazed.parameter:"tracelog"`
}

// NewPipelineLayer defines the flags shared by every command that runs the pipeline.
func NewPipelineLayer() (glzlayers.ParameterLayer, error) {
	return glzlayers.NewParameterLayer(
		PipelineLayerSlug,
		"Secret filtering and renaming",
		glzlayers.WithParameterDefinitions(
			parameters.NewParameterDefinition("secrets", parameters.ParameterTypeString, parameters.WithHelp("Secrets as a JSON object")),
			parameters.NewParameterDefinition("secrets-file", parameters.ParameterTypeString, parameters.WithHelp("Read the secrets JSON object from a file ('-' for stdin)")),
			parameters.NewParameterDefinition("include", parameters.ParameterTypeStringList, parameters.WithHelp("Only keep keys matching one of these regexes")),
			parameters.NewParameterDefinition("exclude", parameters.ParameterTypeStringList, parameters.WithHelp("Drop keys matching one of these regexes")),
			parameters.NewParameterDefinition("add-prefix", parameters.ParameterTypeString, parameters.WithHelp("Prefix to add to every key")),
			parameters.NewParameterDefinition("add-suffix", parameters.ParameterTypeString, parameters.WithHelp("Suffix to add to every key")),
			parameters.NewParameterDefinition("remove-prefix", parameters.ParameterTypeString, parameters.WithHelp("Prefix to strip from keys that have it")),
			parameters.NewParameterDefinition("remove-suffix", parameters.ParameterTypeString, parameters.WithHelp("Suffix to strip from keys that have it")),
			parameters.NewParameterDefinition("convert", parameters.ParameterTypeChoice, parameters.WithChoices("upper", "lower", "none"), parameters.WithDefault("upper"), parameters.WithHelp("Case conversion of the final key")),
			parameters.NewParameterDefinition("override", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Replace variables that already have a value")),
			parameters.NewParameterDefinition("tracelog", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Log every filtering and renaming decision")),
		),
	)
}

// AddPipelineLayerToCommand attaches the layer to a Glazed command description.
func AddPipelineLayerToCommand(c glzcms.Command) (glzcms.Command, error) {
	l, err := NewPipelineLayer()
	if err != nil {
		return nil, err
	}
	c.Description().Layers.Set(PipelineLayerSlug, l)
	return c, nil
}

// GetPipelineSettings returns parsed pipeline settings from the ParsedLayers.
func GetPipelineSettings(parsed *glzlayers.ParsedLayers) (*PipelineSettings, error) {
	var s PipelineSettings
	if err := parsed.InitializeStruct(PipelineLayerSlug, &s); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline settings: %w", err)
	}
	return &s, nil
}

// Reader turns the settings into the same string inputs the action receives.
// stdin is only read when SecretsFile is "-".
func (s *PipelineSettings) Reader(stdin io.Reader) (MapReader, error) {
	secrets := s.Secrets
	if s.SecretsFile != "" {
		var (
			b   []byte
			err error
		)
		if s.SecretsFile == "-" {
			b, err = io.ReadAll(stdin)
		} else {
			b, err = os.ReadFile(s.SecretsFile)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read secrets file %s: %w", s.SecretsFile, err)
		}
		secrets = string(b)
	}
	return MapReader{
		InputSecrets:      secrets,
		InputInclude:      strings.Join(s.Include, ","),
		InputExclude:      strings.Join(s.Exclude, ","),
		InputAddPrefix:    s.AddPrefix,
		InputAddSuffix:    s.AddSuffix,
		InputRemovePrefix: s.RemovePrefix,
		InputRemoveSuffix: s.RemoveSuffix,
		InputConvert:      s.Convert,
		InputOverride:     fmt.Sprintf("%t", s.Override),
		InputTraceLog:     fmt.Sprintf("%t", s.TraceLog),
	}, nil
}
