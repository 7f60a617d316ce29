package envsource

import (
	"fmt"

	glzcms "github.com/go-go-golems/glazed/pkg/cmds"
	glzlayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
)

const EnvironmentLayerSlug = "environment"

type EnvironmentSettings struct {
	EnvSource  string `glazed.parameter:"env-source"`
	DotenvPath string `glazed.parameter:"dotenv-path"`
	WorkingDir string `glazed.parameter:"working-dir"`
}

// NewEnvironmentLayer defines where the existing environment is read from.
func NewEnvironmentLayer() (glzlayers.ParameterLayer, error) {
	return glzlayers.NewParameterLayer(
		EnvironmentLayerSlug,
		"Existing environment",
		glzlayers.WithParameterDefinitions(
			parameters.NewParameterDefinition(
				"env-source",
				parameters.ParameterTypeChoice,
				parameters.WithHelp("Environment checked for existing values: current|dotenv|direnv|none"),
				parameters.WithDefault(string(SourceCurrent)),
				parameters.WithChoices(string(SourceCurrent), string(SourceDotenv), string(SourceDirenv), string(SourceNone)),
			),
			parameters.NewParameterDefinition(
				"dotenv-path",
				parameters.ParameterTypeString,
				parameters.WithHelp("Dotenv file used with env-source=dotenv (default .env)"),
				parameters.WithDefault(""),
			),
			parameters.NewParameterDefinition(
				"working-dir",
				parameters.ParameterTypeString,
				parameters.WithHelp("Directory direnv is evaluated in"),
				parameters.WithDefault(""),
			),
		),
	)
}

func AddEnvironmentLayerToCommand(c glzcms.Command) (glzcms.Command, error) {
	l, err := NewEnvironmentLayer()
	if err != nil {
		return nil, err
	}
	c.Description().Layers.Set(EnvironmentLayerSlug, l)
	return c, nil
}

func GetEnvironmentSettings(parsed *glzlayers.ParsedLayers) (*EnvironmentSettings, error) {
	var s EnvironmentSettings
	if err := parsed.InitializeStruct(EnvironmentLayerSlug, &s); err != nil {
		return nil, fmt.Errorf("failed to parse environment settings: %w", err)
	}
	return &s, nil
}

func (s *EnvironmentSettings) Options() Options {
	return Options{Source: Source(s.EnvSource), DotenvPath: s.DotenvPath, WorkingDir: s.WorkingDir}
}
