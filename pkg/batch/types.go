package batch

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/secrets-to-env/pkg/inputs"
)

// Config represents the configuration for batch processing
type Config struct {
	BaseDir string `yaml:"base_dir"`
	Jobs    []Job  `yaml:"jobs"`
}

// Job represents a single job in batch processing. Option fields mirror the
// pipeline inputs of the same name.
type Job struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	SecretsFile string `yaml:"secrets_file,omitempty"`

	Include      []string `yaml:"include,omitempty"`
	Exclude      []string `yaml:"exclude,omitempty"`
	AddPrefix    string   `yaml:"add_prefix,omitempty"`
	AddSuffix    string   `yaml:"add_suffix,omitempty"`
	RemovePrefix string   `yaml:"remove_prefix,omitempty"`
	RemoveSuffix string   `yaml:"remove_suffix,omitempty"`
	Convert      string   `yaml:"convert,omitempty"`
	Override     *bool    `yaml:"override,omitempty"`
	TraceLog     bool     `yaml:"tracelog,omitempty"`

	// Fixed values are added after the secrets file keys.
	Fixed  map[string]string `yaml:"fixed,omitempty"`
	Output string            `yaml:"output,omitempty"`
	Format string            `yaml:"format,omitempty"`
}

// Inputs renders the job options as pipeline inputs.
func (j Job) Inputs() inputs.MapReader {
	m := inputs.MapReader{
		inputs.InputAddPrefix:    j.AddPrefix,
		inputs.InputAddSuffix:    j.AddSuffix,
		inputs.InputRemovePrefix: j.RemovePrefix,
		inputs.InputRemoveSuffix: j.RemoveSuffix,
		inputs.InputConvert:      j.Convert,
	}
	if len(j.Include) > 0 {
		m[inputs.InputInclude] = strings.Join(j.Include, ",")
	}
	if len(j.Exclude) > 0 {
		m[inputs.InputExclude] = strings.Join(j.Exclude, ",")
	}
	if j.Override != nil && *j.Override {
		m[inputs.InputOverride] = "true"
	}
	if j.TraceLog {
		m[inputs.InputTraceLog] = "true"
	}
	return m
}

// LoadConfig reads a batch YAML file.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	for i, job := range config.Jobs {
		if job.Name == "" {
			return nil, fmt.Errorf("job %d has no name", i+1)
		}
	}
	return &config, nil
}
