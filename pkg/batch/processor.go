package batch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/go-go-golems/secrets-to-env/pkg/envsource"
	"github.com/go-go-golems/secrets-to-env/pkg/host"
	"github.com/go-go-golems/secrets-to-env/pkg/inputs"
	"github.com/go-go-golems/secrets-to-env/pkg/output"
	"github.com/go-go-golems/secrets-to-env/pkg/pipeline"
)

type Processor struct {
	// Env is shared by every job: a variable exported by one job is visible
	// to the conflict checks of the next. A job's exports only reach Env once
	// its output has been written.
	Env envsource.Snapshot
	// Stdout receives dry-run and "-" outputs, Stderr progress. Both default
	// to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

type ProcessorOptions struct {
	BaseDir         string
	OutputOverride  string
	FormatOverride  string
	ContinueOnError bool
	DryRun          bool
	SortKeys        bool
}

// JobResult is the outcome of one job.
type JobResult struct {
	Job     string
	Output  string
	Results []pipeline.Result
	Err     error
}

func (p *Processor) Process(cfg *Config, opts ProcessorOptions) ([]JobResult, error) {
	if p.Env == nil {
		p.Env = envsource.Snapshot{}
	}
	baseDir := resolveBaseDir(cfg, opts)
	log.Debug().Str("baseDir", baseDir).Int("jobs", len(cfg.Jobs)).Msg("batch start")
	return p.processSequential(cfg.Jobs, baseDir, opts)
}

// resolveBaseDir: flag, then the config file, then viper's batch.base-dir.
func resolveBaseDir(cfg *Config, opts ProcessorOptions) string {
	if strings.TrimSpace(opts.BaseDir) != "" {
		return opts.BaseDir
	}
	if strings.TrimSpace(cfg.BaseDir) != "" {
		return cfg.BaseDir
	}
	return viper.GetString("batch.base-dir")
}

func (p *Processor) processSequential(jobs []Job, baseDir string, opts ProcessorOptions) ([]JobResult, error) {
	stderr := p.stderr()
	var out []JobResult
	failures := 0
	for i, job := range jobs {
		_, _ = fmt.Fprintf(stderr, "[%d/%d] %s", i+1, len(jobs), output.SectionHeader(job.Name, job.Description))
		jr := p.processJob(job, baseDir, opts)
		out = append(out, jr)
		if jr.Err != nil {
			failures++
			_, _ = fmt.Fprintln(stderr, output.Errorf("job '%s' failed: %s", job.Name, output.ShortError(jr.Err)))
			if !opts.ContinueOnError {
				return out, fmt.Errorf("job '%s' failed: %w", job.Name, jr.Err)
			}
			continue
		}
		s := host.Summarize(jr.Results)
		_, _ = fmt.Fprintln(stderr, output.ExportedCount(s.Published))
	}
	if failures > 0 {
		return out, fmt.Errorf("batch processing completed with %d errors out of %d jobs", failures, len(jobs))
	}
	return out, nil
}

func (p *Processor) processJob(job Job, baseDir string, opts ProcessorOptions) JobResult {
	jr := JobResult{Job: job.Name}

	secrets, err := loadJobSecrets(job, baseDir)
	if err != nil {
		jr.Err = err
		return jr
	}
	cfg, err := inputs.LoadConfiguration(job.Inputs())
	if err != nil {
		jr.Err = err
		return jr
	}

	jobEnv := p.Env.Clone()
	local := host.NewLocal(job.Inputs(), jobEnv)
	local.Stderr = p.stderr()
	pl, err := pipeline.New(cfg, pipeline.WithLogger(local))
	if err != nil {
		jr.Err = err
		return jr
	}
	jr.Results, err = pl.Run(secrets, local, local)
	if err != nil {
		jr.Err = err
		return jr
	}

	outPath := job.Output
	if opts.OutputOverride != "" {
		outPath = opts.OutputOverride
	}
	if outPath == "" || opts.DryRun {
		outPath = "-"
	} else if !filepath.IsAbs(outPath) && baseDir != "" {
		outPath = filepath.Join(baseDir, outPath)
	}
	format := job.Format
	if opts.FormatOverride != "" {
		format = opts.FormatOverride
	}
	if format == "" {
		format = output.FormatEnvrc
	}
	jr.Output = outPath

	log.Debug().Str("job", job.Name).Str("output", outPath).Str("format", format).Msg("writing job output")
	if err := output.Write(outPath, local.Exports(), output.WriteOptions{Format: format, SortKeys: opts.SortKeys, Stdout: p.Stdout}); err != nil {
		jr.Err = err
		return jr
	}
	for k, v := range jobEnv {
		p.Env[k] = v
	}
	return jr
}

// loadJobSecrets reads the job's secrets file and appends its fixed values in
// sorted key order.
func loadJobSecrets(job Job, baseDir string) (*pipeline.SecretMap, error) {
	if job.SecretsFile == "" && len(job.Fixed) == 0 {
		return nil, pipeline.NewConfigurationError(pipeline.ErrMissingRequiredInput, "secrets_file", nil)
	}
	secrets := pipeline.NewSecretMap()
	if job.SecretsFile != "" {
		path := job.SecretsFile
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read secrets file %s: %w", path, err)
		}
		if secrets, err = inputs.ParseSecrets(b); err != nil {
			return nil, err
		}
	}
	secrets.Merge(pipeline.SecretMapFromMap(job.Fixed))
	return secrets, nil
}

func (p *Processor) stderr() io.Writer {
	if p.Stderr == nil {
		return os.Stderr
	}
	return p.Stderr
}
