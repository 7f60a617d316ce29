package cmds

import (
	"context"
	"fmt"
	"os"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"

	"github.com/go-go-golems/secrets-to-env/pkg/batch"
	"github.com/go-go-golems/secrets-to-env/pkg/cmdutil"
	"github.com/go-go-golems/secrets-to-env/pkg/envsource"
	"github.com/go-go-golems/secrets-to-env/pkg/output"
)

type BatchCommand struct{ *gcmds.CommandDescription }

type BatchSettings struct {
	Config          string   `glazed.parameter:"config"`
	OutputOverride  string   `glazed.parameter:"output"`
	Format          string   `glazed.parameter:"format"`
	ContinueOnError bool     `glazed.parameter:"continue-on-error"`
	DryRun          bool     `glazed.parameter:"dry-run"`
	SortKeys        bool     `glazed.parameter:"sort-keys"`
	BaseDir         string   `glazed.parameter:"base-dir"`
	Jobs            []string `glazed.parameter:"jobs"`
}

func NewBatchCommand() (*BatchCommand, error) {
	layer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}

	cd := gcmds.NewCommandDescription(
		"batch",
		gcmds.WithShort("Run several secrets-to-env jobs from a YAML file"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("config", parameters.ParameterTypeString, parameters.WithRequired(true), parameters.WithHelp("Batch YAML file"), parameters.WithShortFlag("c")),
			parameters.NewParameterDefinition("base-dir", parameters.ParameterTypeString, parameters.WithHelp("Directory relative secrets files and outputs are resolved against")),
			parameters.NewParameterDefinition("output", parameters.ParameterTypeString, parameters.WithHelp("Override output for all jobs; '-' for stdout")),
			parameters.NewParameterDefinition("format", parameters.ParameterTypeString, parameters.WithHelp("envrc|dotenv|json|yaml")),
			parameters.NewParameterDefinition("continue-on-error", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Continue processing on errors")),
			parameters.NewParameterDefinition("dry-run", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Print outputs to stdout instead of writing files")),
			parameters.NewParameterDefinition("sort-keys", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Sort variable names for deterministic output")),
			parameters.NewParameterDefinition("jobs", parameters.ParameterTypeStringList, parameters.WithHelp("Only process jobs with these names; default all")),
		),
		gcmds.WithLayersList(layer),
	)
	if _, err := envsource.AddEnvironmentLayerToCommand(cd); err != nil {
		return nil, err
	}
	return &BatchCommand{cd}, nil
}

func (c *BatchCommand) Run(ctx context.Context, parsed *glayers.ParsedLayers) error {
	s := &BatchSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}
	if s.Format != "" {
		if err := validFormat(s.Format); err != nil {
			return err
		}
	}

	cfg, err := batch.LoadConfig(s.Config)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(cfg.Jobs))
	for _, j := range cfg.Jobs {
		names = append(names, j.Name)
	}
	if unknown := cmdutil.Unknown(s.Jobs, names); len(unknown) > 0 {
		_, _ = fmt.Fprintln(os.Stderr, output.Warnf("unknown job(s): %v", unknown))
	}
	cfg.Jobs = cmdutil.FilterItems(cfg.Jobs, s.Jobs, func(j batch.Job) string { return j.Name })

	es, err := envsource.GetEnvironmentSettings(parsed)
	if err != nil {
		return err
	}
	env, err := envsource.Capture(ctx, es.Options())
	if err != nil {
		return err
	}

	proc := batch.Processor{Env: env}
	_, err = proc.Process(cfg, batch.ProcessorOptions{
		BaseDir:         s.BaseDir,
		OutputOverride:  s.OutputOverride,
		FormatOverride:  s.Format,
		ContinueOnError: s.ContinueOnError,
		DryRun:          s.DryRun,
		SortKeys:        s.SortKeys,
	})
	if err != nil {
		return reported(err)
	}
	return nil
}

func validFormat(f string) error {
	for _, known := range output.Formats {
		if f == known {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (want one of %v)", f, output.Formats)
}

var _ gcmds.BareCommand = &BatchCommand{}
