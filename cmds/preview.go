package cmds

import (
	"context"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"

	"github.com/go-go-golems/secrets-to-env/pkg/cmdutil"
	"github.com/go-go-golems/secrets-to-env/pkg/envsource"
	"github.com/go-go-golems/secrets-to-env/pkg/inputs"
	"github.com/go-go-golems/secrets-to-env/pkg/pipeline"
)

type PreviewCommand struct{ *gcmds.CommandDescription }

type PreviewSettings struct {
	Actions   []string `glazed.parameter:"actions"`
	Reveal    bool     `glazed.parameter:"reveal-values"`
	CensorPre int      `glazed.parameter:"censor-prefix"`
	CensorSuf int      `glazed.parameter:"censor-suffix"`
}

func NewPreviewCommand() (*PreviewCommand, error) {
	glazedLayers, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}
	commandLayer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}
	cd := gcmds.NewCommandDescription(
		"preview",
		gcmds.WithShort("Show what the pipeline would do with each secret, without exporting"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("actions", parameters.ParameterTypeStringList, parameters.WithHelp("Only list results with these actions: published, skipped-filtered, skipped-existing")),
			parameters.NewParameterDefinition("reveal-values", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Reveal real values instead of censored")),
			parameters.NewParameterDefinition("censor-prefix", parameters.ParameterTypeInteger, parameters.WithDefault(2), parameters.WithHelp("Visible characters at start of value when censored")),
			parameters.NewParameterDefinition("censor-suffix", parameters.ParameterTypeInteger, parameters.WithDefault(2), parameters.WithHelp("Visible characters at end of value when censored")),
		),
		gcmds.WithLayersList(glazedLayers, commandLayer),
	)
	if _, err := inputs.AddPipelineLayerToCommand(cd); err != nil {
		return nil, err
	}
	if _, err := envsource.AddEnvironmentLayerToCommand(cd); err != nil {
		return nil, err
	}
	return &PreviewCommand{cd}, nil
}

func (c *PreviewCommand) RunIntoGlazeProcessor(ctx context.Context, parsed *glayers.ParsedLayers, gp middlewares.Processor) error {
	s := &PreviewSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}
	results, _, err := plan(ctx, parsed)
	if err != nil {
		return err
	}

	results = cmdutil.FilterItems(results, s.Actions, func(r pipeline.Result) string { return string(r.Action) })
	for _, r := range results {
		value := r.Value
		if !s.Reveal {
			value = censorString(value, s.CensorPre, s.CensorSuf)
		}
		row := types.NewRow(
			types.MRP("key", r.Key),
			types.MRP("final_key", r.FinalKey),
			types.MRP("action", string(r.Action)),
			types.MRP("rule", r.Rule),
			types.MRP("overrode", r.Overrode),
			types.MRP("value", value),
		)
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

var _ gcmds.GlazeCommand = &PreviewCommand{}
