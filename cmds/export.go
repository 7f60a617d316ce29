package cmds

import (
	"context"
	"fmt"
	"os"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"

	"github.com/go-go-golems/secrets-to-env/pkg/envsource"
	"github.com/go-go-golems/secrets-to-env/pkg/host"
	"github.com/go-go-golems/secrets-to-env/pkg/inputs"
	"github.com/go-go-golems/secrets-to-env/pkg/output"
)

type ExportCommand struct{ *gcmds.CommandDescription }

type ExportSettings struct {
	Format    string `glazed.parameter:"format"`
	Output    string `glazed.parameter:"output"`
	SortKeys  bool   `glazed.parameter:"sort-keys"`
	ShowNames bool   `glazed.parameter:"show-names"`
}

func NewExportCommand() (*ExportCommand, error) {
	layer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}

	cd := gcmds.NewCommandDescription(
		"export",
		gcmds.WithShort("Filter and rename secrets, then write them as environment variables"),
		gcmds.WithLong(`Runs the secrets pipeline against a local environment and writes the
exported variables as an envrc, dotenv, json or yaml document.

Variables already present in the environment are skipped unless --override is set.`),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("format", parameters.ParameterTypeChoice, parameters.WithChoices(output.Formats...), parameters.WithDefault(output.FormatEnvrc), parameters.WithHelp("Output format")),
			parameters.NewParameterDefinition("output", parameters.ParameterTypeString, parameters.WithDefault("-"), parameters.WithShortFlag("o"), parameters.WithHelp("Output file; '-' for stdout")),
			parameters.NewParameterDefinition("sort-keys", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Sort variable names instead of keeping export order")),
			parameters.NewParameterDefinition("show-names", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("List exported names in the summary")),
		),
		gcmds.WithLayersList(layer),
	)
	if _, err := inputs.AddPipelineLayerToCommand(cd); err != nil {
		return nil, err
	}
	if _, err := envsource.AddEnvironmentLayerToCommand(cd); err != nil {
		return nil, err
	}
	return &ExportCommand{cd}, nil
}

func (c *ExportCommand) Run(ctx context.Context, parsed *glayers.ParsedLayers) error {
	s := &ExportSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}
	local, err := newLocalHost(ctx, parsed)
	if err != nil {
		return err
	}

	results, err := host.Run(local)
	if err != nil {
		return reported(err)
	}

	vars := local.Exports()
	if err := output.Write(s.Output, vars, output.WriteOptions{Format: s.Format, SortKeys: s.SortKeys}); err != nil {
		return err
	}

	sum := host.Summarize(results)
	_, _ = fmt.Fprintln(os.Stderr, output.ExportedCount(sum.Published))
	if sum.SkippedExisting > 0 {
		_, _ = fmt.Fprintln(os.Stderr, output.Notef("  Skipped %d existing variable(s)", sum.SkippedExisting))
	}
	if s.ShowNames {
		names := make([]string, 0, len(vars))
		for _, v := range output.Dedupe(vars) {
			names = append(names, v.Name)
		}
		_, _ = fmt.Fprint(os.Stderr, output.ListNames(names))
	}
	return nil
}

var _ gcmds.BareCommand = &ExportCommand{}
