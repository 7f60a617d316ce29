package cmds

import (
	"context"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/secrets-to-env/pkg/actions"
	"github.com/go-go-golems/secrets-to-env/pkg/host"
)

type ActionCommand struct{ *gcmds.CommandDescription }

func NewActionCommand() (*ActionCommand, error) {
	layer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}
	cd := gcmds.NewCommandDescription(
		"action",
		gcmds.WithShort("Run as a GitHub Actions step (inputs from INPUT_* variables)"),
		gcmds.WithLong(`Reads the step inputs from the INPUT_* variables set by the runner, exports
the selected secrets through GITHUB_ENV and reports through workflow commands.`),
		gcmds.WithLayersList(layer),
	)
	return &ActionCommand{cd}, nil
}

func (c *ActionCommand) Run(ctx context.Context, parsed *glayers.ParsedLayers) error {
	h := actions.New()
	results, err := host.Run(h)
	if err != nil {
		return reported(err)
	}
	sum := host.Summarize(results)
	log.Debug().Int("published", sum.Published).Int("filtered", sum.SkippedFiltered).Int("existing", sum.SkippedExisting).Msg("action finished")
	return nil
}

var _ gcmds.BareCommand = &ActionCommand{}
