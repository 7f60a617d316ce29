package cmds

import (
	"context"
	"errors"
	"fmt"
	"os"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"

	"github.com/go-go-golems/secrets-to-env/pkg/diffenv"
	"github.com/go-go-golems/secrets-to-env/pkg/envsource"
	"github.com/go-go-golems/secrets-to-env/pkg/inputs"
)

// ErrEnvironmentDiffers is returned with --fail-on-diff when the diff is not clean.
var ErrEnvironmentDiffers = errors.New("environment differs from secrets")

type DiffEnvCommand struct{ *gcmds.CommandDescription }

type DiffEnvSettings struct {
	ShowExtra  bool `glazed.parameter:"show-extra"`
	Reveal     bool `glazed.parameter:"reveal-values"`
	CensorPre  int  `glazed.parameter:"censor-prefix"`
	CensorSuf  int  `glazed.parameter:"censor-suffix"`
	FailOnDiff bool `glazed.parameter:"fail-on-diff"`
}

func NewDiffEnvCommand() (*DiffEnvCommand, error) {
	glazedLayers, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}
	layer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}

	cd := gcmds.NewCommandDescription(
		"diff-env",
		gcmds.WithShort("Diff the environment against the variables the secrets would produce"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("show-extra", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Also list env vars not produced by the secrets")),
			parameters.NewParameterDefinition("reveal-values", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Reveal real values instead of censored")),
			parameters.NewParameterDefinition("censor-prefix", parameters.ParameterTypeInteger, parameters.WithDefault(2), parameters.WithHelp("Visible characters at start of value when censored")),
			parameters.NewParameterDefinition("censor-suffix", parameters.ParameterTypeInteger, parameters.WithDefault(2), parameters.WithHelp("Visible characters at end of value when censored")),
			parameters.NewParameterDefinition("fail-on-diff", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Exit non-zero when anything is changed, missing or extra")),
		),
		gcmds.WithLayersList(glazedLayers, layer),
	)
	if _, err := inputs.AddPipelineLayerToCommand(cd); err != nil {
		return nil, err
	}
	if _, err := envsource.AddEnvironmentLayerToCommand(cd); err != nil {
		return nil, err
	}
	return &DiffEnvCommand{cd}, nil
}

func (c *DiffEnvCommand) RunIntoGlazeProcessor(ctx context.Context, parsed *glayers.ParsedLayers, gp middlewares.Processor) error {
	s := &DiffEnvSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}

	results, actual, err := plan(ctx, parsed)
	if err != nil {
		return err
	}
	res := diffenv.Compute(results, actual, diffenv.Options{IncludeExtra: s.ShowExtra})

	_, _ = fmt.Fprintf(os.Stderr, "Matches: %d, Changed: %d, Missing: %d, Extra: %d\n", len(res.Matches), len(res.Changed), len(res.MissingInEnv), len(res.ExtraInEnv))

	censor := func(v string) string {
		if s.Reveal {
			return v
		}
		return censorString(v, s.CensorPre, s.CensorSuf)
	}
	add := func(status, name, key, secret, env string) error {
		return gp.AddRow(ctx, types.NewRow(
			types.MRP("status", status),
			types.MRP("name", name),
			types.MRP("key", key),
			types.MRP("secret", secret),
			types.MRP("env", env),
		))
	}

	for _, e := range res.Changed {
		if err := add("changed", e.Name, e.Key, censor(e.Secret), censor(e.Env)); err != nil {
			return err
		}
	}
	for _, e := range res.MissingInEnv {
		if err := add("missing", e.Name, e.Key, censor(e.Value), ""); err != nil {
			return err
		}
	}
	for _, e := range res.ExtraInEnv {
		if err := add("extra", e.Name, "", "", censor(e.Value)); err != nil {
			return err
		}
	}
	for _, e := range res.Matches {
		if err := add("match", e.Name, e.Key, censor(e.Value), censor(e.Value)); err != nil {
			return err
		}
	}
	if err := checkDiff(res, s.FailOnDiff); err != nil {
		// rows are only rendered on Close, which the runner skips after an error
		if cerr := gp.Close(ctx); cerr != nil {
			return cerr
		}
		return err
	}
	return nil
}

// checkDiff fails an unclean diff when asked to.
func checkDiff(res *diffenv.Result, failOnDiff bool) error {
	if failOnDiff && !res.Clean() {
		return ErrEnvironmentDiffers
	}
	return nil
}

var _ gcmds.GlazeCommand = &DiffEnvCommand{}
