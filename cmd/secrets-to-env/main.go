package main

import (
	"errors"
	"fmt"
	"os"

	clay "github.com/go-go-golems/clay/pkg"
	"github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/logging"
	"github.com/go-go-golems/glazed/pkg/cmds/middlewares"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/help"
	help_cmd "github.com/go-go-golems/glazed/pkg/help/cmd"
	"github.com/spf13/cobra"

	appcmds "github.com/go-go-golems/secrets-to-env/cmds"
	appdoc "github.com/go-go-golems/secrets-to-env/pkg/doc"
	"github.com/go-go-golems/secrets-to-env/pkg/output"
)

var version = "dev"

func getMiddlewares(parsedLayers *layers.ParsedLayers, cmd *cobra.Command, args []string) ([]middlewares.Middleware, error) {
	commandSettings := &cli.CommandSettings{}
	err := parsedLayers.InitializeStruct(cli.CommandSettingsSlug, commandSettings)
	if err != nil {
		return nil, err
	}

	return []middlewares.Middleware{
		middlewares.ParseFromCobraCommand(cmd,
			parameters.WithParseStepSource("cobra"),
		),
		middlewares.GatherArguments(args,
			parameters.WithParseStepSource("arguments"),
		),
		middlewares.GatherFlagsFromViper(parameters.WithParseStepSource("viper")),
		middlewares.SetFromDefaults(parameters.WithParseStepSource("defaults")),
	}, nil
}

func main() {
	var noColor bool
	rootCmd := &cobra.Command{
		Use:           "secrets-to-env",
		Short:         "Export selected secrets as environment variables",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			err := logging.InitLoggerFromViper()
			cobra.CheckErr(err)
			_, envNoColor := os.LookupEnv("NO_COLOR")
			output.InitConsole(noColor || envNoColor)
		},
	}
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	clay.InitViper("secrets-to-env", rootCmd)

	hs := help.NewHelpSystem()
	_ = appdoc.AddDocToHelpSystem(hs)
	help_cmd.SetupCobraRootCommand(hs, rootCmd)

	opts := []cli.CobraOption{
		cli.WithParserConfig(cli.CobraParserConfig{
			MiddlewaresFunc: getMiddlewares,
		}),
	}

	constructors := []func() (gcmds.Command, error){
		func() (gcmds.Command, error) { return appcmds.NewExportCommand() },
		func() (gcmds.Command, error) { return appcmds.NewActionCommand() },
		func() (gcmds.Command, error) { return appcmds.NewPreviewCommand() },
		func() (gcmds.Command, error) { return appcmds.NewDiffEnvCommand() },
		func() (gcmds.Command, error) { return appcmds.NewBatchCommand() },
	}
	for _, newCmd := range constructors {
		c, err := newCmd()
		cobra.CheckErr(err)
		cmd, err := cli.BuildCobraCommand(c, opts...)
		cobra.CheckErr(err)
		rootCmd.AddCommand(cmd)
	}

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, appcmds.ErrReported) {
			_, _ = fmt.Fprintln(os.Stderr, output.Errorf("%s", err))
		}
		os.Exit(1)
	}
}
