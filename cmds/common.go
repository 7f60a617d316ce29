package cmds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"

	"github.com/go-go-golems/secrets-to-env/pkg/envsource"
	"github.com/go-go-golems/secrets-to-env/pkg/host"
	"github.com/go-go-golems/secrets-to-env/pkg/inputs"
	"github.com/go-go-golems/secrets-to-env/pkg/pipeline"
)

// ErrReported marks a failure the host has already shown to the user.
var ErrReported = errors.New("run failed")

func reported(err error) error {
	return fmt.Errorf("%w: %w", ErrReported, err)
}

// newLocalHost builds a local host from the pipeline and environment layers.
func newLocalHost(ctx context.Context, parsed *glayers.ParsedLayers) (*host.Local, error) {
	ps, err := inputs.GetPipelineSettings(parsed)
	if err != nil {
		return nil, err
	}
	reader, err := ps.Reader(os.Stdin)
	if err != nil {
		return nil, err
	}
	es, err := envsource.GetEnvironmentSettings(parsed)
	if err != nil {
		return nil, err
	}
	env, err := envsource.Capture(ctx, es.Options())
	if err != nil {
		return nil, err
	}
	return host.NewLocal(reader, env), nil
}

func censorString(s string, pre int, suf int) string {
	if pre < 0 {
		pre = 0
	}
	if suf < 0 {
		suf = 0
	}
	n := len(s)
	if n == 0 {
		return s
	}
	if pre+suf >= n {
		return strings.Repeat("*", n)
	}
	return s[:pre] + "..." + s[n-suf:]
}

// plan runs the pipeline against a copy of the captured environment. Nothing
// is exported; the returned snapshot is the untouched original.
func plan(ctx context.Context, parsed *glayers.ParsedLayers) ([]pipeline.Result, envsource.Snapshot, error) {
	local, err := newLocalHost(ctx, parsed)
	if err != nil {
		return nil, nil, err
	}
	actual := local.Env
	local.Env = actual.Clone()
	if v, _ := local.GetInput(inputs.InputTraceLog, false); v != "true" {
		local.Stderr = io.Discard
	}
	results, err := host.Run(local)
	if err != nil {
		return nil, nil, err
	}
	return results, actual, nil
}
