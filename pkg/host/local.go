package host

import (
	"fmt"
	"io"
	"os"

	"github.com/go-go-golems/secrets-to-env/pkg/envsource"
	"github.com/go-go-golems/secrets-to-env/pkg/inputs"
	"github.com/go-go-golems/secrets-to-env/pkg/output"
	"github.com/go-go-golems/secrets-to-env/pkg/pipeline"
)

// Local hosts a run on a developer machine or in a plain CI shell. Exports are
// recorded, and applied to the snapshot, instead of touching the process
// environment; callers render them afterwards.
type Local struct {
	Inputs inputs.Reader
	Env    envsource.Snapshot
	// Stderr receives trace output. Defaults to os.Stderr.
	Stderr io.Writer

	exports []output.Variable
}

var _ Host = &Local{}

func NewLocal(in inputs.Reader, env envsource.Snapshot) *Local {
	if env == nil {
		env = envsource.Snapshot{}
	}
	return &Local{Inputs: in, Env: env, Stderr: os.Stderr}
}

func (l *Local) GetInput(name string, required bool) (string, error) {
	return l.Inputs.GetInput(name, required)
}

func (l *Local) LookupEnv(name string) (string, bool) {
	return l.Env.LookupEnv(name)
}

func (l *Local) ExportVariable(name, value string) error {
	l.exports = append(l.exports, output.Variable{Name: name, Value: value})
	return l.Env.ExportVariable(name, value)
}

func (l *Local) Log(level pipeline.Level, message string) {
	var line string
	switch level {
	case pipeline.LevelDebug:
		line = output.Debugf("%s", message)
	case pipeline.LevelWarning:
		line = output.Warnf("%s", message)
	default:
		line = output.Notef("%s", message)
	}
	_, _ = fmt.Fprintln(l.stderr(), line)
}

func (l *Local) SetFailed(message string) {
	_, _ = fmt.Fprintln(l.stderr(), output.Errorf("%s", message))
}

// Exports returns the variables exported so far, in export order.
func (l *Local) Exports() []output.Variable {
	out := make([]output.Variable, len(l.exports))
	copy(out, l.exports)
	return out
}

func (l *Local) stderr() io.Writer {
	if l.Stderr == nil {
		return os.Stderr
	}
	return l.Stderr
}
