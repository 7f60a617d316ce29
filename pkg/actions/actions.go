// Package actions hosts a run inside a GitHub Actions job.
//
// Inputs come from INPUT_* variables set by the runner, exports are appended
// to the file named by GITHUB_ENV and messages are written as workflow
// commands on stdout. The runner protocol itself is go-githubactions.
package actions

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-githubactions"

	"github.com/go-go-golems/secrets-to-env/pkg/envsource"
	"github.com/go-go-golems/secrets-to-env/pkg/pipeline"
)

type Host struct {
	gha       *githubactions.Action
	lookupEnv func(string) (string, bool)
	setenv    func(string, string) error
	out       io.Writer

	failed bool
}

type Option func(*Host)

// WithEnv replaces the process environment accessors. Lookups also back the
// runner variables (INPUT_*, GITHUB_ENV) read by go-githubactions.
func WithEnv(lookup func(string) (string, bool), set func(string, string) error) Option {
	return func(h *Host) {
		h.lookupEnv = lookup
		h.setenv = set
	}
}

func WithOutput(w io.Writer) Option {
	return func(h *Host) { h.out = w }
}

func New(opts ...Option) *Host {
	proc := envsource.Process{}
	h := &Host{
		lookupEnv: proc.LookupEnv,
		setenv:    proc.ExportVariable,
		out:       os.Stdout,
	}
	for _, o := range opts {
		o(h)
	}
	h.gha = githubactions.New(
		githubactions.WithWriter(h.out),
		githubactions.WithGetenv(func(key string) string {
			v, _ := h.lookupEnv(key)
			return v
		}),
	)
	return h
}

func (h *Host) GetInput(name string, required bool) (string, error) {
	v := h.gha.GetInput(name)
	if v == "" && required {
		return "", pipeline.NewConfigurationError(pipeline.ErrMissingRequiredInput, name, nil)
	}
	return v, nil
}

func (h *Host) LookupEnv(name string) (string, bool) {
	return h.lookupEnv(name)
}

// ExportVariable sets name for this process and, through GITHUB_ENV, for the
// following steps of the job. Without GITHUB_ENV the legacy set-env command is used.
func (h *Host) ExportVariable(name, value string) error {
	if err := h.setenv(name, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}

	path, _ := h.lookupEnv("GITHUB_ENV")
	if path == "" {
		h.gha.IssueCommand(&githubactions.Command{
			Name:       "set-env",
			Message:    value,
			Properties: githubactions.CommandProperties{"name": name},
		})
		return nil
	}
	if err := h.appendEnvFile(name, value); err != nil {
		return err
	}
	log.Debug().Str("name", name).Str("path", path).Msg("appended to GITHUB_ENV")
	return nil
}

// appendEnvFile turns the panic SetEnv raises on an unwritable GITHUB_ENV
// into an error.
func (h *Host) appendEnvFile(name, value string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to append %s to GITHUB_ENV: %v", name, r)
		}
	}()
	h.gha.SetEnv(name, value)
	return nil
}

func (h *Host) Log(level pipeline.Level, message string) {
	switch level {
	case pipeline.LevelDebug:
		h.gha.Debugf("%s", message)
	case pipeline.LevelWarning:
		h.gha.Warningf("%s", message)
	default:
		h.gha.Infof("%s", message)
	}
}

func (h *Host) SetFailed(message string) {
	h.failed = true
	h.gha.Errorf("%s", message)
}

// ExitCode is 1 once SetFailed was called.
func (h *Host) ExitCode() int {
	if h.failed {
		return 1
	}
	return 0
}
