// Package envsource captures the environment a run checks for existing values.
package envsource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/subosito/gotenv"
)

type Source string

const (
	SourceCurrent Source = "current"
	SourceDotenv  Source = "dotenv"
	SourceDirenv  Source = "direnv"
	SourceNone    Source = "none"
)

type Options struct {
	Source     Source
	DotenvPath string
	WorkingDir string
}

// Capture resolves a snapshot of environment variables from the configured source.
func Capture(ctx context.Context, opts Options) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	switch opts.Source {
	case "", SourceCurrent:
		snap = FromSlice(os.Environ())
	case SourceDotenv:
		snap, err = fromDotenv(opts.DotenvPath)
	case SourceDirenv:
		snap, err = fromDirenv(ctx, opts.WorkingDir)
	case SourceNone:
		snap = Snapshot{}
	default:
		return nil, fmt.Errorf("unsupported env source %q", opts.Source)
	}
	if err != nil {
		return nil, err
	}
	log.Debug().Str("source", string(opts.Source)).Int("vars", len(snap)).Msg("environment captured")
	return snap, nil
}

// Split splits a NAME=value entry. Entries without a name are rejected.
func Split(entry string) (name, value string, ok bool) {
	i := strings.IndexByte(entry, '=')
	if i <= 0 {
		return "", "", false
	}
	return entry[:i], entry[i+1:], true
}

// FromSlice builds a snapshot from NAME=value entries, as returned by os.Environ.
func FromSlice(entries []string) Snapshot {
	snap := make(Snapshot, len(entries))
	for _, e := range entries {
		if k, v, ok := Split(e); ok {
			snap[k] = v
		}
	}
	return snap
}

func fromDotenv(path string) (Snapshot, error) {
	if path == "" {
		path = ".env"
	}
	data, err := gotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dotenv file %s: %w", path, err)
	}
	return Snapshot(data), nil
}

func fromDirenv(ctx context.Context, dir string) (Snapshot, error) {
	if dir == "" {
		dir = "."
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "direnv", "export", "json")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("direnv export json failed: %w", err)
	}

	// direnv reports unset variables as null
	var data map[string]*string
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("failed to parse direnv json: %w", err)
	}
	snap := FromSlice(os.Environ())
	for k, v := range data {
		if v == nil {
			delete(snap, k)
			continue
		}
		snap[k] = *v
	}
	return snap, nil
}
