// Package host defines the collaborator a run is hosted by and the run
// orchestration shared by every host.
package host

import (
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/secrets-to-env/pkg/inputs"
	"github.com/go-go-golems/secrets-to-env/pkg/pipeline"
)

// Host supplies inputs, the environment, the export sink and the trace sink.
type Host interface {
	inputs.Reader
	pipeline.Environment
	pipeline.Exporter
	pipeline.Logger
	// SetFailed marks the run as failed with a terminal message.
	SetFailed(message string)
}

// Run loads the inputs from h, runs the pipeline and reports any error through
// h.SetFailed exactly once.
func Run(h Host) ([]pipeline.Result, error) {
	results, err := run(h)
	if err != nil {
		log.Debug().Err(err).Msg("run failed")
		h.SetFailed(err.Error())
		return results, err
	}
	return results, nil
}

func run(h Host) ([]pipeline.Result, error) {
	loaded, err := inputs.Load(h)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.New(loaded.Configuration, pipeline.WithLogger(h))
	if err != nil {
		return nil, err
	}
	results, err := p.Run(loaded.Secrets, h, h)
	log.Debug().Int("results", len(results)).Msg("pipeline finished")
	return results, err
}

// Summary counts results per action.
type Summary struct {
	Published       int
	SkippedFiltered int
	SkippedExisting int
}

func Summarize(results []pipeline.Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Action {
		case pipeline.ActionPublished:
			s.Published++
		case pipeline.ActionSkippedFiltered:
			s.SkippedFiltered++
		case pipeline.ActionSkippedExisting:
			s.SkippedExisting++
		}
	}
	return s
}
