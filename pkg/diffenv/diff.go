package diffenv

import (
	"sort"

	"github.com/go-go-golems/secrets-to-env/pkg/pipeline"
)

// Options controls how the diff is computed
type Options struct {
	IncludeExtra bool
}

// Result captures a simple env vs secrets diff
type Result struct {
	Matches      []Entry
	Changed      []ChangedEntry
	MissingInEnv []Entry
	ExtraInEnv   []Entry
}

type Entry struct {
	Name  string
	Value string
	// Key is the secret key the variable was derived from, empty for extra entries.
	Key string
}

type ChangedEntry struct {
	Name   string
	Secret string
	Env    string
	Key    string
}

// Expected returns the variables a run would publish, keyed by final name.
// Results skipped because the variable already existed still count: their
// value is what the secrets want the variable to hold.
func Expected(results []pipeline.Result) (map[string]string, map[string]string) {
	expected := map[string]string{}
	keys := map[string]string{}
	for _, r := range results {
		switch r.Action {
		case pipeline.ActionPublished, pipeline.ActionSkippedExisting:
			if _, seen := expected[r.FinalKey]; seen && r.Action == pipeline.ActionSkippedExisting {
				continue
			}
			expected[r.FinalKey] = r.Value
			keys[r.FinalKey] = r.Key
		}
	}
	return expected, keys
}

// Compute compares the variables derived from results with actual.
func Compute(results []pipeline.Result, actual map[string]string, opts Options) *Result {
	expected, keys := Expected(results)

	res := &Result{}
	for name, sVal := range expected {
		if eVal, ok := actual[name]; ok {
			if eVal == sVal {
				res.Matches = append(res.Matches, Entry{Name: name, Value: sVal, Key: keys[name]})
			} else {
				res.Changed = append(res.Changed, ChangedEntry{Name: name, Secret: sVal, Env: eVal, Key: keys[name]})
			}
		} else {
			res.MissingInEnv = append(res.MissingInEnv, Entry{Name: name, Value: sVal, Key: keys[name]})
		}
	}
	if opts.IncludeExtra {
		for name, eVal := range actual {
			if _, ok := expected[name]; !ok {
				res.ExtraInEnv = append(res.ExtraInEnv, Entry{Name: name, Value: eVal})
			}
		}
	}

	sort.Slice(res.Matches, func(i, j int) bool { return res.Matches[i].Name < res.Matches[j].Name })
	sort.Slice(res.MissingInEnv, func(i, j int) bool { return res.MissingInEnv[i].Name < res.MissingInEnv[j].Name })
	sort.Slice(res.ExtraInEnv, func(i, j int) bool { return res.ExtraInEnv[i].Name < res.ExtraInEnv[j].Name })
	sort.Slice(res.Changed, func(i, j int) bool { return res.Changed[i].Name < res.Changed[j].Name })
	return res
}

// Clean reports whether nothing differs.
func (r *Result) Clean() bool {
	return len(r.Changed) == 0 && len(r.MissingInEnv) == 0 && len(r.ExtraInEnv) == 0
}
