package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/buger/jsonparser"
	"github.com/rs/zerolog/log"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

type WriteOptions struct {
	Format   string // envrc|dotenv|json|yaml
	SortKeys bool
	// Stdout receives the content when path is "-". Defaults to os.Stdout.
	Stdout io.Writer
}

// Write renders vars to path. json, yaml and dotenv files are merged with
// their existing content; envrc files are overwritten.
func Write(path string, vars []Variable, opts WriteOptions) error {
	if path == "-" {
		content, err := Render(vars, opts.Format, opts.SortKeys)
		if err != nil {
			return err
		}
		w := opts.Stdout
		if w == nil {
			w = os.Stdout
		}
		_, err = w.Write(content)
		return err
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	existing, err := readExisting(path, opts.Format)
	if err != nil {
		return err
	}
	if opts.Format == FormatEnvrc || opts.Format == "" {
		if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
			log.Warn().Str("path", path).Msg("overwriting existing .envrc file")
		}
	}

	content, err := Render(append(existing, vars...), opts.Format, opts.SortKeys)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Debug().Str("path", path).Str("format", opts.Format).Int("bytes", len(content)).Int("merged", len(existing)).Msg("output written")
	return nil
}

// readExisting returns the variables already stored in a mergeable file, in file order where the format keeps one.
func readExisting(path, format string) ([]Variable, error) {
	switch format {
	case FormatJSON, FormatYAML, FormatDotenv:
	default:
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(b) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read existing output %s: %w", path, err)
	}

	var vars []Variable
	switch format {
	case FormatJSON:
		err = jsonparser.ObjectEach(b, func(key []byte, value []byte, t jsonparser.ValueType, _ int) error {
			name, err := jsonparser.ParseString(key)
			if err != nil {
				return err
			}
			v := string(value)
			if t == jsonparser.String {
				if v, err = jsonparser.ParseString(value); err != nil {
					return err
				}
			}
			vars = append(vars, Variable{Name: name, Value: v})
			return nil
		})
	case FormatYAML:
		var doc yaml.Node
		if err = yaml.Unmarshal(b, &doc); err == nil && len(doc.Content) > 0 {
			m := doc.Content[0]
			if m.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("existing output %s is not a YAML mapping", path)
			}
			for i := 0; i+1 < len(m.Content); i += 2 {
				vars = append(vars, Variable{Name: m.Content[i].Value, Value: m.Content[i+1].Value})
			}
		}
	case FormatDotenv:
		var env gotenv.Env
		if env, err = gotenv.StrictParse(bytes.NewReader(b)); err == nil {
			keys := make([]string, 0, len(env))
			for k := range env {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				vars = append(vars, Variable{Name: k, Value: env[k]})
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse existing output %s for merge: %w", path, err)
	}
	return vars, nil
}
