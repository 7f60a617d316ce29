// Package output renders exported variables and writes them to files or the console.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

const (
	FormatEnvrc  = "envrc"
	FormatDotenv = "dotenv"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
)

var Formats = []string{FormatEnvrc, FormatDotenv, FormatJSON, FormatYAML}

var shellName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ShellName reports whether name can be assigned by a POSIX shell.
func ShellName(name string) bool {
	return shellName.MatchString(name)
}

// Variable is one exported name/value pair.
type Variable struct {
	Name  string
	Value string
}

// Dedupe keeps the first position and the last value of each name, which is
// what sequential exports leave behind in an environment.
func Dedupe(vars []Variable) []Variable {
	idx := make(map[string]int, len(vars))
	out := make([]Variable, 0, len(vars))
	for _, v := range vars {
		if i, ok := idx[v.Name]; ok {
			out[i].Value = v.Value
			continue
		}
		idx[v.Name] = len(out)
		out = append(out, v)
	}
	return out
}

// Render formats vars. With sortKeys names are sorted, otherwise export order is kept.
func Render(vars []Variable, format string, sortKeys bool) ([]byte, error) {
	vars = Dedupe(vars)
	if sortKeys {
		sort.SliceStable(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	}

	switch format {
	case "", FormatEnvrc:
		var b strings.Builder
		for _, v := range shellVariables(vars, format) {
			fmt.Fprintf(&b, "export %s=%s\n", v.Name, ShellQuote(v.Value))
		}
		return []byte(b.String()), nil
	case FormatDotenv:
		var b strings.Builder
		// one Marshal per variable: gotenv sorts a whole map
		for _, v := range shellVariables(vars, format) {
			line, err := gotenv.Marshal(gotenv.Env{v.Name: v.Value})
			if err != nil {
				return nil, fmt.Errorf("failed to marshal dotenv: %w", err)
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		return []byte(b.String()), nil
	case FormatJSON:
		return renderJSON(vars)
	case FormatYAML:
		return renderYAML(vars)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// shellVariables drops the variables a shell could not assign, with a warning.
func shellVariables(vars []Variable, format string) []Variable {
	out := make([]Variable, 0, len(vars))
	for _, v := range vars {
		if !ShellName(v.Name) {
			log.Warn().Str("name", v.Name).Str("format", format).Msg("skipping variable whose name is not a valid shell identifier")
			continue
		}
		out = append(out, v)
	}
	return out
}

// ShellQuote single-quotes s for POSIX shells.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// renderJSON writes an object whose keys keep the order of vars.
func renderJSON(vars []Variable) ([]byte, error) {
	var bld bytes.Buffer
	bld.WriteByte('{')
	for i, v := range vars {
		kb, err := json.Marshal(v.Name)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(v.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal ordered json value: %w", err)
		}
		if i > 0 {
			bld.WriteByte(',')
		}
		bld.WriteString("\n  ")
		bld.Write(kb)
		bld.WriteString(": ")
		bld.Write(vb)
	}
	if len(vars) > 0 {
		bld.WriteByte('\n')
	}
	bld.WriteString("}\n")
	return bld.Bytes(), nil
}

func renderYAML(vars []Variable) ([]byte, error) {
	if len(vars) == 0 {
		return []byte("{}\n"), nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, v := range vars {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Value},
		)
	}
	buf, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ordered YAML: %w", err)
	}
	return buf, nil
}
