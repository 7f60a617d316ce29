package inputs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/go-go-golems/secrets-to-env/pkg/pipeline"
)

const malformedHint = `Cannot parse JSON secrets.
Make sure you add the following to this action:

with:
      secrets: ${{ toJSON(secrets) }}
or:
      secrets: ${{ toJSON(vars) }}`

// ParseSecrets decodes a JSON object into a SecretMap, keeping the order in
// which keys appear in the document. String values are unescaped, numbers and
// booleans keep their literal text, null becomes "" and nested objects or
// arrays are kept as compact JSON.
func ParseSecrets(payload []byte) (*pipeline.SecretMap, error) {
	data := bytes.TrimSpace(payload)
	if len(data) == 0 || data[0] != '{' || !json.Valid(data) {
		return nil, malformed(errors.New("payload is not a JSON object"))
	}

	secrets := pipeline.NewSecretMap()
	err := jsonparser.ObjectEach(data, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			return fmt.Errorf("invalid key %q: %w", key, err)
		}
		v, err := valueString(value, dataType)
		if err != nil {
			return fmt.Errorf("invalid value for %q: %w", name, err)
		}
		secrets.Set(name, v)
		return nil
	})
	if err != nil {
		return nil, malformed(err)
	}
	return secrets, nil
}

func valueString(raw []byte, t jsonparser.ValueType) (string, error) {
	switch t {
	case jsonparser.String:
		return jsonparser.ParseString(raw)
	case jsonparser.Null:
		return "", nil
	case jsonparser.Object, jsonparser.Array:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return "", err
		}
		return buf.String(), nil
	case jsonparser.Number, jsonparser.Boolean:
		return string(raw), nil
	default:
		return "", fmt.Errorf("unsupported value type %s", t)
	}
}

func malformed(err error) error {
	return pipeline.NewConfigurationError(pipeline.ErrMalformedSecretsPayload, InputSecrets, fmt.Errorf("%w\n%s", err, malformedHint))
}
