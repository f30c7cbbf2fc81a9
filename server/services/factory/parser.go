package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/go-jsonnet"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/devboard/devboard/common/gerror"
)

// ParseConfigDocument parses a configuration document into its top level object.
// JSON is tried first and then YAML. Files named *.jsonnet are evaluated first.
// An empty document parses to an empty object.
func ParseConfigDocument(filename string, content []byte) (map[string]interface{}, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return map[string]interface{}{}, nil
	}
	var (
		raw interface{}
		err error
	)
	if strings.HasSuffix(strings.ToLower(filename), ".jsonnet") {
		raw, err = parseFromJSONNET(filename, content)
	} else if raw, err = parseFromJSON(content); err != nil {
		raw, err = parseFromYAML(content)
	}
	if err != nil {
		return nil, gerror.NewErrValidationFailed("Unable to parse configuration document").EDetail("file", filename).Wrap(err)
	}
	doc, ok := raw.(map[string]interface{})
	if !ok {
		return nil, gerror.NewErrValidationFailed(fmt.Sprintf("Configuration document must contain a top-level object, found %T", raw)).EDetail("file", filename)
	}
	return doc, nil
}

func parseFromJSON(content []byte) (interface{}, error) {
	var raw interface{}
	err := json.Unmarshal(content, &raw)
	if err != nil {
		return nil, errors.Wrap(err, "error unmarshalling json")
	}
	return raw, nil
}

func parseFromYAML(content []byte) (interface{}, error) {
	var raw interface{}
	err := yaml.Unmarshal(content, &raw)
	if err != nil {
		return nil, errors.Wrap(err, "error unmarshalling yaml")
	}
	return normalizeMapValues(raw), nil
}

func parseFromJSONNET(filename string, content []byte) (interface{}, error) {
	vm := jsonnet.MakeVM()
	out, err := vm.EvaluateSnippet(filename, string(content))
	if err != nil {
		return nil, errors.Wrap(err, "error evaluating jsonnet")
	}
	return parseFromJSON([]byte(out))
}

// normalizeMapValues converts the map[interface{}]interface{} values produced by the
// yaml parser into map[string]interface{} so documents look the same whichever
// parser produced them. Scalars are left untouched.
func normalizeMapValues(v interface{}) interface{} {
	switch v := v.(type) {
	case []interface{}:
		res := make([]interface{}, len(v))
		for i, e := range v {
			res[i] = normalizeMapValues(e)
		}
		return res
	case map[interface{}]interface{}:
		res := make(map[string]interface{}, len(v))
		for k, e := range v {
			res[fmt.Sprintf("%v", k)] = normalizeMapValues(e)
		}
		return res
	default:
		return v
	}
}
