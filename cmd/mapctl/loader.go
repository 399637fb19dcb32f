package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/brightfeed/mapengine"
)

// loadValue reads a payload, target-schema, or partner-spec file from disk.
// YAML input (.yaml/.yml) is decoded generically and handed to FromAny;
// everything else is treated as JSON and parsed with ParseJSON so object key
// order from the source document survives.
func loadValue(path string) (mapengine.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mapengine.Value{}, fmt.Errorf("reading %s: %w", path, err)
	}

	if isYAMLPath(path) {
		var decoded any
		if err := yaml.Unmarshal(data, &decoded); err != nil {
			return mapengine.Value{}, fmt.Errorf("decoding yaml %s: %w", path, err)
		}
		return mapengine.FromAny(decoded), nil
	}

	v, err := mapengine.ParseJSON(data)
	if err != nil {
		return mapengine.Value{}, fmt.Errorf("decoding json %s: %w", path, err)
	}
	return v, nil
}

func isYAMLPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
