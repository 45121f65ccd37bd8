package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileValues holds the flattened overlay file, keyed like the environment.
var fileValues map[string]string

// readOverlay loads a YAML file and flattens it into PSHARE_* keys:
//
//	rate_limit:
//	  points: 20        -> PSHARE_RATE_LIMIT_POINTS=20
//	allowed_cidrs: [a, b] -> PSHARE_ALLOWED_CIDRS=a,b
func readOverlay(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	out := make(map[string]string)
	flatten("PSHARE", doc, out)
	return out, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := prefix + "_" + strings.ToUpper(strings.ReplaceAll(k, "-", "_"))
		switch v := node[k].(type) {
		case map[string]any:
			flatten(key, v, out)
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			out[key] = strings.Join(parts, ",")
		case nil:
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}
