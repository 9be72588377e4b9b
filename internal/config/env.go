package config

import (
	"fmt"
	"sort"

	"github.com/joho/godotenv"
)

// LoadEnvFile reads KEY=VALUE pairs from a dotenv file.
// An empty path yields an empty map.
func LoadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return vars, nil
}

// Environ flattens the given maps into KEY=VALUE entries with keys sorted.
// Later maps override earlier ones.
func Environ(layers ...map[string]string) []string {
	merged := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+merged[k])
	}
	return env
}
