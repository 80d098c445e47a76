package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrExists = errors.New("env file already exists")

// Marshal renders vars as .env content with keys sorted for stable output.
// Empty values are skipped.
func Marshal(vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k, v := range vars {
		if k == "" || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("%s=%s\n", k, quote(vars[k])))
	}
	return sb.String()
}

// quote wraps values that godotenv would otherwise split or strip.
func quote(v string) string {
	if strings.ContainsAny(v, " \t#\"'") {
		return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return v
}

// WriteFile stores vars at path with owner-only permissions. It never
// overwrites an existing file.
func WriteFile(path string, vars map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create env directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err := os.WriteFile(path, []byte(Marshal(vars)), 0600); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	return nil
}
