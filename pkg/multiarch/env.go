package multiarch

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// defaultPath is what $PATH expands to when the image has no PATH, which is always the case for an empty base
const defaultPath = "/usr/bin"

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnv replaces ${VAR} and $VAR with values from env, without recursion.
// Unknown names are kept as is.
func expandEnv(v string, env map[string]string) string {
	if !strings.Contains(v, "$") {
		return v
	}
	return envRef.ReplaceAllStringFunc(v, func(m string) string {
		sub := envRef.FindStringSubmatch(m)
		name := sub[1]
		if name == "" {
			name = sub[2]
		}
		if val, ok := env[name]; ok {
			return val
		}
		if name == "PATH" {
			return defaultPath
		}
		return m
	})
}

// mergeEnv sets each KEY=VALUE of overrides in place of the existing entry for KEY,
// or appends it. Values are expanded against existing, not against other overrides.
func mergeEnv(existing []string, overrides []string) ([]string, error) {
	if len(overrides) == 0 {
		return existing, nil
	}
	original := make(map[string]string, len(existing))
	for _, e := range existing {
		if k, v, ok := strings.Cut(e, "="); ok {
			original[k] = v
		}
	}
	out := slices.Clone(existing)
	for _, kv := range overrides {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("env entry must be KEY=VALUE, got %q", kv)
		}
		entry := k + "=" + expandEnv(v, original)
		i := slices.IndexFunc(out, func(e string) bool { return strings.HasPrefix(e, k+"=") })
		if i >= 0 {
			out[i] = entry
		} else {
			out = append(out, entry)
		}
	}
	return out, nil
}
