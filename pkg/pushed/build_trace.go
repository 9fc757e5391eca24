package pushed

import (
	"regexp"
	"strings"
	"time"
)

// traceEnv selects the variables that identify a CI build, plus our own
var traceEnv = regexp.MustCompile(`^(CI|CI_.*|FATMACHO_.*|PLATFORMS|GITHUB_SHA|GITHUB_REF)$`)

// BuildTrace says when a build ran and in which CI context
type BuildTrace struct {
	Start *time.Time        `json:"start,omitempty"`
	End   *time.Time        `json:"end,omitempty"`
	Env   map[string]string `json:"env,omitempty"`
}

// NewBuildTrace ends now
func NewBuildTrace(start time.Time, environ []string) *BuildTrace {
	end := time.Now()
	return &BuildTrace{
		Start: &start,
		End:   &end,
		Env:   BuildTraceEnv(environ),
	}
}

// BuildTraceEnv picks traced variables from KEY=VALUE entries as in os.Environ
func BuildTraceEnv(environ []string) map[string]string {
	env := make(map[string]string)
	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok && traceEnv.MatchString(k) {
			env[k] = v
		}
	}
	return env
}
