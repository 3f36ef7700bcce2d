package kmod

import (
	"fmt"
	"strings"
)

// CleanPolicy decides when "make clean" runs before a build.
type CleanPolicy string

const (
	// CleanAlways cleans before every build. Objects cached from an older
	// compiler or kernel break the build otherwise.
	CleanAlways CleanPolicy = "always"
	// CleanAuto cleans only when the running kernel differs from the one the
	// module was last built for.
	CleanAuto CleanPolicy = "auto"
	// CleanNever never cleans.
	CleanNever CleanPolicy = "never"
)

// ParseCleanPolicy parses s, accepting an empty string as CleanAlways.
func ParseCleanPolicy(s string) (CleanPolicy, error) {
	switch p := CleanPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return CleanAlways, nil
	case CleanAlways, CleanAuto, CleanNever:
		return p, nil
	default:
		return "", fmt.Errorf("unknown clean policy %q: supported policies are %q, %q and %q", s, CleanAlways, CleanAuto, CleanNever)
	}
}
