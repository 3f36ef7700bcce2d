// Package identity resolves which user the module source belongs to.
//
// The user is always an explicit input. When none is given the default is,
// in order: the SUDO_USER environment variable (unless it is root), then the
// user running the process.
package identity

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// ErrNoUser is returned when no user name could be determined.
var ErrNoUser = errors.New("no user name")

// Resolver resolves user names. The zero value uses the process environment.
type Resolver struct {
	Getenv  func(string) string
	Current func() (*user.User, error)
}

// Resolve returns the first non-empty candidate, or the default user.
func (r Resolver) Resolve(candidates ...string) (string, error) {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c, validate(c)
		}
	}

	if name := r.getenv("SUDO_USER"); name != "" && name != "root" {
		return name, validate(name)
	}

	u, err := r.current()
	if err != nil {
		return "", fmt.Errorf("looking up current user: %w", err)
	}
	if u.Username == "" {
		return "", ErrNoUser
	}
	return u.Username, validate(u.Username)
}

// RepoPath returns the per-user location of the module source.
func RepoPath(homeRoot, userName, dirName string) string {
	return filepath.Join(homeRoot, userName, dirName)
}

// validate rejects names that would escape the home root.
func validate(name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid user name %q", name)
	}
	return nil
}

func (r Resolver) getenv(key string) string {
	if r.Getenv == nil {
		return os.Getenv(key)
	}
	return r.Getenv(key)
}

func (r Resolver) current() (*user.User, error) {
	if r.Current == nil {
		return user.Current()
	}
	return r.Current()
}
