// FILE: lixenwraith/yacman/discovery.go
package yacman

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Selector configures config file resolution.
type Selector struct {
	// Explicit path, used when it exists
	Explicit string

	// Environment variables to check (in order) for a path
	EnvVars []string

	// Base name of config file (without extension) for directory search
	Name string

	// Extensions to try (in order) during directory search
	Extensions []string

	// Directories searched after the environment
	Paths []string

	// Whether to search in XDG config directories
	UseXDG bool

	// Default is returned as given when nothing else resolved
	Default string

	// Strict fails when an env var names a missing file or nothing resolved
	Strict bool
}

// DefaultSelector returns a selector for an application: explicit path,
// then $<APP>_CONFIG, then <app>.yaml in the XDG config directories.
func DefaultSelector(appName string) Selector {
	return Selector{
		EnvVars:    []string{strings.ToUpper(appName) + "_CONFIG"},
		Name:       appName,
		Extensions: []string{".yaml", ".yml", ".json", ".toml"},
		UseXDG:     true,
	}
}

// SelectConfig resolves a config path from an explicit path, a list of
// environment variables, and a default. It returns "" when nothing resolved
// and strict is false.
func SelectConfig(explicit string, envVars []string, defaultPath string, strict bool) (string, error) {
	return Selector{
		Explicit: explicit,
		EnvVars:  envVars,
		Default:  defaultPath,
		Strict:   strict,
	}.Resolve()
}

// Resolve returns the first existing candidate: explicit path, environment
// variables, search directories, then the default path as given.
func (s Selector) Resolve() (string, error) {
	if s.Explicit != "" {
		if fileExists(s.Explicit) {
			return s.Explicit, nil
		}
		slog.Warn("config file does not exist", "path", s.Explicit)
	}

	for _, envVar := range s.EnvVars {
		path := os.Getenv(envVar)
		if path == "" {
			continue
		}
		if fileExists(path) {
			return path, nil
		}
		if s.Strict {
			return "", fmt.Errorf("%w: $%s points to missing file '%s'", ErrConfigNotFound, envVar, path)
		}
		slog.Warn("config file from environment does not exist", "env", envVar, "path", path)
	}

	if s.Name != "" {
		var searchPaths []string
		searchPaths = append(searchPaths, s.Paths...)
		if s.UseXDG {
			searchPaths = append(searchPaths, getXDGConfigPaths(s.Name)...)
		}

		for _, dir := range searchPaths {
			for _, ext := range s.Extensions {
				path := filepath.Join(dir, s.Name+ext)
				if fileExists(path) {
					return path, nil
				}
			}
		}
	}

	if s.Default != "" {
		return s.Default, nil
	}

	if s.Strict {
		return "", ErrConfigNotFound
	}
	return "", nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// getXDGConfigPaths returns XDG-compliant config search paths
func getXDGConfigPaths(appName string) []string {
	var paths []string

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	if xdgDirs := os.Getenv("XDG_CONFIG_DIRS"); xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		paths = append(paths,
			filepath.Join("/etc/xdg", appName),
			filepath.Join("/etc", appName),
		)
	}

	return paths
}
