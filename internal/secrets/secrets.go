// Package secrets resolves credentials from explicit values, the environment and mounted files.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound signals that a credential was found in none of its sources.
var ErrNotFound = errors.New("secret not found")

// Source names one place a credential may come from.
type Source struct {
	// Explicit is a value taken verbatim from configuration.
	Explicit string
	// EnvVar is the environment variable consulted when Explicit is empty.
	EnvVar string
	// File is a path whose trimmed content is used last (Docker/Kubernetes secret mounts).
	File string
}

// NotFoundError lists every place that was searched.
type NotFoundError struct {
	Name     string
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s (searched %s)", ErrNotFound.Error(), e.Name, strings.Join(e.Searched, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Resolver looks credentials up with the precedence explicit > environment > file.
type Resolver struct {
	Getenv   func(string) string
	ReadFile func(string) ([]byte, error)
}

// NewResolver creates a resolver over the process environment and filesystem.
func NewResolver() Resolver {
	return Resolver{Getenv: os.Getenv, ReadFile: os.ReadFile}
}

// Resolve returns the first non-blank value. A file that exists but cannot be read is an error.
func (r Resolver) Resolve(name string, src Source) (string, error) {
	if v := strings.TrimSpace(src.Explicit); v != "" {
		return v, nil
	}

	searched := []string{"config"}
	if src.EnvVar != "" {
		if v := strings.TrimSpace(r.Getenv(src.EnvVar)); v != "" {
			return v, nil
		}
		searched = append(searched, "$"+src.EnvVar)
	}

	if src.File != "" {
		data, err := r.ReadFile(filepath.Clean(src.File))
		switch {
		case err == nil:
			if v := strings.TrimSpace(string(data)); v != "" {
				return v, nil
			}
		case !errors.Is(err, os.ErrNotExist):
			return "", fmt.Errorf("read secret file for %s: %w", name, err)
		}
		searched = append(searched, "file "+src.File)
	}

	return "", &NotFoundError{Name: name, Searched: searched}
}
