package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoConfig indicates that no configuration file was found during discovery.
var ErrNoConfig = errors.New("no config file discovered")

// ConfigNames lists the file names searched for in the working directory, in
// priority order.
var ConfigNames = []string{".adoreport.yml", ".adoreport.yaml"}

// ConfigFile returns the configuration file to load. An explicit path is
// validated and returned as given (relative paths resolve against root).
// Otherwise the first of ConfigNames present in root is used.
func ConfigFile(root, explicit string) (string, error) {
	if explicit != "" {
		return resolveExplicit(root, explicit)
	}

	for _, name := range ConfigNames {
		path := filepath.Join(root, name)
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("stat %q: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		return mustRelOrClean(root, path), nil
	}
	return "", ErrNoConfig
}

func resolveExplicit(root, explicit string) (string, error) {
	cleaned := explicit
	if !filepath.IsAbs(cleaned) {
		cleaned = filepath.Join(root, cleaned)
	}
	info, err := os.Stat(cleaned)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("config %q not found", explicit)
		}
		return "", fmt.Errorf("stat %q: %w", explicit, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("config %q is a directory", explicit)
	}
	return mustRelOrClean(root, cleaned), nil
}

func mustRelOrClean(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Clean(path)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}
