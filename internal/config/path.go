package config

import (
	"os"
	"path/filepath"
	"strings"
)

// FileNames are the configuration files looked for in the working directory,
// in order.
var FileNames = []string{
	"scrub-db.yaml",
	".scrub-db.yaml",
	"scrub-db.yml",
	".scrub-db.yml",
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// Discover returns the first configuration file that exists: one of
// FileNames in dir, then $HOME/.config/scrub-db/config.yaml. An empty home
// skips the second location.
func Discover(dir, home string) (string, bool) {
	candidates := make([]string, 0, len(FileNames)+1)
	for _, name := range FileNames {
		candidates = append(candidates, filepath.Join(dir, name))
	}
	if home != "" {
		candidates = append(candidates, filepath.Join(home, ".config", "scrub-db", "config.yaml"))
	}

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
