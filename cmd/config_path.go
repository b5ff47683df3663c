package cmd

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigEnv names the environment variable holding the configuration path.
const ConfigEnv = "INFRALENS_CONFIG"

const appDir = "infralens"

func configCandidates() []string {
	names := []string{"config.yml", "config.yaml"}
	var candidates []string

	for _, n := range names {
		candidates = append(candidates, "./"+n)
	}

	home, _ := os.UserHomeDir()
	if runtime.GOOS == "windows" {
		for _, base := range []string{os.Getenv("APPDATA"), os.Getenv("PROGRAMDATA"), home} {
			if base == "" {
				continue
			}
			for _, n := range names {
				candidates = append(candidates, filepath.Join(base, appDir, n))
			}
		}
		return candidates
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		for _, n := range names {
			candidates = append(candidates, filepath.Join(xdg, appDir, n))
		}
	}
	if home != "" {
		for _, n := range names {
			candidates = append(candidates, filepath.Join(home, ".config", appDir, n))
			candidates = append(candidates, filepath.Join(home, "."+appDir, n))
		}
	}
	for _, n := range names {
		candidates = append(candidates, filepath.Join("/etc", appDir, n))
	}
	return candidates
}

// findConfigPath returns $INFRALENS_CONFIG, else the first existing
// candidate, else ./config.yml. The file is not created; a missing file means
// the default configuration.
func findConfigPath() string {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p
	}
	for _, p := range configCandidates() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "./config.yml"
}
