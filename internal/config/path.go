// Package config maps viper settings onto the engine, storage and sheets configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AppName names the config directory and the environment prefix.
const AppName = "docmeta"

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
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

// Dir returns $HOME/.config/docmeta, or a relative .docmeta when the home
// directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// DatabasePath returns the master database path from database.path, expanded,
// defaulting to masters.db in Dir.
func DatabasePath(v *viper.Viper) string {
	if v == nil {
		v = viper.GetViper()
	}
	if p := v.GetString("database.path"); p != "" {
		return ExpandPath(p)
	}
	return filepath.Join(Dir(), "masters.db")
}

// TokenFile returns where the Google OAuth2 token is kept, from
// sheets.token_file or sheets-token.json in Dir.
func TokenFile(v *viper.Viper) string {
	if v == nil {
		v = viper.GetViper()
	}
	if p := v.GetString("sheets.token_file"); p != "" {
		return ExpandPath(p)
	}
	return filepath.Join(Dir(), "sheets-token.json")
}
