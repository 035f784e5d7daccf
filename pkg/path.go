package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Prefix returns the base name used for the configuration and cache
// directories.
//
// By default, Prefix is the base name of the executable file unless it matches
// one of the following substitution rules:
//   - "__debug_bin" (default output of the dlv debugger): replaced with Name
//   - "^\.+" (dot-prefixed names): remove the dot prefix
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		exe, err := os.Executable()
		if err == nil {
			id = exe
		}

		ext := filepath.Ext(filepath.Base(id))
		id = strings.TrimSuffix(filepath.Base(id), ext)

		for rex, rep := range map[*regexp.Regexp]string{
			regexp.MustCompile(`^__debug_bin\d+$`): Name,
			regexp.MustCompile(`^\.+`):             "",
		} {
			id = rex.ReplaceAllString(id, rep)
		}

		if id == "" {
			id = Name
		}

		return id
	},
)

// ConfigDir returns the configuration directory path.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(
	func() string {
		return userDir(os.UserConfigDir, ".config")
	},
)

// CacheDir returns the cache directory path used for transient files such as
// profiles.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(
	func() string {
		return userDir(os.UserCacheDir, ".cache")
	},
)

func userDir(base func() (string, error), fallback string) string {
	dir, err := base()
	if err != nil {
		dir, err = os.UserHomeDir()
		if err == nil {
			dir = filepath.Join(dir, fallback)
		} else {
			dir, err = os.Getwd()
			if err != nil {
				dir = "."
			}
		}
	}

	return filepath.Join(dir, Prefix())
}

// MPVConfigDir returns the player's configuration directory, the "~~/"
// of mpv paths: $MPV_HOME when set, otherwise "mpv" next to [ConfigDir].
//
//nolint:gochecknoglobals
var MPVConfigDir = sync.OnceValue(
	func() string {
		if dir := os.Getenv("MPV_HOME"); dir != "" {
			return dir
		}

		return filepath.Join(filepath.Dir(ConfigDir()), "mpv")
	},
)

// ScriptOptsPath returns the player's script-opts file for this plugin.
func ScriptOptsPath() string {
	return filepath.Join(MPVConfigDir(), "script-opts", Name+".conf")
}
