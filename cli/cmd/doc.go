// Package cmd implements the subcommands of the mpv-menu-plugin CLI.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"
)

// ScriptOptsIdentifier is the kong variable identifier containing the
// default path of the player's script-opts file.
const ScriptOptsIdentifier = "scriptOpts"
