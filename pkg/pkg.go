//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

// version is the semantic version of the module embedded at build time.
//
//go:embed VERSION
var version string

// Version returns the embedded semantic version without surrounding space.
func Version() string { return strings.TrimSpace(version) }

const (
	// Name is the canonical command and module identifier used across the
	// project. It appears in help text, the default config path, and the
	// mpv client name reported over IPC.
	Name = "mpv-menu-plugin"
	// Description is a short, human-readable summary of the project used in
	// help output.
	Description = "Context menu for mpv driven by input.conf"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project for display in metadata.
var Author = []AuthorInfo{
	{"tsl0922", "tsl0922@gmail.com"},
}
