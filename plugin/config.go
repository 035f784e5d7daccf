//go:generate go tool stringer --linecomment --type Mode

package plugin

import (
	"bufio"
	"io"
	"log/slog"
	"strings"

	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/menu"
)

// Mode selects how queued host commands are consumed.
type Mode int

const (
	// ModeThread runs commands on a dedicated goroutine.
	ModeThread Mode = iota // thread
	// ModeDrain runs commands on the event loop between events.
	ModeDrain // drain
)

// DefaultInputConf is read when the player reports no input-conf.
const DefaultInputConf = "~~/input.conf"

// MemoryScheme prefixes inline menu data given in place of a path.
const MemoryScheme = "memory://"

// Config holds the plugin settings.
type Config struct {
	Dialect menu.Dialect `yaml:"dialect"`
	// InputConf overrides the player's input-conf property.
	InputConf string `yaml:"input-conf"`
	// Load builds the menu from input.conf on startup. Without it the menu
	// only comes from the menu-data property.
	Load bool `yaml:"load"`
	Mode Mode `yaml:"-"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{Dialect: menu.DefaultDialect, Load: true}
}

// ReadScriptOpts applies a script-opts file (key=value lines, "#" comments)
// to conf. Recognized keys are load and uosc, with yes/no values. uosc
// toggles the uosc comment syntax of conf.Dialect and leaves its other
// settings alone. Unknown keys are logged and ignored.
func ReadScriptOpts(r io.Reader, conf *Config, logger log.Logger) error {
	sc := bufio.NewScanner(r)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}

		switch name {
		case "uosc":
			uosc := value == "yes"
			conf.Dialect.AltTrigger = uosc
			conf.Dialect.MessageSyntax = uosc
			conf.Dialect.DashSeparator = uosc
		case "load":
			conf.Load = value == "yes"
		default:
			logger.Debug("unknown script option", slog.String("name", name))
		}
	}

	return sc.Err()
}
