// Package cli contains the command line interface for mpv-menu-plugin.
//
// # Usage
//
// The plugin attaches to a running player through its JSON IPC socket:
//
//	mpv --input-ipc-server=/tmp/mpv.sock video.mkv &
//	mpv-menu-plugin run /tmp/mpv.sock
//
// Offline commands work on input.conf files without a player:
//
//	mpv-menu-plugin parse --format=yaml ~/.config/mpv/input.conf
//	mpv-menu-plugin fmt input.conf
//	mpv-menu-plugin preview --state=state.yaml input.conf
//
// # Configuration
//
// Flags may be set in a YAML file under the user config directory
// (see [configPath]). Nested mappings are flattened with hyphens and
// underscores are accepted in place of hyphens:
//
//	log:
//	  level: debug
//	uosc: true
//	sub_off: false
//
// Command-line flags override the file. The init command writes the
// current flag values as a starting point.
//
// # Dialect Options
//
//   - --uosc: enable every uosc syntax extension
//   - --alt-trigger, --message-syntax, --dash-separator: enable one
//     extension at a time
//   - --merge: merge duplicate submenu titles (default true)
//   - --sub-off: append an Off entry to subtitle track lists (default true)
//
// # Logging Options
//
//   - --log-level: minimum log level (trace, debug, info, warn, error)
//   - --log-format: output format (json, text)
//   - --log-time-layout: timestamp layout
//   - --log-caller: include caller information
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: profile kind (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: output directory (default under the user cache dir)
package cli
