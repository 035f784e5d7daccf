// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Loggers are plain values configured with functional options at creation
// time:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText))
//
// Components of the plugin receive a [Logger] through their own options and
// tag it with [Logger.Component]. The zero Logger discards everything, so a
// component built without a logger stays silent.
//
// The package-level functions ([Info], [Debug], ...) write through a default
// logger that the command line reconfigures with [Config].
package log
