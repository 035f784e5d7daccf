// Package profile provides optional runtime profiling for mpv-menu-plugin.
//
// Profiling integrates [github.com/pkg/profile] and is compiled in only with
// the pprof build tag:
//
//	go build -tags pprof .
//
// Without the tag every operation is a no-op and [Modes] is empty.
//
// # Modes
//
//   - allocs, heap, mem: memory allocation profiles
//   - block, mutex: contention profiles
//   - clock, cpu: wall-clock and CPU profiles
//   - goroutine, thread: goroutine and thread creation profiles
//   - trace: execution trace
//
// # Usage
//
// A [Session] is built with functional options and started:
//
//	defer profile.New(profile.WithMode("cpu"), profile.WithDir(dir)).Start().Stop()
//
// The CLI exposes the same through --pprof-mode and --pprof-dir; profiles
// land under the cache directory, one subdirectory per command:
//
//	mpv-menu-plugin --pprof-mode=cpu run /tmp/mpv.sock
//	go tool pprof -http=: ~/.cache/mpv-menu-plugin/pprof/run/cpu.pprof
//
// With the tag, [net/http/pprof] handlers are registered as well; they
// serve only if the process starts an HTTP server.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
