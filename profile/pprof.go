//go:build pprof

package profile

import (
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"

	_ "net/http/pprof" // register HTTP handlers
)

var modes = map[string]func(*profile.Profile){
	"allocs":    profile.MemProfileAllocs,
	"block":     profile.BlockProfile,
	"clock":     profile.ClockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"heap":      profile.MemProfileHeap,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// Modes lists the supported profiling modes, sorted.
var Modes = sync.OnceValue(func() []string {
	return slices.Sorted(maps.Keys(modes))
})

func start(s Session) Stopper {
	mode, ok := modes[s.Mode]
	if !ok {
		return ignore{}
	}

	opts := []func(*profile.Profile){mode, profile.NoShutdownHook}

	if s.Dir != "" {
		opts = append(opts, profile.ProfilePath(s.Dir))
	}

	if s.Quiet {
		opts = append(opts, profile.Quiet)
	}

	return profile.Start(opts...)
}
