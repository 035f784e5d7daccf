//go:build !pprof

package cli

import (
	"context"

	"github.com/alecthomas/kong"
)

// pprofConfig is empty when built without pprof tag.
type pprofConfig struct{}

func (pprofConfig) vars() kong.Vars { return kong.Vars{} }

func (pprofConfig) group() kong.Group {
	var group kong.Group

	group.Key = "pprof"
	group.Title = "Profiling (pprof)"

	return group
}

// start is a no-op when built without pprof tag.
func (pprofConfig) start(context.Context, string) (stop func()) { return func() {} }
