package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/mpv"
	"github.com/tsl0922/mpv-menu-plugin/native"
	"github.com/tsl0922/mpv-menu-plugin/plugin"
	"github.com/tsl0922/mpv-menu-plugin/telemetry"
	"github.com/tsl0922/mpv-menu-plugin/tui"
)

// Run attaches the menu to a running player through its IPC socket.
type Run struct {
	InputConf  string `help:"Menu definition overriding the player's input-conf; prefix inline data with memory://." name:"input-conf"`
	ScriptOpts string `default:"${scriptOpts}" help:"script-opts file with load and uosc options." name:"script-opts" type:"path"`
	Mode       string `default:"thread" enum:"thread,drain" help:"How host commands are run."`
	Load       bool   `default:"true" help:"Load input.conf on startup." negatable:""`
	Events     int    `default:"64" help:"Player events buffered while the plugin is busy." name:"event-buffer"`

	Socket string `arg:"" help:"Player IPC socket (--input-ipc-server)." name:"socket" type:"path"`
}

// config assembles the plugin settings from flags and the script-opts file.
func (r *Run) config(ctx context.Context) plugin.Config {
	conf := plugin.DefaultConfig()
	conf.Dialect = dialectFrom(ctx)
	conf.InputConf = r.InputConf
	conf.Load = r.Load

	if r.Mode == plugin.ModeDrain.String() {
		conf.Mode = plugin.ModeDrain
	}

	if r.ScriptOpts == "" {
		return conf
	}

	f, err := os.Open(r.ScriptOpts)
	if err != nil {
		log.DebugContext(ctx, "script-opts not read", slog.Any("error", err))

		return conf
	}
	defer f.Close()

	if err := plugin.ReadScriptOpts(f, &conf, log.Default()); err != nil {
		log.WarnContext(ctx, "script-opts", slog.String("file", r.ScriptOpts), slog.Any("error", err))
	}

	return conf
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	conf := r.config(ctx)

	client, err := mpv.Dial(ctx, r.Socket,
		mpv.WithLogger(log.Default().Component("ipc")),
		mpv.WithEventBuffer(r.Events),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	log.DebugContext(ctx, "connected",
		slog.String("socket", r.Socket),
		slog.String("mode", conf.Mode.String()),
		slog.Bool("load", conf.Load))

	tel := telemetry.New(telemetry.WithLogger(log.Default().Component("telemetry")))
	defer func() {
		if serr := tel.Shutdown(context.WithoutCancel(ctx)); serr != nil {
			log.DebugContext(ctx, "telemetry shutdown", slog.Any("error", serr))
		}
	}()

	p := plugin.New(client, native.NewMemory(),
		tui.New(tui.WithLogger(log.Default().Component("tui"))),
		conf,
		plugin.WithLogger(log.Default().Component("plugin")),
		plugin.WithMeter(tel.Meter("dispatch")),
	)

	err = p.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
