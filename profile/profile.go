package profile

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Session describes one profiling run.
type Session struct {
	Mode string
	Dir  string
	// Quiet suppresses the profiler's own log lines.
	Quiet bool
}

// Option configures a [Session].
type Option func(*Session)

// WithMode selects one of [Modes].
func WithMode(mode string) Option { return func(s *Session) { s.Mode = mode } }

// WithDir sets the directory profiles are written to.
func WithDir(dir string) Option { return func(s *Session) { s.Dir = dir } }

// WithQuiet controls the profiler's own logging.
func WithQuiet(quiet bool) Option { return func(s *Session) { s.Quiet = quiet } }

// New returns a Session with opts applied.
func New(opts ...Option) Session {
	var s Session

	for _, opt := range opts {
		opt(&s)
	}

	return s
}

// Enabled reports whether the binary was built with profiling support.
func Enabled() bool { return len(Modes()) > 0 }

// Start begins profiling. An empty or unknown mode, or a binary built
// without the pprof tag, yields a Stopper that does nothing. Stop is always
// safe to call.
//
// The session does not install its own signal handler; the caller stops it
// when the command returns, which the run command arranges on interrupt.
func (s Session) Start() Stopper {
	if s.Mode == "" {
		return ignore{}
	}

	return start(s)
}

type ignore struct{}

func (ignore) Stop() {}
