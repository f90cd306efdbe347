package metrigo

type options struct {
	k      int
	radius float64
	logger *Logger
}

// Option configures a single algorithm run.
type Option func(*options)

func defaultOptions() options {
	return options{
		k:      1,
		radius: 0,
		logger: NoopLogger(),
	}
}

// WithK configures the neighbor count of a kNN run. Defaults to 1.
func WithK(k int) Option {
	return func(o *options) {
		o.k = k
	}
}

// WithRadius configures the radius of a range run. Defaults to 0.
func WithRadius(r float64) Option {
	return func(o *options) {
		o.radius = r
	}
}

// WithLogger configures a logger for run diagnostics. Diagnostics are
// non-authoritative; by default logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}
