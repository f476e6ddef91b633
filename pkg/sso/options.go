package sso

import "log/slog"

// Option configures a store at construction time.
type Option func(*options)

type options struct {
	computed map[string]Computed
	config   Config
	equal    func(a, b any) bool
	name     string
	logger   *slog.Logger
	instr    Instrumentation
}

// WithComputed adds computed properties. Their keys must not collide with
// the descriptor's keys.
func WithComputed(computed map[string]Computed) Option {
	return func(o *options) {
		if o.computed == nil {
			o.computed = make(map[string]Computed, len(computed))
		}
		for k, fn := range computed {
			o.computed[k] = fn
		}
	}
}

// WithConfig merges cfg over the global default for this store only.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = o.config.merge(cfg)
	}
}

// WithEquals replaces the equality oracle used to suppress no-op writes.
// fn runs while the store's lock is held and must not call back into it.
func WithEquals(fn func(a, b any) bool) Option {
	return func(o *options) {
		o.equal = fn
	}
}

// WithName names the store in logs and metrics.
// Default: "store-<id>".
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithInstrumentation sets the instrumentation that receives store events.
func WithInstrumentation(instr Instrumentation) Option {
	return func(o *options) {
		o.instr = instr
	}
}
