package fluid

import (
	"log/slog"

	"github.com/robert-malhotra/go-mayacache/mcc"
)

// Option configures a Cache.
type Option func(*options)

type options struct {
	registry *mcc.Registry
	logger   *slog.Logger
}

func defaultOptions() *options {
	return &options{
		registry: mcc.DefaultRegistry(),
		logger:   slog.New(slog.DiscardHandler),
	}
}

// WithRegistry sets the registry used to parse frame files.
func WithRegistry(r *mcc.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithLogger sets the logger for progress messages. Nothing is logged by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
